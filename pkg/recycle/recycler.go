package recycle

import (
	"time"

	"github.com/go-drift/virtuallist/pkg/viewport"
)

const (
	// DefaultMaxPoolSize bounds each per-type pool.
	DefaultMaxPoolSize = 15
	// minPoolTarget is the floor below which optimization never
	// shrinks a pool.
	minPoolTarget = 5
)

// pool is a FIFO queue of parked components for one item type.
// targetCap starts at the configured maximum and is adjusted by
// OptimizePools within [minPoolTarget, 2*max].
type pool struct {
	items     []*Component
	targetCap int
}

func (p *pool) push(c *Component) {
	p.items = append(p.items, c)
}

func (p *pool) pop() *Component {
	if len(p.items) == 0 {
		return nil
	}
	c := p.items[0]
	p.items[0] = nil
	p.items = p.items[1:]
	return c
}

// Stats summarizes recycler activity.
type Stats struct {
	Created  int
	Recycled int
	Disposed int
	Active   int
	Pooled   int
}

// RecycleRatio is the share of acquisitions served from the pool.
func (s Stats) RecycleRatio() float64 {
	total := s.Created + s.Recycled
	if total == 0 {
		return 0
	}
	return float64(s.Recycled) / float64(total)
}

// Recycler manages per-item-type pools of renderable components.
//
// Exactly one component is active per index at any time. Acquire on an
// already-active index releases the previous binding first. The
// recycler is confined to the engine's scheduling goroutine; see the
// engine's concurrency notes.
type Recycler struct {
	maxPoolSize int
	pools       map[string]*pool
	active      map[int]*Component

	created  int
	recycled int
	disposed int

	now func() time.Time
}

// NewRecycler creates a recycler. maxPoolSize <= 0 falls back to
// DefaultMaxPoolSize.
func NewRecycler(maxPoolSize int) *Recycler {
	if maxPoolSize <= 0 {
		maxPoolSize = DefaultMaxPoolSize
	}
	return &Recycler{
		maxPoolSize: maxPoolSize,
		pools:       make(map[string]*pool),
		active:      make(map[int]*Component),
		now:         time.Now,
	}
}

// ConfigureItemTypes pre-scans the data once and creates an empty pool
// for every distinct item type the classifier reports.
func (r *Recycler) ConfigureItemTypes(itemCount int, classify func(index int) string) {
	if classify == nil {
		r.poolFor("")
		return
	}
	for i := 0; i < itemCount; i++ {
		r.poolFor(classify(i))
	}
}

// Acquire returns a renderable bound to index, reusing a pooled
// component of the same item type when available. The second return
// reports whether the renderable was recycled. Builder errors propagate
// unchanged and leave the recycler untouched.
func (r *Recycler) Acquire(index int, itemType string, build Builder, data any) (Renderable, bool, error) {
	if prev, ok := r.active[index]; ok {
		// Re-acquiring a live index rebinds in place when the type
		// matches; otherwise the stale binding is released first.
		if prev.itemType == itemType {
			prev.bind(index, data, r.now(), false)
			return prev.renderable, false, nil
		}
		r.Release(index)
	}

	p := r.poolFor(itemType)
	if c := p.pop(); c != nil {
		c.bind(index, data, r.now(), true)
		r.active[index] = c
		r.recycled++
		return c.renderable, true, nil
	}

	renderable, err := build()
	if err != nil {
		return nil, false, err
	}
	c := &Component{
		renderable: renderable,
		itemType:   itemType,
		createdAt:  r.now(),
	}
	c.bind(index, data, r.now(), false)
	r.active[index] = c
	r.created++
	return renderable, false, nil
}

// Release returns the component bound to index to its pool, or
// disposes it when the pool is full. Releasing an unbound index is a
// no-op, so Release is idempotent.
func (r *Recycler) Release(index int) {
	c, ok := r.active[index]
	if !ok {
		return
	}
	delete(r.active, index)

	p := r.poolFor(c.itemType)
	if len(p.items) < p.targetCap {
		c.park()
		p.push(c)
		return
	}
	c.dispose()
	r.disposed++
}

// ReleaseOutsideRange releases every active index not in keep.
func (r *Recycler) ReleaseOutsideRange(keep viewport.IndexRange) {
	for index := range r.active {
		if !keep.Contains(index) {
			r.Release(index)
		}
	}
}

// ActiveIndex reports whether an active component is bound to index.
func (r *Recycler) ActiveIndex(index int) bool {
	_, ok := r.active[index]
	return ok
}

// PooledCount returns the number of parked components for itemType.
func (r *Recycler) PooledCount(itemType string) int {
	p, ok := r.pools[itemType]
	if !ok {
		return 0
	}
	return len(p.items)
}

// OptimizePools adapts per-type pool capacities to observed demand:
// an empty pool shrinks 20% (never below minPoolTarget) and a
// saturated pool grows 20% (never beyond twice the configured
// maximum).
func (r *Recycler) OptimizePools() {
	for _, p := range r.pools {
		switch {
		case len(p.items) == 0 && p.targetCap > minPoolTarget:
			p.targetCap = int(float64(p.targetCap) * 0.8)
			if p.targetCap < minPoolTarget {
				p.targetCap = minPoolTarget
			}
		case len(p.items) >= p.targetCap:
			grown := int(float64(p.targetCap) * 1.2)
			if grown == p.targetCap {
				grown++
			}
			if limit := r.maxPoolSize * 2; grown > limit {
				grown = limit
			}
			p.targetCap = grown
		}
	}
}

// Stats returns a snapshot of recycler counters.
func (r *Recycler) Stats() Stats {
	pooled := 0
	for _, p := range r.pools {
		pooled += len(p.items)
	}
	return Stats{
		Created:  r.created,
		Recycled: r.recycled,
		Disposed: r.disposed,
		Active:   len(r.active),
		Pooled:   pooled,
	}
}

// Dispose releases and disposes every component, active and pooled.
// The recycler remains usable but empty.
func (r *Recycler) Dispose() {
	for index, c := range r.active {
		delete(r.active, index)
		c.dispose()
		r.disposed++
	}
	for _, p := range r.pools {
		for _, c := range p.items {
			c.dispose()
			r.disposed++
		}
		p.items = nil
	}
}

func (r *Recycler) poolFor(itemType string) *pool {
	p, ok := r.pools[itemType]
	if !ok {
		p = &pool{targetCap: r.maxPoolSize}
		r.pools[itemType] = p
	}
	return p
}
