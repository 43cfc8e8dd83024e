// Package recycle pools renderable objects by item type so that
// scrolling rebinds existing objects instead of constructing new ones.
package recycle

import "time"

// Renderable is the host's render object. The recycler never inspects
// it; ownership transfers to the engine while a component is active and
// returns to the pool on release.
type Renderable any

// Builder constructs a fresh renderable when no pooled one is
// available.
type Builder func() (Renderable, error)

type componentState int

const (
	stateActive componentState = iota
	statePooled
	stateDisposed
)

// Component wraps one renderable through its recycling lifecycle:
// active (bound to a live index), pooled (awaiting reuse), disposed
// (terminal).
type Component struct {
	renderable     Renderable
	itemType       string
	data           any
	index          int
	createdAt      time.Time
	lastRecycledAt time.Time
	state          componentState
}

// Renderable returns the wrapped render object.
func (c *Component) Renderable() Renderable { return c.renderable }

// ItemType returns the pool discriminator this component belongs to.
func (c *Component) ItemType() string { return c.itemType }

// Index returns the bound item index, or -1 while pooled.
func (c *Component) Index() int { return c.index }

// CreatedAt returns when the component was first built.
func (c *Component) CreatedAt() time.Time { return c.createdAt }

// LastRecycledAt returns when the component was last rebound from the
// pool; zero if it has never been recycled.
func (c *Component) LastRecycledAt() time.Time { return c.lastRecycledAt }

// bind attaches the component to a live index.
func (c *Component) bind(index int, data any, now time.Time, recycled bool) {
	c.index = index
	c.data = data
	c.state = stateActive
	if recycled {
		c.lastRecycledAt = now
	}
}

// park clears transient state and marks the component pooled.
func (c *Component) park() {
	c.index = -1
	c.data = nil
	c.state = statePooled
}

// dispose releases the underlying renderable. Terminal.
func (c *Component) dispose() {
	c.renderable = nil
	c.data = nil
	c.index = -1
	c.state = stateDisposed
}
