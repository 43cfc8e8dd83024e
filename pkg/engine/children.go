package engine

import (
	verrors "github.com/go-drift/virtuallist/pkg/errors"
	"github.com/go-drift/virtuallist/pkg/recycle"
)

// ChildKind distinguishes list chrome from data items in the built
// sequence.
type ChildKind int

const (
	ChildItem ChildKind = iota
	ChildHeader
	ChildFooter
	ChildSeparator
	ChildEmpty
)

func (k ChildKind) String() string {
	switch k {
	case ChildItem:
		return "item"
	case ChildHeader:
		return "header"
	case ChildFooter:
		return "footer"
	case ChildSeparator:
		return "separator"
	case ChildEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Child is one element of the virtualized output sequence, tagged with
// its origin so the host can key and diff it.
type Child struct {
	Renderable recycle.Renderable
	// VirtualIndex is the item index for ChildItem, the preceding
	// item's index for ChildSeparator, and -1 for chrome.
	VirtualIndex int
	ItemType     string
	Recycled     bool
	Kind         ChildKind
}

// BuildChildren materializes the current render range into an ordered
// sequence: [header?] + items (separator-interleaved) + [footer?].
//
// Header and footer appear only when the render range touches the
// corresponding data boundary, so a list scrolled mid-way renders
// neither even while its buffer sits near an edge. A builder failure
// for one item is reported and that index skipped for this pass; it
// never aborts the sequence. An empty data set yields only chrome.
func (e *Engine) BuildChildren() []Child {
	if e.disposed {
		return nil
	}
	n := len(e.data)
	r := e.state.Render
	children := make([]Child, 0, r.Length()*2+2)

	if e.adapter.Header != nil && (n == 0 || r.Start == 0) {
		children = append(children, Child{
			Renderable:   e.adapter.Header(),
			VirtualIndex: -1,
			Kind:         ChildHeader,
		})
	}

	if n == 0 {
		if e.adapter.Empty != nil {
			children = append(children, Child{
				Renderable:   e.adapter.Empty(),
				VirtualIndex: -1,
				Kind:         ChildEmpty,
			})
		}
	} else {
		appended := false
		for i := r.Start; i < r.End; i++ {
			child, ok := e.buildItem(i)
			if !ok {
				continue
			}
			if appended && e.adapter.Separator != nil {
				children = append(children, Child{
					Renderable:   e.adapter.Separator(i - 1),
					VirtualIndex: i - 1,
					Kind:         ChildSeparator,
				})
			}
			children = append(children, child)
			appended = true
		}
	}

	if e.adapter.Footer != nil && (n == 0 || r.End == n) {
		children = append(children, Child{
			Renderable:   e.adapter.Footer(),
			VirtualIndex: -1,
			Kind:         ChildFooter,
		})
	}

	e.lastRenderCount = len(children)
	return children
}

// buildItem materializes one index, reporting and swallowing builder
// faults.
func (e *Engine) buildItem(index int) (Child, bool) {
	itemType := e.itemTypeFor(index)
	renderable, recycled, err := e.materialize(index, itemType)
	if err != nil {
		buildErr, ok := err.(*verrors.BuildError)
		if !ok {
			buildErr = &verrors.BuildError{
				Index:     index,
				ItemType:  itemType,
				Err:       err,
				Timestamp: e.now(),
			}
		}
		verrors.ReportBuildError(buildErr)
		e.log.Debug().Int("index", index).Err(err).Msg("item build failed, skipping")
		return Child{}, false
	}
	return Child{
		Renderable:   renderable,
		VirtualIndex: index,
		ItemType:     itemType,
		Recycled:     recycled,
		Kind:         ChildItem,
	}, true
}

// materialize acquires or builds the renderable for one index. Builder
// panics surface as *errors.BuildError.
func (e *Engine) materialize(index int, itemType string) (renderable recycle.Renderable, recycled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			renderable = nil
			recycled = false
			err = &verrors.BuildError{
				Index:      index,
				ItemType:   itemType,
				Recovered:  r,
				StackTrace: verrors.CaptureStack(),
				Timestamp:  e.now(),
			}
		}
	}()

	item := e.data[index]
	build := func() (recycle.Renderable, error) {
		return e.adapter.Build(item, index)
	}
	if !e.cfg.RecyclingEnabled() {
		r, buildErr := build()
		return r, false, buildErr
	}
	return e.rec.Acquire(index, itemType, build, item)
}
