package engine

import (
	"time"

	"github.com/go-drift/virtuallist/pkg/viewport"
)

// State is an immutable snapshot of the virtualization ranges for one
// accepted update. A new State is created on every accepted scroll or
// data change; existing snapshots are never mutated.
//
// Invariant: Visible ⊆ Render ⊆ Buffer ⊆ [0, ItemCount).
type State struct {
	ItemCount    int
	ScrollOffset float64
	Visible      viewport.IndexRange
	Render       viewport.IndexRange
	Buffer       viewport.IndexRange
	Timestamp    time.Time
}

// IsEmpty reports whether the snapshot renders nothing.
func (s State) IsEmpty() bool {
	return s.Render.IsEmpty()
}
