package search

import (
	"sync/atomic"

	"github.com/garyellow/nchu-course-helper/internal/alias"
	"github.com/garyellow/nchu-course-helper/internal/course"
)

// Holder owns the current Engine. Readers call Load once per request and keep
// using that snapshot; a concurrent Rebuild never affects them.
type Holder struct {
	table   *alias.Table
	current atomic.Pointer[Engine]
}

// NewHolder creates a holder serving an empty snapshot until the first rebuild.
func NewHolder(table *alias.Table) *Holder {
	h := &Holder{table: table}
	h.current.Store(NewEngine(table, nil))
	return h
}

// Load returns the current snapshot. Never nil.
func (h *Holder) Load() *Engine {
	return h.current.Load()
}

// Rebuild indexes courses and swaps the new snapshot in.
func (h *Holder) Rebuild(courses []course.Course) *Engine {
	e := NewEngine(h.table, courses)
	h.current.Store(e)
	return e
}

// Swap replaces the current snapshot and returns the previous one.
// A nil engine is ignored.
func (h *Holder) Swap(e *Engine) *Engine {
	if e == nil {
		return h.Load()
	}
	return h.current.Swap(e)
}
