// Package scroll persists the listing scroll offset across sessions so the
// UI can restore the reading position after a reload.
package scroll

import (
	"github.com/Lokankara/giftstore/internal/store"
)

type Tracker struct {
	Store *store.Store
}

func NewTracker(st *store.Store) *Tracker {
	return &Tracker{Store: st}
}

// Save records the current offset. Failures are not fatal; the next session
// simply starts at the top.
func (t *Tracker) Save(offset int) error {
	return store.WriteValue(t.Store, store.KeyScroll, offset)
}

// Restore returns the saved offset, or false when none was recorded.
func (t *Tracker) Restore() (int, bool) {
	return store.ReadValue[int](t.Store, store.KeyScroll)
}
