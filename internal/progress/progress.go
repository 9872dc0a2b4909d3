// Package progress tracks whether a remote request is in flight. It replaces
// the web client's process-wide spinner toggle with an owned instance that is
// injected into whatever orchestrates request lifecycles.
package progress

import (
	"github.com/Lokankara/giftstore/internal/pubsub"
)

type Indicator struct {
	visibility *pubsub.Broadcaster[bool]
}

func New() *Indicator {
	return &Indicator{visibility: pubsub.NewWith(false)}
}

// Toggle flips visibility, the way request start/finish paired in the UI.
func (i *Indicator) Toggle() {
	if i == nil {
		return
	}
	i.visibility.Publish(!i.Visible())
}

// Set forces visibility to a known state, used when a flow ends abruptly.
func (i *Indicator) Set(visible bool) {
	if i == nil {
		return
	}
	i.visibility.Publish(visible)
}

func (i *Indicator) Visible() bool {
	if i == nil {
		return false
	}
	v, _ := i.visibility.Last()
	return v
}

// Subscribe follows visibility changes; the current state is replayed first.
func (i *Indicator) Subscribe(fn func(bool)) func() {
	return i.visibility.Subscribe(fn)
}
