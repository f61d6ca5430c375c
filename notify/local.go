// Package notify propagates committed bag changes: synchronously to the
// views rendered by the current request, and asynchronously to the other
// open tabs of the same visitor.
package notify

import (
	"sync"

	"github.com/eringen/shopbag/bag"
)

// Local fans a change out to in-process subscribers, synchronously and in
// subscription order.
type Local struct {
	mu   sync.Mutex
	subs []*localSub
}

type localSub struct {
	fn func(bag.Change)
}

// NewLocal returns a Local with no subscribers.
func NewLocal() *Local {
	return &Local{}
}

// Subscribe registers fn and returns a function that removes it.
func (l *Local) Subscribe(fn func(bag.Change)) (unsubscribe func()) {
	s := &localSub{fn: fn}
	l.mu.Lock()
	l.subs = append(l.subs, s)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, cur := range l.subs {
			if cur == s {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers c to every subscriber before returning.
func (l *Local) Notify(c bag.Change) {
	l.mu.Lock()
	subs := make([]*localSub, len(l.subs))
	copy(subs, l.subs)
	l.mu.Unlock()
	for _, s := range subs {
		s.fn(c)
	}
}
