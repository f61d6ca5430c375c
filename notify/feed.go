package notify

import (
	"sync"
)

// Event is the cross-tab change signal. It carries only the stamp; tabs
// reload the bag from storage when they receive it.
type Event struct {
	Namespace string
	Stamp     int64
	Origin    string
}

// Feed is a publish/subscribe change feed keyed by namespace. Delivery is
// best effort: each subscription buffers a single event and a newer event
// replaces an undelivered one. Events are not delivered to the tab that
// published them.
type Feed struct {
	mu    sync.Mutex
	subs  map[string]map[*Subscription]struct{}
	gauge func(delta int)
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[*Subscription]struct{})}
}

// OnSubscribers registers fn to be told when the subscriber count changes.
func (f *Feed) OnSubscribers(fn func(delta int)) {
	f.mu.Lock()
	f.gauge = fn
	f.mu.Unlock()
}

// Subscription receives events for one tab.
type Subscription struct {
	feed      *Feed
	namespace string
	tab       string
	ch        chan Event
	once      sync.Once
}

// C returns the channel events arrive on. It is closed by Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close stops delivery and releases the subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		f := s.feed
		f.mu.Lock()
		defer f.mu.Unlock()
		if set, ok := f.subs[s.namespace]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(f.subs, s.namespace)
			}
		}
		close(s.ch)
		if f.gauge != nil {
			f.gauge(-1)
		}
	})
}

// Subscribe registers tab for events published in namespace.
func (f *Feed) Subscribe(namespace, tab string) *Subscription {
	s := &Subscription{
		feed:      f,
		namespace: namespace,
		tab:       tab,
		ch:        make(chan Event, 1),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.subs[namespace]
	if !ok {
		set = make(map[*Subscription]struct{})
		f.subs[namespace] = set
	}
	set[s] = struct{}{}
	if f.gauge != nil {
		f.gauge(1)
	}
	return s
}

// Publish delivers ev to every subscriber of ev.Namespace except the origin
// tab. It never blocks.
func (f *Feed) Publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs[ev.Namespace] {
		if ev.Origin != "" && s.tab == ev.Origin {
			continue
		}
		offer(s.ch, ev)
	}
}

// offer replaces any pending event with ev. Callers hold the feed lock, so
// the channel cannot be closed concurrently.
func offer(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions for namespace.
func (f *Feed) Subscribers(namespace string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[namespace])
}

// Notifier adapts the feed to bag.Notifier for one namespace and tab.
func (f *Feed) Notifier(namespace, origin string) *FeedNotifier {
	return &FeedNotifier{feed: f, namespace: namespace, origin: origin}
}
