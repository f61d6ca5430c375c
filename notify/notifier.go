package notify

import "github.com/eringen/shopbag/bag"

// FeedNotifier publishes committed bag changes to a Feed.
type FeedNotifier struct {
	feed      *Feed
	namespace string
	origin    string
}

// Notify implements bag.Notifier.
func (n *FeedNotifier) Notify(c bag.Change) {
	n.feed.Publish(Event{Namespace: n.namespace, Stamp: c.Stamp, Origin: n.origin})
}

// Fanout returns a bag.Notifier that delivers to each notifier in order.
func Fanout(ns ...bag.Notifier) bag.Notifier {
	return bag.NotifierFunc(func(c bag.Change) {
		for _, n := range ns {
			if n != nil {
				n.Notify(c)
			}
		}
	})
}
