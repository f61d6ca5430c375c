package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/kv"
)

func TestLocalDeliversSynchronouslyInOrder(t *testing.T) {
	l := NewLocal()
	var order []string
	l.Subscribe(func(bag.Change) { order = append(order, "badge") })
	unsub := l.Subscribe(func(bag.Change) { order = append(order, "mini") })
	l.Subscribe(func(c bag.Change) { order = append(order, c.Bag[0].ID) })

	l.Notify(bag.Change{Bag: bag.Bag{{ID: "a", Qty: 1}}})
	assert.Equal(t, []string{"badge", "mini", "a"}, order)

	unsub()
	order = nil
	l.Notify(bag.Change{Bag: bag.Bag{{ID: "b", Qty: 1}}})
	assert.Equal(t, []string{"badge", "b"}, order)
}

func TestLocalSeesOnlyNormalizedState(t *testing.T) {
	l := NewLocal()
	var seen bag.Bag
	l.Subscribe(func(c bag.Change) { seen = c.Bag })

	s := bag.NewStore(kv.Scope(kv.NewMemory(), "v"), bag.WithNotifier(l))
	require.NoError(t, s.Save(bag.Bag{{ID: "a", Title: "Cream A", Qty: 2}, {ID: "b", Qty: -1}}))
	assert.Equal(t, bag.Bag{{ID: "a", Title: "Cream", Qty: 2}}, seen)
}

func TestFeedSkipsOriginAndOtherNamespaces(t *testing.T) {
	f := NewFeed()
	tab1 := f.Subscribe("visitor", "tab-1")
	tab2 := f.Subscribe("visitor", "tab-2")
	other := f.Subscribe("someone-else", "tab-9")
	defer tab1.Close()
	defer tab2.Close()
	defer other.Close()

	f.Publish(Event{Namespace: "visitor", Stamp: 10, Origin: "tab-1"})

	select {
	case ev := <-tab2.C():
		assert.Equal(t, int64(10), ev.Stamp)
	case <-time.After(time.Second):
		t.Fatal("tab-2 should receive the change")
	}
	assert.Len(t, tab1.C(), 0, "origin tab is not notified")
	assert.Len(t, other.C(), 0, "other visitors are not notified")
}

func TestFeedCoalescesBursts(t *testing.T) {
	f := NewFeed()
	sub := f.Subscribe("visitor", "tab-2")
	defer sub.Close()

	for stamp := int64(1); stamp <= 50; stamp++ {
		f.Publish(Event{Namespace: "visitor", Stamp: stamp, Origin: "tab-1"})
	}
	require.Len(t, sub.C(), 1)
	ev := <-sub.C()
	assert.Equal(t, int64(50), ev.Stamp, "only the latest change survives a burst")
}

func TestFeedCloseReleases(t *testing.T) {
	f := NewFeed()
	count := 0
	f.OnSubscribers(func(delta int) { count += delta })

	sub := f.Subscribe("visitor", "tab")
	assert.Equal(t, 1, f.Subscribers("visitor"))
	assert.Equal(t, 1, count)

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, f.Subscribers("visitor"))
	assert.Equal(t, 0, count)

	_, open := <-sub.C()
	assert.False(t, open)

	f.Publish(Event{Namespace: "visitor", Stamp: 1})
}

func TestFeedNotifierAndFanout(t *testing.T) {
	f := NewFeed()
	other := f.Subscribe("visitor", "tab-2")
	defer other.Close()

	l := NewLocal()
	var local []int64
	l.Subscribe(func(c bag.Change) { local = append(local, c.Stamp) })

	s := bag.NewStore(kv.Scope(kv.NewMemory(), "visitor"),
		bag.WithNotifier(Fanout(l, f.Notifier("visitor", "tab-1"))))
	require.NoError(t, s.Save(bag.Bag{{ID: "a", Qty: 1}}))

	require.Len(t, local, 1)
	ev := <-other.C()
	assert.Equal(t, local[0], ev.Stamp)
	assert.Equal(t, "tab-1", ev.Origin)
}
