package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/kv"
)

type products map[string]bag.Product

func (p products) LookupProduct(id string) (bag.Product, bool) {
	v, ok := p[id]
	return v, ok
}

func setup(t *testing.T, initial bag.Bag) (*Dispatcher, *bag.Store) {
	t.Helper()
	s := bag.NewStore(kv.Scope(kv.NewMemory(), "visitor"))
	if initial != nil {
		require.NoError(t, s.Save(initial))
	}
	return New(s, products{"p1": {ID: "p1", Title: "Toner A", Price: 8, Img: "/t.jpg"}}), s
}

func qtyOf(t *testing.T, s *bag.Store, id string) int {
	t.Helper()
	b, err := s.Load()
	require.NoError(t, err)
	l, _ := b.Find(id)
	return l.Qty
}

func TestDecreaseNeverRemoves(t *testing.T) {
	d, s := setup(t, bag.Bag{{ID: "a", Price: 1, Qty: 2}})

	for i := 0; i < 3; i++ {
		_, err := d.Dispatch(Request{Action: ActionDecrease, ID: "a"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, qtyOf(t, s, "a"))
}

func TestIncreaseAndImplicitAdd(t *testing.T) {
	d, s := setup(t, bag.Bag{{ID: "a", Price: 1, Qty: 1}})

	out, err := d.Dispatch(Request{Action: ActionIncrease, ID: "a"})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 2, qtyOf(t, s, "a"))

	_, err = d.Dispatch(Request{Action: ActionIncrease, ID: "p1"})
	require.NoError(t, err)
	b, _ := s.Load()
	l, ok := b.Find("p1")
	require.True(t, ok)
	assert.Equal(t, bag.Line{ID: "p1", Title: "Toner", Price: 8, Qty: 1, Img: "/t.jpg"}, l)

	_, err = d.Dispatch(Request{Action: ActionAdd, ID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 2, qtyOf(t, s, "p1"))

	_, err = d.Dispatch(Request{Action: ActionIncrease, ID: "nope"})
	var ae *ActionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, StatusFailedPrecondition, ae.Code)
}

func TestSetQuantityCoercesInput(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"4", 4},
		{"0", 1},
		{"-2", 1},
		{"abc", 1},
		{"", 1},
		{" 7 ", 7},
	}
	for _, tt := range tests {
		d, s := setup(t, bag.Bag{{ID: "a", Price: 1, Qty: 3}})
		_, err := d.Dispatch(Request{Action: ActionSetQuantity, ID: "a", Value: tt.value})
		require.NoError(t, err)
		assert.Equal(t, tt.want, qtyOf(t, s, "a"), "value %q", tt.value)
	}
}

func TestSetQuantityOnMissingItemIsNoOp(t *testing.T) {
	d, s := setup(t, nil)
	out, err := d.Dispatch(Request{Action: ActionSetQuantity, ID: "ghost", Value: "3"})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	b, _ := s.Load()
	assert.Empty(t, b)
}

func TestRemoveIgnoresQuantity(t *testing.T) {
	d, s := setup(t, bag.Bag{{ID: "a", Price: 1, Qty: 40}, {ID: "b", Price: 1, Qty: 1}})
	_, err := d.Dispatch(Request{Action: ActionRemove, ID: "a"})
	require.NoError(t, err)
	b, _ := s.Load()
	assert.Equal(t, bag.Bag{{ID: "b", Price: 1, Qty: 1}}, b)
}

func TestCheckoutGuard(t *testing.T) {
	d, s := setup(t, nil)
	out, err := d.Dispatch(Request{Action: ActionCheckout})
	require.NoError(t, err)
	assert.True(t, out.Blocked)
	assert.Equal(t, NoticeEmptyBag, out.Notice)
	assert.Empty(t, out.Redirect)
	b, _ := s.Load()
	assert.Empty(t, b, "bag unchanged")

	require.NoError(t, s.Save(bag.Bag{{ID: "a", Qty: 1}}))
	out, err = d.Dispatch(Request{Action: ActionCheckout})
	require.NoError(t, err)
	assert.False(t, out.Blocked)
	assert.Equal(t, CheckoutPath, out.Redirect)
}

func TestInvalidRequests(t *testing.T) {
	d, _ := setup(t, nil)

	_, err := d.Dispatch(Request{Action: "explode", ID: "a"})
	var ae *ActionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, StatusInvalidArgument, ae.Code)
	assert.Equal(t, "INVALID_ARGUMENT", ae.Code.String())

	_, err = d.Dispatch(Request{Action: ActionIncrease})
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ErrMsgIDRequired, ae.Message)
}

func TestActionsAreAllRouted(t *testing.T) {
	for _, a := range Actions() {
		_, ok := handlers[a]
		assert.True(t, ok, a)
	}
}
