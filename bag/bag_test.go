package bag

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/shopbag/kv"
)

func newTestStorage() (*kv.Memory, Storage) {
	mem := kv.NewMemory()
	return mem, kv.Scope(mem, "visitor")
}

func TestTidyTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Sunscreen A", "Sunscreen"},
		{"Sunscreen a", "Sunscreen"},
		{"  Sunscreen A  ", "Sunscreen"},
		{"Sunscreen A A", "Sunscreen"},
		{"Vitamin A", "Vitamin"},
		{"A", "A"},
		{"Serum AB", "Serum AB"},
		{"Cream", "Cream"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TidyTitle(tt.in), "TidyTitle(%q)", tt.in)
	}
}

func TestNormalizeDropsInvalidLines(t *testing.T) {
	in := Bag{
		{ID: "1", Title: "Toner A", Price: 10, Qty: 2},
		{ID: "", Title: "no id", Price: 1, Qty: 1},
		{ID: "2", Title: "zero", Price: 1, Qty: 0},
		{ID: "3", Title: "negative price", Price: -4, Qty: 1},
		{ID: "1", Title: "duplicate", Price: 99, Qty: 9},
	}
	got := Normalize(in)
	require.Len(t, got, 2)
	assert.Equal(t, Line{ID: "1", Title: "Toner", Price: 10, Qty: 2}, got[0])
	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, 0.0, got[1].Price)
}

func TestNormalizeIsFixedPoint(t *testing.T) {
	inputs := []Bag{
		nil,
		{{ID: "x", Title: "Lotion A A", Price: 3.5, Qty: 1}},
		{{ID: "x", Qty: 1}, {ID: "x", Qty: 2}, {ID: "y", Qty: -1}},
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestDecodeCoercesFields(t *testing.T) {
	b, err := Decode([]byte(`[
		{"id": 42, "title": "Mask A", "price": "12.50", "qty": 2.7, "img": "m.png"},
		{"id": "7", "price": null, "qty": "3"},
		"junk",
		5,
		{"id": "gone", "qty": 0},
		{"title": "missing id", "qty": 1}
	]`))
	require.NoError(t, err)
	require.Len(t, b, 2)
	assert.Equal(t, Line{ID: "42", Title: "Mask", Price: 12.5, Qty: 2, Img: "m.png"}, b[0])
	assert.Equal(t, Line{ID: "7", Qty: 3}, b[1])
}

func TestDecodeClampsHugeQuantities(t *testing.T) {
	b, err := Decode([]byte(`[
		{"id": "a", "title": "A lot", "price": 1, "qty": 1e20},
		{"id": "b", "title": "Some", "price": 1, "qty": "3.9"}
	]`))
	require.NoError(t, err)
	require.Len(t, b, 2)
	assert.Equal(t, "a", b[0].ID)
	assert.Equal(t, maxQty, b[0].Qty)
	assert.Equal(t, 3, b[1].Qty)
}

func TestDecodeRejectsNonArray(t *testing.T) {
	for _, raw := range []string{"not json", `{"id":"1"}`, `"bag"`} {
		_, err := Decode([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestLoadRecoversFromCorruptState(t *testing.T) {
	for _, raw := range []string{"not json", `{"id":"1","qty":1}`} {
		mem, storage := newTestStorage()
		require.NoError(t, storage.Set(KeyBag, raw))

		var recovered error
		s := NewStore(storage, WithHooks(Hooks{Recovered: func(err error) { recovered = err }}))
		b, err := s.Load()
		require.NoError(t, err)
		assert.Empty(t, b)
		assert.Error(t, recovered)

		_, ok, _ := mem.Get("visitor", KeyBag)
		assert.False(t, ok, "corrupt key should be removed")
	}
}

func TestSaveNormalizesStampsAndNotifies(t *testing.T) {
	mem, storage := newTestStorage()
	var changes []Change
	now := time.UnixMilli(1_700_000_000_000)
	s := NewStore(storage,
		WithNotifier(NotifierFunc(func(c Change) { changes = append(changes, c) })),
		WithClock(func() time.Time { return now }),
	)

	require.NoError(t, s.Save(Bag{{ID: "a", Title: "Gel A", Price: 5, Qty: 2}, {ID: "b", Qty: 0}}))
	require.Len(t, changes, 1)
	assert.Equal(t, Bag{{ID: "a", Title: "Gel", Price: 5, Qty: 2}}, changes[0].Bag)
	assert.Equal(t, now.UnixMilli(), changes[0].Stamp)

	raw, ok, _ := mem.Get("visitor", KeyBag)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"a","title":"Gel","price":5,"qty":2,"img":""}]`, raw)

	// The clock does not move; stamps must still increase.
	require.NoError(t, s.Save(Bag{{ID: "a", Price: 5, Qty: 3}}))
	require.Len(t, changes, 2)
	assert.Greater(t, changes[1].Stamp, changes[0].Stamp)

	stamp, _, _ := mem.Get("visitor", KeyUpdatedAt)
	assert.Equal(t, strconv.FormatInt(changes[1].Stamp, 10), stamp)
}

func TestMutations(t *testing.T) {
	_, storage := newTestStorage()
	notified := 0
	s := NewStore(storage, WithNotifier(NotifierFunc(func(Change) { notified++ })))

	p := Product{ID: "sku-1", Title: "Sunscreen A", Price: 10}
	require.NoError(t, s.AddByID(p, 1))
	require.NoError(t, s.AddByID(p, 2))
	b, err := s.Load()
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, "Sunscreen", b[0].Title)
	assert.Equal(t, 3, b[0].Qty)

	require.NoError(t, s.SetQty("sku-1", 5))
	b, _ = s.Load()
	assert.Equal(t, 5, b[0].Qty)

	require.NoError(t, s.SetQty("unknown", 5))
	b, _ = s.Load()
	assert.Len(t, b, 1, "setting qty of an unknown id is a no-op")

	require.NoError(t, s.SetQty("sku-1", 0))
	b, _ = s.Load()
	assert.Empty(t, b, "qty 0 removes the line")

	require.NoError(t, s.AddByID(p, 0))
	require.NoError(t, s.Remove("sku-1"))
	b, _ = s.Load()
	assert.Empty(t, b)

	assert.Equal(t, 7, notified)
}

func TestClear(t *testing.T) {
	mem, storage := newTestStorage()
	s := NewStore(storage)
	require.NoError(t, s.Save(Bag{{ID: "a", Qty: 1}}))
	require.NoError(t, s.Clear())

	b, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, b)
	_, ok, _ := mem.Get("visitor", KeyUpdatedAt)
	assert.False(t, ok)
}

type fakeDelegate struct {
	bag   Bag
	fail  error
	panic bool
	calls []string
}

func (d *fakeDelegate) do(op string) error {
	d.calls = append(d.calls, op)
	if d.panic {
		panic("host script crashed")
	}
	return d.fail
}

func (d *fakeDelegate) LoadBag() (Bag, error) {
	if err := d.do("load"); err != nil {
		return nil, err
	}
	return d.bag.Clone(), nil
}

func (d *fakeDelegate) SaveBag(b Bag) error {
	if err := d.do("save"); err != nil {
		return err
	}
	d.bag = b.Clone()
	return nil
}

func (d *fakeDelegate) RemoveFromBag(id string) error {
	if err := d.do("remove"); err != nil {
		return err
	}
	if i := d.bag.Index(id); i >= 0 {
		d.bag = append(d.bag[:i:i], d.bag[i+1:]...)
	}
	return nil
}

func (d *fakeDelegate) SetQty(id string, qty int) error {
	if err := d.do("set_qty"); err != nil {
		return err
	}
	if i := d.bag.Index(id); i >= 0 {
		d.bag[i].Qty = qty
	}
	return nil
}

func (d *fakeDelegate) AddToBagByID(p Product, qty int) error {
	if err := d.do("add"); err != nil {
		return err
	}
	d.bag = append(d.bag, Line{ID: p.ID, Title: p.Title, Price: p.Price, Qty: qty, Img: p.Img})
	return nil
}

func TestDelegateIsPreferred(t *testing.T) {
	mem, storage := newTestStorage()
	d := &fakeDelegate{}
	s := NewStore(storage, WithDelegate(d))

	require.NoError(t, s.AddByID(Product{ID: "a", Price: 2}, 2))
	b, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Bag{{ID: "a", Price: 2, Qty: 2}}, b)

	_, ok, _ := mem.Get("visitor", KeyBag)
	assert.False(t, ok, "local bag untouched while the delegate works")
	_, ok, _ = mem.Get("visitor", KeyUpdatedAt)
	assert.True(t, ok, "writes are always stamped")
}

func TestDelegateFailureFallsBackPerCall(t *testing.T) {
	for name, d := range map[string]*fakeDelegate{
		"error": {fail: errors.New("quota exceeded")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			_, storage := newTestStorage()
			var ops []string
			s := NewStore(storage,
				WithDelegate(d),
				WithHooks(Hooks{Fallback: func(op string, err error) {
					assert.Error(t, err)
					ops = append(ops, op)
				}}),
			)

			require.NoError(t, s.Save(Bag{{ID: "a", Price: 1, Qty: 1}}))
			require.NoError(t, s.SetQty("a", 4))
			b, err := s.Load()
			require.NoError(t, err)
			assert.Equal(t, Bag{{ID: "a", Price: 1, Qty: 4}}, b)
			assert.Contains(t, ops, "save")
			assert.Contains(t, ops, "set_qty")
			assert.Contains(t, ops, "load")
		})
	}
}
