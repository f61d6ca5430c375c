package bag

import (
	"fmt"
	"strconv"
	"time"
)

// Keys used in durable storage.
const (
	KeyBag       = "bag"
	KeyUpdatedAt = "__bag_updated_at"
)

// Storage is a single visitor's view of durable key/value storage.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Local implements Delegate on top of durable storage. It is the source of
// truth whenever no host delegate is present or the delegate fails.
type Local struct {
	storage Storage
	now     func() time.Time
	hooks   Hooks
}

// NewLocal returns a Local backed by storage.
func NewLocal(storage Storage) *Local {
	return &Local{storage: storage, now: time.Now}
}

// LoadBag reads the persisted bag. Corrupt data is removed and an empty bag
// returned; only storage failures produce an error.
func (l *Local) LoadBag() (Bag, error) {
	raw, ok, err := l.storage.Get(KeyBag)
	if err != nil {
		return nil, fmt.Errorf("read bag: %w", err)
	}
	if !ok || raw == "" {
		return Bag{}, nil
	}
	b, err := Decode([]byte(raw))
	if err != nil {
		if rmErr := l.storage.Remove(KeyBag); rmErr != nil {
			return nil, fmt.Errorf("remove corrupt bag: %w", rmErr)
		}
		l.hooks.recovered(err)
		return Bag{}, nil
	}
	return b, nil
}

// SaveBag writes the normalized bag.
func (l *Local) SaveBag(b Bag) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}
	if err := l.storage.Set(KeyBag, string(data)); err != nil {
		return fmt.Errorf("write bag: %w", err)
	}
	return nil
}

// RemoveFromBag deletes the line for id, if any.
func (l *Local) RemoveFromBag(id string) error {
	b, err := l.LoadBag()
	if err != nil {
		return err
	}
	i := b.Index(id)
	if i < 0 {
		return nil
	}
	return l.SaveBag(append(b[:i:i], b[i+1:]...))
}

// SetQty overwrites the quantity of an existing line. A quantity <= 0
// removes the line; unknown ids are ignored.
func (l *Local) SetQty(id string, qty int) error {
	b, err := l.LoadBag()
	if err != nil {
		return err
	}
	i := b.Index(id)
	if i < 0 {
		return nil
	}
	if qty <= 0 {
		return l.SaveBag(append(b[:i:i], b[i+1:]...))
	}
	b[i].Qty = qty
	return l.SaveBag(b)
}

// AddToBagByID appends a line for p, or increases the quantity of the
// existing line.
func (l *Local) AddToBagByID(p Product, qty int) error {
	b, err := l.LoadBag()
	if err != nil {
		return err
	}
	if qty < 1 {
		qty = 1
	}
	if i := b.Index(p.ID); i >= 0 {
		b[i].Qty += qty
		return l.SaveBag(b)
	}
	b = append(b, Line{ID: p.ID, Title: p.Title, Price: p.Price, Qty: qty, Img: p.Img})
	return l.SaveBag(b)
}

// Touch writes a new change stamp. Stamps are strictly increasing per
// storage even when the clock stalls or goes backwards.
func (l *Local) Touch() (int64, error) {
	stamp := l.now().UnixMilli()
	prev, ok, err := l.storage.Get(KeyUpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("read stamp: %w", err)
	}
	if ok {
		if p, err := strconv.ParseInt(prev, 10, 64); err == nil && stamp <= p {
			stamp = p + 1
		}
	}
	if err := l.storage.Set(KeyUpdatedAt, strconv.FormatInt(stamp, 10)); err != nil {
		return 0, fmt.Errorf("write stamp: %w", err)
	}
	return stamp, nil
}

// Clear removes the bag and its stamp.
func (l *Local) Clear() error {
	if err := l.storage.Remove(KeyBag); err != nil {
		return fmt.Errorf("clear bag: %w", err)
	}
	if err := l.storage.Remove(KeyUpdatedAt); err != nil {
		return fmt.Errorf("clear stamp: %w", err)
	}
	return nil
}
