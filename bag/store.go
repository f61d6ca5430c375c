package bag

import (
	"errors"
	"time"
)

// Store is the entry point for reading and mutating a visitor's bag. Every
// operation tries the delegate first and falls back to local durable storage
// for that call only. Each successful write stamps the change and notifies.
type Store struct {
	delegate Delegate
	local    *Local
	notifier Notifier
	hooks    Hooks
}

// Option configures a Store.
type Option func(*Store)

// WithDelegate sets the host delegate consulted before local storage.
func WithDelegate(d Delegate) Option {
	return func(s *Store) {
		s.delegate = d
	}
}

// WithNotifier sets the receiver of committed changes.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithHooks installs failure observers.
func WithHooks(h Hooks) Option {
	return func(s *Store) {
		s.hooks = h
	}
}

// WithClock overrides the clock used for change stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.local.now = now
	}
}

// NewStore returns a Store persisting to storage.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{local: NewLocal(storage)}
	for _, opt := range opts {
		opt(s)
	}
	s.local.hooks = s.hooks
	return s
}

// Load returns the effective bag.
func (s *Store) Load() (Bag, error) {
	var b Bag
	err := s.withFallback("load", func(d Delegate) error {
		var err error
		b, err = d.LoadBag()
		return err
	}, func() error {
		var err error
		b, err = s.local.LoadBag()
		return err
	})
	if err != nil {
		return nil, err
	}
	return Normalize(b), nil
}

// Save normalizes and persists b, then notifies.
func (s *Store) Save(b Bag) error {
	b = Normalize(b)
	err := s.withFallback("save", func(d Delegate) error {
		return d.SaveBag(b)
	}, func() error {
		return s.local.SaveBag(b)
	})
	if err != nil {
		return err
	}
	return s.commit(b)
}

// Remove deletes the line for id.
func (s *Store) Remove(id string) error {
	return s.mutate("remove", func(d Delegate) error {
		return d.RemoveFromBag(id)
	}, func() error {
		return s.local.RemoveFromBag(id)
	})
}

// SetQty overwrites the quantity for id. qty <= 0 removes the line.
func (s *Store) SetQty(id string, qty int) error {
	return s.mutate("set_qty", func(d Delegate) error {
		return d.SetQty(id, qty)
	}, func() error {
		return s.local.SetQty(id, qty)
	})
}

// AddByID adds qty of p, creating the line if needed.
func (s *Store) AddByID(p Product, qty int) error {
	if qty < 1 {
		qty = 1
	}
	p.Title = TidyTitle(p.Title)
	return s.mutate("add", func(d Delegate) error {
		return d.AddToBagByID(p, qty)
	}, func() error {
		return s.local.AddToBagByID(p, qty)
	})
}

// Clear empties the bag and drops the change stamp after notifying.
func (s *Store) Clear() error {
	if err := s.Save(Bag{}); err != nil {
		return err
	}
	return s.local.Clear()
}

func (s *Store) mutate(op string, viaDelegate func(Delegate) error, viaLocal func() error) error {
	if err := s.withFallback(op, viaDelegate, viaLocal); err != nil {
		return err
	}
	b, err := s.Load()
	if err != nil {
		return err
	}
	return s.commit(b)
}

func (s *Store) withFallback(op string, viaDelegate func(Delegate) error, viaLocal func() error) error {
	err := call(s.delegate, viaDelegate)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNoDelegate) {
		s.hooks.fallback(op, err)
	}
	return viaLocal()
}

func (s *Store) commit(b Bag) error {
	stamp, err := s.local.Touch()
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Notify(Change{Bag: b, Stamp: stamp})
	}
	return nil
}
