package bag

import (
	"errors"
	"fmt"
)

// Delegate is an optional host-provided cart API. When present it is
// consulted first for every operation.
type Delegate interface {
	LoadBag() (Bag, error)
	SaveBag(Bag) error
	RemoveFromBag(id string) error
	SetQty(id string, qty int) error
	AddToBagByID(p Product, qty int) error
}

// Hooks observe the recoverable failures the store hides from callers.
type Hooks struct {
	// Fallback is called when the delegate failed and local storage served op.
	Fallback func(op string, err error)
	// Recovered is called when corrupt persisted data was discarded.
	Recovered func(err error)
}

func (h Hooks) fallback(op string, err error) {
	if h.Fallback != nil {
		h.Fallback(op, err)
	}
}

func (h Hooks) recovered(err error) {
	if h.Recovered != nil {
		h.Recovered(err)
	}
}

var errNoDelegate = errors.New("bag: no delegate")

// call runs fn against the delegate, turning a panic into an error.
func call(d Delegate, fn func(Delegate) error) (err error) {
	if d == nil {
		return errNoDelegate
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delegate panic: %v", r)
		}
	}()
	return fn(d)
}
