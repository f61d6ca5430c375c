// Package dispatch routes user actions on bag controls to bag mutations.
// Every control in every view carries an action tag and an item id; one
// table maps each tag to its handler.
package dispatch

import (
	"strings"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/directive"
)

// Action is the tag carried by a control (data-action).
type Action string

const (
	ActionAdd         Action = "add"
	ActionIncrease    Action = "increase"
	ActionDecrease    Action = "decrease"
	ActionSetQuantity Action = "set-quantity"
	ActionRemove      Action = "remove"
	ActionCheckout    Action = "checkout"
)

// CheckoutPath is where an allowed checkout navigates.
const CheckoutPath = "/checkout/"

// NoticeEmptyBag is shown when checkout is attempted with an empty bag.
const NoticeEmptyBag = "Your cart is empty"

// Request is a single user action.
type Request struct {
	Action Action
	ID     string
	Value  string
}

// Outcome tells the caller what to show after an action.
type Outcome struct {
	Changed  bool
	Blocked  bool
	Notice   string
	Redirect string
}

type handlerFunc func(*Dispatcher, Request) (Outcome, error)

var handlers = map[Action]handlerFunc{
	ActionAdd:         (*Dispatcher).increase,
	ActionIncrease:    (*Dispatcher).increase,
	ActionDecrease:    (*Dispatcher).decrease,
	ActionSetQuantity: (*Dispatcher).setQuantity,
	ActionRemove:      (*Dispatcher).remove,
	ActionCheckout:    (*Dispatcher).checkout,
}

// Dispatcher applies actions to one visitor's bag.
type Dispatcher struct {
	store    *bag.Store
	products bag.ProductSource
}

// New returns a Dispatcher. products supplies metadata when an action adds
// an item that is not yet in the bag; it may be nil.
func New(store *bag.Store, products bag.ProductSource) *Dispatcher {
	return &Dispatcher{store: store, products: products}
}

// Actions lists the supported action tags.
func Actions() []Action {
	return []Action{ActionAdd, ActionIncrease, ActionDecrease, ActionSetQuantity, ActionRemove, ActionCheckout}
}

// Dispatch runs req.
func (d *Dispatcher) Dispatch(req Request) (Outcome, error) {
	req.Action = Action(strings.TrimSpace(string(req.Action)))
	req.ID = strings.TrimSpace(req.ID)
	h, ok := handlers[req.Action]
	if !ok {
		return Outcome{}, NewInvalidArgumentf("%s: %q", ErrMsgUnknownAction, req.Action)
	}
	if req.ID == "" && req.Action != ActionCheckout {
		return Outcome{}, NewInvalidArgument(ErrMsgIDRequired)
	}
	return h(d, req)
}

func (d *Dispatcher) increase(req Request) (Outcome, error) {
	b, err := d.store.Load()
	if err != nil {
		return Outcome{}, err
	}
	if line, ok := b.Find(req.ID); ok {
		if err := d.store.SetQty(req.ID, line.Qty+1); err != nil {
			return Outcome{}, err
		}
		return Outcome{Changed: true}, nil
	}
	if d.products == nil {
		return Outcome{}, NewFailedPrecondition(ErrMsgUnknownItem)
	}
	p, ok := d.products.LookupProduct(req.ID)
	if !ok {
		return Outcome{}, NewFailedPrecondition(ErrMsgUnknownItem)
	}
	p.ID = req.ID
	if err := d.store.AddByID(p, 1); err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true}, nil
}

func (d *Dispatcher) decrease(req Request) (Outcome, error) {
	b, err := d.store.Load()
	if err != nil {
		return Outcome{}, err
	}
	line, ok := b.Find(req.ID)
	if !ok {
		return Outcome{}, nil
	}
	if err := d.store.SetQty(req.ID, max(1, line.Qty-1)); err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true}, nil
}

func (d *Dispatcher) setQuantity(req Request) (Outcome, error) {
	b, err := d.store.Load()
	if err != nil {
		return Outcome{}, err
	}
	if _, ok := b.Find(req.ID); !ok {
		return Outcome{}, nil
	}
	if err := d.store.SetQty(req.ID, directive.ParseQty(req.Value)); err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true}, nil
}

func (d *Dispatcher) remove(req Request) (Outcome, error) {
	if err := d.store.Remove(req.ID); err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true}, nil
}

// checkout reads the effective bag at the moment of the action.
func (d *Dispatcher) checkout(Request) (Outcome, error) {
	b, err := d.store.Load()
	if err != nil {
		return Outcome{}, err
	}
	if b.IsEmpty() {
		return Outcome{Blocked: true, Notice: NoticeEmptyBag}, nil
	}
	return Outcome{Redirect: CheckoutPath}, nil
}
