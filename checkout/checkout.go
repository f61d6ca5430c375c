// Package checkout validates an order request and clears the bag once the
// order is accepted. Orders are not persisted.
package checkout

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/summary"
)

var (
	// ErrMissingFields is returned when name, phone or address is blank.
	ErrMissingFields = errors.New("checkout: name, phone and address are required")
	// ErrEmptyBag is returned when an order is placed for an empty bag.
	ErrEmptyBag = errors.New("checkout: bag is empty")
)

// Buyer holds the contact fields collected on the checkout page.
type Buyer struct {
	Name    string
	Phone   string
	Address string
	Email   string
	Notes   string
}

// Validate trims the fields and checks the required ones.
func (b *Buyer) Validate() error {
	b.Name = strings.TrimSpace(b.Name)
	b.Phone = strings.TrimSpace(b.Phone)
	b.Address = strings.TrimSpace(b.Address)
	b.Email = strings.TrimSpace(b.Email)
	b.Notes = strings.TrimSpace(b.Notes)
	if b.Name == "" || b.Phone == "" || b.Address == "" {
		return ErrMissingFields
	}
	return nil
}

// Order is the confirmation of a placed order.
type Order struct {
	Reference string
	Buyer     Buyer
	Lines     bag.Bag
	Summary   summary.Summary
	PlacedAt  time.Time
}

// Place validates buyer, prices the current bag and clears it. The bag is
// left untouched when validation fails.
func Place(s *bag.Store, calc summary.Calculator, buyer Buyer) (Order, error) {
	if err := buyer.Validate(); err != nil {
		return Order{}, err
	}
	b, err := s.Load()
	if err != nil {
		return Order{}, err
	}
	if b.IsEmpty() {
		return Order{}, ErrEmptyBag
	}
	sum, err := calc.Calculate(b)
	if err != nil {
		return Order{}, err
	}
	if err := s.Clear(); err != nil {
		return Order{}, err
	}
	return Order{
		Reference: strings.ToUpper(uuid.NewString()[:8]),
		Buyer:     buyer,
		Lines:     b,
		Summary:   sum,
		PlacedAt:  time.Now().UTC(),
	}, nil
}
