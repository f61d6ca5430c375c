// Package summary derives the order totals shown next to every bag view.
package summary

import (
	"fmt"

	"github.com/eringen/shopbag/bag"
)

// Summary holds unrounded totals. Round only when formatting.
type Summary struct {
	Quantity int
	Subtotal float64
	Shipping float64
	Total    float64
}

// Calculator computes a Summary using a shipping policy.
type Calculator struct {
	Shipping ShippingPolicy
}

// NewCalculator returns a Calculator. A nil policy means DefaultShipping.
func NewCalculator(p ShippingPolicy) Calculator {
	if p == nil {
		p = DefaultShipping
	}
	return Calculator{Shipping: p}
}

// Calculate derives the summary of b.
func (c Calculator) Calculate(b bag.Bag) (Summary, error) {
	var s Summary
	for _, l := range b {
		s.Quantity += l.Qty
		s.Subtotal += l.Subtotal()
	}
	policy := c.Shipping
	if policy == nil {
		policy = DefaultShipping
	}
	fee, err := policy.Fee(s.Subtotal, s.Quantity, b)
	if err != nil {
		return Summary{}, fmt.Errorf("shipping: %w", err)
	}
	s.Shipping = fee
	s.Total = s.Subtotal + s.Shipping
	return s, nil
}

// Money formats v for display, e.g. "$36.50".
func Money(v float64) string {
	return "$" + Fixed(v)
}

// Fixed formats v with two decimals, e.g. "36.50".
func Fixed(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
