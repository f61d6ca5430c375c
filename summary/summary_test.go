package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/shopbag/bag"
)

func TestCalculate(t *testing.T) {
	calc := NewCalculator(nil)
	s, err := calc.Calculate(bag.Bag{
		{ID: "a", Price: 10.00, Qty: 2},
		{ID: "b", Price: 5.50, Qty: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, s.Quantity)
	assert.Equal(t, "36.50", Fixed(s.Subtotal))
	assert.Equal(t, "$36.50", Money(s.Subtotal))
	assert.Equal(t, 2.50, s.Shipping)
	assert.Equal(t, "$39.00", Money(s.Total))
}

func TestShippingThresholds(t *testing.T) {
	tests := []struct {
		name     string
		lines    bag.Bag
		shipping string
	}{
		{"empty bag ships free", nil, "0.00"},
		{"just below threshold", bag.Bag{{ID: "a", Price: 59.99, Qty: 1}}, "2.50"},
		{"at threshold", bag.Bag{{ID: "a", Price: 60.00, Qty: 1}}, "0.00"},
		{"above threshold", bag.Bag{{ID: "a", Price: 30, Qty: 3}}, "0.00"},
		{"free items", bag.Bag{{ID: "a", Price: 0, Qty: 4}}, "0.00"},
	}
	calc := NewCalculator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := calc.Calculate(tt.lines)
			require.NoError(t, err)
			assert.Equal(t, tt.shipping, Fixed(s.Shipping))
		})
	}
}

func TestRoundingOnlyAtPresentation(t *testing.T) {
	s, err := NewCalculator(nil).Calculate(bag.Bag{{ID: "a", Price: 0.1, Qty: 3}})
	require.NoError(t, err)
	assert.NotEqual(t, 0.3, s.Subtotal, "stored value keeps float precision")
	assert.Equal(t, "0.30", Fixed(s.Subtotal))
}

func TestExprPolicy(t *testing.T) {
	p, err := NewExprPolicy(`subtotal == 0 || subtotal >= 60 ? 0 : (quantity > 5 ? 4.5 : 2.5)`)
	require.NoError(t, err)
	calc := NewCalculator(p)

	s, err := calc.Calculate(bag.Bag{{ID: "a", Price: 1, Qty: 6}})
	require.NoError(t, err)
	assert.Equal(t, 4.5, s.Shipping)

	s, err = calc.Calculate(bag.Bag{{ID: "a", Price: 1, Qty: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.Shipping)

	s, err = calc.Calculate(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Shipping)
}

func TestExprPolicySeesLines(t *testing.T) {
	p, err := NewExprPolicy(`any(lines, .id == "bulky") ? 9.0 : 0.0`)
	require.NoError(t, err)

	fee, err := p.Fee(10, 1, bag.Bag{{ID: "bulky", Price: 10, Qty: 1}})
	require.NoError(t, err)
	assert.Equal(t, 9.0, fee)
}

func TestExprPolicyErrors(t *testing.T) {
	_, err := NewExprPolicy("")
	assert.Error(t, err)

	_, err = NewExprPolicy("subtotal >")
	assert.Error(t, err)

	p, err := NewExprPolicy("subtotal - 100")
	require.NoError(t, err)
	_, err = NewCalculator(p).Calculate(bag.Bag{{ID: "a", Price: 1, Qty: 1}})
	assert.Error(t, err, "negative fees are rejected")
}
