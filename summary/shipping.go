package summary

import (
	"errors"
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/eringen/shopbag/bag"
)

// ShippingPolicy prices shipping for a bag.
type ShippingPolicy interface {
	Fee(subtotal float64, quantity int, lines bag.Bag) (float64, error)
}

// FlatRate charges Rate unless the bag is empty or the subtotal reaches
// FreeOver.
type FlatRate struct {
	Rate     float64
	FreeOver float64
}

// DefaultShipping is 2.50, free from 60.00.
var DefaultShipping = FlatRate{Rate: 2.50, FreeOver: 60.00}

// Fee implements ShippingPolicy.
func (f FlatRate) Fee(subtotal float64, _ int, _ bag.Bag) (float64, error) {
	if subtotal == 0 || subtotal >= f.FreeOver {
		return 0, nil
	}
	return f.Rate, nil
}

// ExprPolicy evaluates a shipping rule written in expr, for example
//
//	subtotal == 0 || subtotal >= 60 ? 0 : (quantity > 5 ? 4.5 : 2.5)
//
// The rule sees subtotal, quantity and lines (each with id, price, qty).
type ExprPolicy struct {
	source  string
	program *vm.Program
}

// NewExprPolicy compiles rule.
func NewExprPolicy(rule string) (*ExprPolicy, error) {
	if rule == "" {
		return nil, errors.New("shipping rule must not be empty")
	}
	program, err := expr.Compile(rule,
		expr.Env(ruleEnv(0, 0, nil)),
		expr.AsFloat64(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile shipping rule %q: %w", rule, err)
	}
	return &ExprPolicy{source: rule, program: program}, nil
}

// String returns the rule source.
func (p *ExprPolicy) String() string { return p.source }

// Fee implements ShippingPolicy.
func (p *ExprPolicy) Fee(subtotal float64, quantity int, lines bag.Bag) (float64, error) {
	out, err := expr.Run(p.program, ruleEnv(subtotal, quantity, lines))
	if err != nil {
		return 0, fmt.Errorf("run shipping rule %q: %w", p.source, err)
	}
	fee, ok := out.(float64)
	if !ok || math.IsNaN(fee) || math.IsInf(fee, 0) || fee < 0 {
		return 0, fmt.Errorf("shipping rule %q returned %v", p.source, out)
	}
	return fee, nil
}

func ruleEnv(subtotal float64, quantity int, lines bag.Bag) map[string]any {
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		items = append(items, map[string]any{
			"id":    l.ID,
			"price": l.Price,
			"qty":   l.Qty,
		})
	}
	return map[string]any{
		"subtotal": subtotal,
		"quantity": quantity,
		"lines":    items,
	}
}
