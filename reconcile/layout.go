package reconcile

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/summary"
)

// Layout describes how one view lays out bag rows.
type Layout struct {
	Name        string
	ContainerID string
	// Parent is the element a fragment of the container must be parsed in.
	Parent   atom.Atom
	RowClass string

	// Field selectors inside a row. Empty selectors are skipped.
	QtyValueClass string // input whose value attribute holds the quantity
	QtyTextClass  string // element whose text holds the quantity
	PriceClass    string
	SubtotalClass string

	Row   func(bag.Line) string
	Empty string
}

var (
	// BagLayout is the bag page table.
	BagLayout = Layout{
		Name:          "bag",
		ContainerID:   "bag-items",
		Parent:        atom.Table,
		RowClass:      "bag-row",
		QtyValueClass: "qty-input",
		PriceClass:    "cell-price",
		SubtotalClass: "cell-subtotal",
		Row:           bagRow,
		Empty:         `<tr class="bag-row" data-empty="true"><td colspan="5" class="bag-empty">Your bag is empty.</td></tr>`,
	}

	// MiniLayout is the mini-cart overlay list.
	MiniLayout = Layout{
		Name:         "mini",
		ContainerID:  "mini-cart-list",
		Parent:       atom.Body,
		RowClass:     "mini-cart-item",
		QtyTextClass: "qty-num",
		PriceClass:   "price",
		Row:          miniRow,
		Empty:        `<div class="mini-cart-empty" data-empty="true">Your bag is empty</div>`,
	}

	// CheckoutLayout is the checkout order summary list.
	CheckoutLayout = Layout{
		Name:          "checkout",
		ContainerID:   "checkout-items",
		Parent:        atom.Body,
		RowClass:      "checkout-row",
		QtyTextClass:  "qty-number",
		PriceClass:    "checkout-unit",
		SubtotalClass: "checkout-line-price",
		Row:           checkoutRow,
		Empty:         `<div class="checkout-row-empty" data-empty="true">Your bag is empty.</div>`,
	}
)

// Layouts lists every built-in layout.
func Layouts() []Layout {
	return []Layout{BagLayout, MiniLayout, CheckoutLayout}
}

// LayoutByName returns the built-in layout called name.
func LayoutByName(name string) (Layout, bool) {
	for _, l := range Layouts() {
		if l.Name == name {
			return l, true
		}
	}
	return Layout{}, false
}

func qtyButtons(id, qtyMarkup string) string {
	return fmt.Sprintf(`<button type="button" class="qty-btn" data-action="decrease" data-id="%[1]s" aria-label="Decrease quantity">&minus;</button>%[2]s<button type="button" class="qty-btn" data-action="increase" data-id="%[1]s" aria-label="Increase quantity">+</button>`,
		id, qtyMarkup)
}

func bagRow(l bag.Line) string {
	id := html.EscapeString(l.ID)
	title := html.EscapeString(l.Title)
	qty := strconv.Itoa(l.Qty)
	input := fmt.Sprintf(`<input class="qty-input" type="number" min="1" value="%s" data-action="set-quantity" data-id="%s" aria-label="Quantity">`, qty, id)
	return fmt.Sprintf(`<tr class="bag-row" data-id="%[1]s" data-generated="true">`+
		`<td class="cell-product"><img class="product-thumb" src="%[2]s" alt="%[3]s"><span class="product-title">%[3]s</span></td>`+
		`<td class="cell-price">%[4]s</td>`+
		`<td class="cell-qty"><div class="qty-control">%[5]s</div></td>`+
		`<td class="cell-subtotal">%[6]s</td>`+
		`<td class="cell-remove"><button type="button" class="remove-btn" data-action="remove" data-id="%[1]s" aria-label="Remove item">&times;</button></td>`+
		`</tr>`,
		id, html.EscapeString(l.Image()), title,
		summary.Money(l.Price), qtyButtons(id, input), summary.Money(l.Subtotal()))
}

func miniRow(l bag.Line) string {
	id := html.EscapeString(l.ID)
	title := html.EscapeString(l.Title)
	qty := strconv.Itoa(l.Qty)
	return fmt.Sprintf(`<div class="mini-cart-item" data-id="%[1]s" data-generated="true">`+
		`<img class="mini-thumb" src="%[2]s" alt="%[3]s">`+
		`<div class="mini-info"><span class="title">%[3]s</span><span class="price">%[4]s</span></div>`+
		`<div class="mini-qty">%[5]s</div>`+
		`<button type="button" class="mini-remove" data-action="remove" data-id="%[1]s" aria-label="Remove item">&times;</button>`+
		`</div>`,
		id, html.EscapeString(l.Image()), title, summary.Money(l.Price),
		qtyButtons(id, `<span class="qty-num">`+qty+`</span>`))
}

func checkoutRow(l bag.Line) string {
	id := html.EscapeString(l.ID)
	title := html.EscapeString(l.Title)
	qty := strconv.Itoa(l.Qty)
	return fmt.Sprintf(`<div class="checkout-row" data-id="%[1]s" data-generated="true">`+
		`<div class="checkout-product"><img class="checkout-thumb" src="%[2]s" alt="%[3]s"><span class="checkout-title">%[3]s</span></div>`+
		`<span class="checkout-unit">%[4]s</span>`+
		`<div class="checkout-qty">%[5]s</div>`+
		`<span class="checkout-line-price">%[6]s</span>`+
		`<button type="button" class="checkout-remove" data-action="remove" data-id="%[1]s" aria-label="Remove item">&times;</button>`+
		`</div>`,
		id, html.EscapeString(l.Image()), title, summary.Money(l.Price),
		qtyButtons(id, `<span class="qty-number">`+qty+`</span>`), summary.Money(l.Subtotal()))
}
