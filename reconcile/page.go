package reconcile

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/summary"
)

// Element ids the page-level pass knows about. Any of them may be absent.
var (
	BadgeIDs    = []string{"cart-quantity", "floating-cart-qty", "nav-cart-qty"}
	SubtotalIDs = []string{"mini-cart-sub", "mini-cart-subtotal", "subtotal", "checkout-subtotal", "bag-total"}
	ShippingIDs = []string{"shipping"}
	TotalIDs    = []string{"total"}
)

const (
	checkoutFormID  = "checkout-form"
	checkoutEmptyID = "checkout-empty"
)

// Page reconciles every view present in doc against b and refreshes the
// badges, summary displays, checkout controls and product cards. Views whose
// container is missing are skipped.
func Page(doc *html.Node, b bag.Bag, s summary.Summary, layouts ...Layout) (Report, error) {
	if len(layouts) == 0 {
		layouts = Layouts()
	}
	var rep Report
	for _, l := range layouts {
		container := FindByID(doc, l.ContainerID)
		if container == nil {
			continue
		}
		r, err := Reconcile(container, l, b)
		rep.add(r)
		if err != nil {
			return rep, err
		}
	}

	setTextByIDs(doc, BadgeIDs, strconv.Itoa(s.Quantity))
	setTextByIDs(doc, SubtotalIDs, summary.Money(s.Subtotal))
	setTextByIDs(doc, ShippingIDs, summary.Money(s.Shipping))
	setTextByIDs(doc, TotalIDs, summary.Money(s.Total))

	checkoutControls(doc, b.IsEmpty())
	if err := checkoutForm(doc, b, s); err != nil {
		return rep, err
	}
	if err := productCards(doc, b); err != nil {
		return rep, err
	}
	return rep, nil
}

func setTextByIDs(doc *html.Node, ids []string, text string) {
	for _, id := range ids {
		if n := FindByID(doc, id); n != nil {
			setText(n, text)
		}
	}
}

// checkoutControls disables order placement for an empty bag. Checkout links
// stay clickable so the empty-bag notice can be shown.
func checkoutControls(doc *html.Node, empty bool) {
	for _, n := range findAll(doc, func(n *html.Node) bool {
		id, _ := attr(n, "id")
		return id == "place-order" || hasClass(n, "place-order")
	}) {
		if empty {
			setAttr(n, "disabled", "")
		} else {
			removeAttr(n, "disabled")
		}
		setAttr(n, "aria-disabled", strconv.FormatBool(empty))
	}
	for _, n := range findAll(doc, func(n *html.Node) bool {
		id, _ := attr(n, "id")
		role, _ := attr(n, "data-role")
		return id == "checkout-link" || hasClass(n, "checkout-action") || (isElement(n, atom.Button) && role == "checkout")
	}) {
		setAttr(n, "aria-disabled", strconv.FormatBool(empty))
	}
	if n := FindByID(doc, checkoutEmptyID); n != nil {
		if empty {
			removeAttr(n, "hidden")
		} else {
			setAttr(n, "hidden", "")
		}
	}
}

// checkoutForm mirrors the summary and lines into hidden inputs so a plain
// form post carries them.
func checkoutForm(doc *html.Node, b bag.Bag, s summary.Summary) error {
	form := FindByID(doc, checkoutFormID)
	if form == nil {
		return nil
	}
	for _, n := range findAll(form, func(n *html.Node) bool {
		v, _ := attr(n, "data-generated")
		return isElement(n, atom.Input) && v == "true"
	}) {
		detach(n)
	}
	totals := []struct{ name, value string }{
		{"subtotal", summary.Fixed(s.Subtotal)},
		{"shipping", summary.Fixed(s.Shipping)},
		{"total", summary.Fixed(s.Total)},
	}
	var markup string
	for _, f := range totals {
		if in := findInput(form, f.name); in != nil {
			setAttr(in, "value", f.value)
			continue
		}
		markup += hiddenInput(f.name, f.value)
	}
	for _, l := range b {
		markup += hiddenInput("item_id[]", l.ID) +
			hiddenInput("item_qty[]", strconv.Itoa(l.Qty)) +
			hiddenInput("item_price[]", summary.Fixed(l.Price))
	}
	if markup == "" {
		return nil
	}
	if err := appendMarkup(form, markup); err != nil {
		return fmt.Errorf("render checkout fields: %w", err)
	}
	return nil
}

func findInput(root *html.Node, name string) *html.Node {
	for _, n := range findAll(root, func(n *html.Node) bool { return isElement(n, atom.Input) }) {
		if v, _ := attr(n, "name"); v == name {
			return n
		}
	}
	return nil
}

func hiddenInput(name, value string) string {
	return fmt.Sprintf(`<input type="hidden" name="%s" value="%s" data-generated="true">`,
		html.EscapeString(name), html.EscapeString(value))
}

// productCards marks each product card with its bag quantity and swaps its
// call to action between an add button and quantity controls.
func productCards(doc *html.Node, b bag.Bag) error {
	for _, card := range findAll(doc, isProductCard) {
		id, _ := attr(card, "data-id")
		line, inBag := b.Find(id)
		if inBag {
			setAttr(card, "data-qty", strconv.Itoa(line.Qty))
		} else {
			removeAttr(card, "data-qty")
		}
		var cta *html.Node
		walk(card, func(n *html.Node) bool {
			if cta == nil && hasClass(n, "card-cta") {
				cta = n
			}
			return cta == nil
		})
		if cta == nil {
			continue
		}
		eid := html.EscapeString(id)
		markup := fmt.Sprintf(`<button type="button" class="add-btn" data-action="add" data-id="%s">Add to Cart</button>`, eid)
		if inBag {
			markup = `<div class="qty-control">` +
				qtyButtons(eid, `<span class="qty-number">`+strconv.Itoa(line.Qty)+`</span>`) +
				`</div>`
		}
		if err := replaceChildren(cta, markup); err != nil {
			return fmt.Errorf("render card %q controls: %w", id, err)
		}
	}
	return nil
}

func isProductCard(n *html.Node) bool {
	if !hasClass(n, "product-card") {
		return false
	}
	id, ok := attr(n, "data-id")
	return ok && id != ""
}
