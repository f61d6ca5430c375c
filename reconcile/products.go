package reconcile

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/eringen/shopbag/bag"
)

// CardSource reads product metadata from the product cards of a page.
type CardSource map[string]bag.Product

// ProductCards indexes every .product-card[data-id] in doc. The title comes
// from data-title, then the .product-title text, then the id; the price from
// data-price; the image from the first img in the card.
func ProductCards(doc *html.Node) CardSource {
	src := make(CardSource)
	for _, card := range findAll(doc, isProductCard) {
		id, _ := attr(card, "data-id")
		if _, ok := src[id]; ok {
			continue
		}
		p := bag.Product{ID: id}
		if t, ok := attr(card, "data-title"); ok && strings.TrimSpace(t) != "" {
			p.Title = t
		}
		if raw, ok := attr(card, "data-price"); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && f >= 0 {
				p.Price = f
			}
		}
		walk(card, func(n *html.Node) bool {
			if p.Title == "" && hasClass(n, "product-title") {
				p.Title = textContent(n)
			}
			if p.Img == "" && isElement(n, atom.Img) {
				p.Img, _ = attr(n, "src")
			}
			return true
		})
		if p.Title == "" {
			p.Title = id
		}
		src[id] = p
	}
	return src
}

// LookupProduct implements bag.ProductSource.
func (s CardSource) LookupProduct(id string) (bag.Product, bool) {
	p, ok := s[id]
	return p, ok
}
