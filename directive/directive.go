// Package directive applies the one-time "add to bag" instruction carried
// in a page URL (?add=<id>&qty=<n>). Applying the same directive twice leaves
// the bag unchanged, because the quantity is set rather than added.
package directive

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/eringen/shopbag/bag"
)

// Query parameter names.
const (
	ParamAdd = "add"
	ParamQty = "qty"
)

// Directive is a parsed URL instruction.
type Directive struct {
	ID  string
	Qty int
}

// Parse extracts a directive from q. The quantity defaults to 1 and is
// coerced to at least 1.
func Parse(q url.Values) (Directive, bool) {
	id := strings.TrimSpace(q.Get(ParamAdd))
	if id == "" {
		return Directive{}, false
	}
	return Directive{ID: id, Qty: ParseQty(q.Get(ParamQty))}, true
}

// ParseQty parses a user supplied quantity; anything that is not a positive
// integer becomes 1.
func ParseQty(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Apply sets the quantity of an existing line to d.Qty, or creates the line
// from src metadata when the id is not in the bag. Unknown products are
// created with the id as title and a zero price.
func Apply(s *bag.Store, d Directive, src bag.ProductSource) error {
	b, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := b.Find(d.ID); ok {
		return s.SetQty(d.ID, d.Qty)
	}
	p := bag.Product{ID: d.ID, Title: d.ID}
	if src != nil {
		if found, ok := src.LookupProduct(d.ID); ok {
			p = found
			p.ID = d.ID
			if p.Title == "" {
				p.Title = d.ID
			}
		}
	}
	return s.AddByID(p, max(1, d.Qty))
}

// Strip returns u without the directive parameters so that reloading the
// page does not apply it again. Other parameters and the fragment are kept.
func Strip(u *url.URL) string {
	out := *u
	q := out.Query()
	q.Del(ParamAdd)
	q.Del(ParamQty)
	out.RawQuery = q.Encode()
	out.Scheme = ""
	out.Host = ""
	out.User = nil
	if out.Path == "" {
		out.Path = "/"
	}
	return out.String()
}
