package shopbag

import (
	"strings"

	"github.com/eringen/shopbag/bag"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// productSources tries each source in order.
type productSources []bag.ProductSource

func (s productSources) LookupProduct(id string) (bag.Product, bool) {
	for _, src := range s {
		if src == nil {
			continue
		}
		if p, ok := src.LookupProduct(id); ok {
			return p, true
		}
	}
	return bag.Product{}, false
}
