package views

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/summary"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for use in templates.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// ProductImage returns the image for a product or the placeholder.
func ProductImage(p Product) string {
	if p.Img == "" {
		return "/" + bag.PlaceholderImage
	}
	return p.Img
}

// AddLink returns the shareable URL that puts p in the visitor's bag.
func AddLink(siteURL string, p Product, qty int) string {
	q := url.Values{}
	q.Set("add", p.ID)
	if qty > 1 {
		q.Set("qty", strconv.Itoa(qty))
	}
	return buildURL(siteURL, "bag") + "?" + q.Encode()
}

// esc escapes text for element content and quoted attributes.
func esc(s string) string {
	return templ.EscapeString(s)
}

func money(v float64) string {
	return summary.Money(v)
}

func fixed(v float64) string {
	return summary.Fixed(v)
}
