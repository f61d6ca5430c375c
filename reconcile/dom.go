package reconcile

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument parses a complete HTML page.
func ParseDocument(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// Render writes n and its descendants as HTML.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// FindByID returns the first element under root with the given id.
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if v, ok := attr(n, "id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits element nodes depth first. Returning false skips children.
func walk(root *html.Node, fn func(*html.Node) bool) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode || c.Type == html.DocumentNode {
			if fn(c) {
				walk(c, fn)
			}
		}
		c = next
	}
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func hasClass(n *html.Node, class string) bool {
	if class == "" {
		return false
	}
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(b.String())
}

func setText(n *html.Node, text string) {
	if n.FirstChild != nil && n.FirstChild == n.LastChild && n.FirstChild.Type == html.TextNode {
		n.FirstChild.Data = text
		return
	}
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

func detach(n *html.Node) bool {
	if n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}

// appendMarkup parses markup in the context of parent and appends the result.
func appendMarkup(parent *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

// replaceChildren swaps the content of parent for markup.
func replaceChildren(parent *html.Node, markup string) error {
	removeChildren(parent)
	return appendMarkup(parent, markup)
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}

// SetInnerHTML replaces the children of n with markup parsed in n's context.
func SetInnerHTML(n *html.Node, markup string) error {
	return replaceChildren(n, markup)
}

// HiddenField sets the named hidden input inside form, appending it when
// the form does not carry one yet.
func HiddenField(form *html.Node, name, value string) error {
	if in := findInput(form, name); in != nil {
		setAttr(in, "value", value)
		return nil
	}
	return appendMarkup(form, `<input type="hidden" name="`+html.EscapeString(name)+`" value="`+html.EscapeString(value)+`">`)
}

// PostFormField sets the named hidden input in every form that posts.
func PostFormField(doc *html.Node, name, value string) error {
	for _, form := range findAll(doc, func(n *html.Node) bool {
		method, _ := attr(n, "method")
		return isElement(n, atom.Form) && strings.EqualFold(method, "post")
	}) {
		if err := HiddenField(form, name, value); err != nil {
			return err
		}
	}
	return nil
}

// NoticeID is the element notices are written into.
const NoticeID = "toast"

// Notice shows text in the page's notice element. It reports whether the
// page has one.
func Notice(doc *html.Node, text string) bool {
	n := FindByID(doc, NoticeID)
	if n == nil {
		return false
	}
	setText(n, text)
	removeAttr(n, "hidden")
	setAttr(n, "data-visible", "true")
	return true
}
