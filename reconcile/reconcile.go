// Package reconcile merges the canonical bag into HTML views that may mix
// rows authored in the page with rows the engine generated earlier. Authored
// rows whose item is still in the bag keep their node identity; only their
// quantity, unit price and line subtotal change.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/summary"
)

// Report counts what a reconciliation did.
type Report struct {
	Updated  int
	Removed  int
	Appended int
}

func (r *Report) add(o Report) {
	r.Updated += o.Updated
	r.Removed += o.Removed
	r.Appended += o.Appended
}

// Reconcile brings the rows inside container in line with b.
func Reconcile(container *html.Node, l Layout, b bag.Bag) (Report, error) {
	var rep Report
	authored, generated := rows(container, l.RowClass)
	seen := make(map[string]struct{}, len(b))

	for _, pass := range [][]*html.Node{authored, generated} {
		for _, row := range pass {
			id, _ := attr(row, "data-id")
			line, ok := b.Find(id)
			_, dup := seen[id]
			if id == "" || !ok || dup {
				if detach(row) {
					rep.Removed++
				}
				continue
			}
			seen[id] = struct{}{}
			l.update(row, line)
			rep.Updated++
		}
	}

	for _, p := range findAll(container, isPlaceholder) {
		detach(p)
	}

	if b.IsEmpty() {
		if l.Empty != "" {
			if err := appendMarkup(container, l.Empty); err != nil {
				return rep, fmt.Errorf("render %s placeholder: %w", l.Name, err)
			}
		}
		return rep, nil
	}

	for _, line := range b {
		if _, ok := seen[line.ID]; ok {
			continue
		}
		if err := appendMarkup(container, l.Row(line)); err != nil {
			return rep, fmt.Errorf("render %s row %q: %w", l.Name, line.ID, err)
		}
		seen[line.ID] = struct{}{}
		rep.Appended++
	}
	return rep, nil
}

// Fragment reconciles a container sent as HTML (its outer markup) and
// returns the updated markup.
func Fragment(l Layout, markup string, b bag.Bag) (string, Report, error) {
	context := &html.Node{Type: html.ElementNode, DataAtom: l.Parent, Data: l.Parent.String()}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return "", Report{}, fmt.Errorf("parse %s fragment: %w", l.Name, err)
	}
	for _, n := range nodes {
		context.AppendChild(n)
	}
	container := FindByID(context, l.ContainerID)
	if container == nil {
		return "", Report{}, fmt.Errorf("fragment has no #%s", l.ContainerID)
	}
	rep, err := Reconcile(container, l, b)
	if err != nil {
		return "", rep, err
	}
	var out strings.Builder
	if err := html.Render(&out, container); err != nil {
		return "", rep, err
	}
	return out.String(), rep, nil
}

// rows returns the rows under container split into authored and generated,
// in document order. Rows nested in other rows are ignored.
func rows(container *html.Node, class string) (authored, generated []*html.Node) {
	walk(container, func(n *html.Node) bool {
		if !hasClass(n, class) {
			return true
		}
		if v, _ := attr(n, "data-generated"); v == "true" {
			generated = append(generated, n)
		} else if !isPlaceholder(n) {
			authored = append(authored, n)
		}
		return false
	})
	return authored, generated
}

func isPlaceholder(n *html.Node) bool {
	v, _ := attr(n, "data-empty")
	return v == "true"
}

func (l Layout) update(row *html.Node, line bag.Line) {
	qty := strconv.Itoa(line.Qty)
	setAttr(row, "data-qty", qty)
	walk(row, func(n *html.Node) bool {
		switch {
		case hasClass(n, l.QtyValueClass):
			setAttr(n, "value", qty)
		case hasClass(n, l.QtyTextClass):
			setText(n, qty)
		case hasClass(n, l.PriceClass):
			setText(n, summary.Money(line.Price))
		case hasClass(n, l.SubtotalClass):
			setText(n, summary.Money(line.Subtotal()))
		default:
			return true
		}
		return false
	})
}
