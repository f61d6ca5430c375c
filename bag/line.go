// Package bag holds the canonical shopping bag: the list of cart lines a
// visitor has selected, how it is normalized, and where it is persisted.
package bag

// PlaceholderImage is rendered for lines that carry no image.
const PlaceholderImage = "images/placeholder.png"

// Line is a single cart entry. Qty is always >= 1 for persisted lines.
type Line struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
	Img   string  `json:"img"`
}

// Subtotal returns the unrounded line total.
func (l Line) Subtotal() float64 {
	return l.Price * float64(l.Qty)
}

// Image returns the line image or the placeholder.
func (l Line) Image() string {
	if l.Img == "" {
		return PlaceholderImage
	}
	return l.Img
}

// Bag is the ordered list of lines, unique by ID.
type Bag []Line

// Index returns the position of id in the bag, or -1.
func (b Bag) Index(id string) int {
	for i, l := range b {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the line for id.
func (b Bag) Find(id string) (Line, bool) {
	if i := b.Index(id); i >= 0 {
		return b[i], true
	}
	return Line{}, false
}

// IsEmpty reports whether the bag has no lines.
func (b Bag) IsEmpty() bool {
	return len(b) == 0
}

// Clone returns a copy that can be mutated without touching b.
func (b Bag) Clone() Bag {
	if b == nil {
		return Bag{}
	}
	out := make(Bag, len(b))
	copy(out, b)
	return out
}

// Product is the metadata needed to create a line for a catalog item.
type Product struct {
	ID    string
	Title string
	Price float64
	Img   string
}

// ProductSource looks up product metadata by id. Implementations include the
// catalog and the product cards present in a rendered page.
type ProductSource interface {
	LookupProduct(id string) (Product, bool)
}

// Change describes a committed write to the bag.
type Change struct {
	Bag   Bag
	Stamp int64
}

// Notifier receives every committed change, after normalization.
type Notifier interface {
	Notify(Change)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Change)

// Notify calls f(c).
func (f NotifierFunc) Notify(c Change) { f(c) }
