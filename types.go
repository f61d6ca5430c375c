package shopbag

import "github.com/eringen/shopbag/views"

// Product is a catalog entry. It is shared with the views package so
// templates render catalog rows directly.
type Product = views.Product

// Image is metadata for an uploaded product image.
type Image = views.Image
