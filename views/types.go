package views

// SiteConfig holds the site-wide settings templates need.
type SiteConfig struct {
	Name        string // SHOP_NAME (default "Shop")
	URL         string // SHOP_URL  (default "http://localhost:3000")
	Description string
}

// Product is a catalog entry rendered as a product card.
type Product struct {
	ID          string
	Title       string
	Price       float64
	Img         string
	Description string
	Position    int
	Active      bool
}

// Image is an uploaded product image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}
