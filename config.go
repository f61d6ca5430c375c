package shopbag

import (
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/kv"
)

// Config holds all configuration for a shop.
type Config struct {
	Name        string // Shop name (default "Shop")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Shop description for meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite catalog path (default "data/shop.db")

	BagDriver kv.Driver // Bag storage: sqlite (catalog db), postgres or memory (default sqlite)
	BagDSN    string    // Postgres DSN, or a separate sqlite path for bags
	// SessionBag keeps the bag in the visitor's session cookie first and
	// uses bag storage only when the cookie cannot hold it.
	SessionBag bool

	ShippingFee      float64 // Flat shipping fee (default 2.50)
	FreeShippingOver float64 // Subtotal from which shipping is free (default 60.00)
	ShippingRule     string  // Optional expr rule; overrides the flat fee

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	ProductCacheTTL time.Duration // Catalog cache TTL (default 5min)
	ActionLimit     int           // Bag actions per visitor per minute (default 120)
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Shop"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/shop.db"
	}
	if c.BagDriver == "" {
		c.BagDriver = kv.DriverSQLite
	}
	if c.ShippingFee == 0 {
		c.ShippingFee = 2.50
	}
	if c.FreeShippingOver == 0 {
		c.FreeShippingOver = 60.00
	}
	if c.ProductCacheTTL == 0 {
		c.ProductCacheTTL = 5 * time.Minute
	}
	if c.ActionLimit == 0 {
		c.ActionLimit = 120
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithPages replaces the embedded storefront pages. fsys must contain
// index.html, bag.html and checkout.html.
func WithPages(fsys fs.FS) Option {
	return func(a *App) {
		a.pages = fsys
	}
}

// WithLogger sets the logger (default zap.NewNop).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithBagStore uses s for bag storage instead of opening Config.BagDriver.
func WithBagStore(s kv.Store) Option {
	return func(a *App) {
		a.Bags = s
	}
}

// WithDelegate installs a host cart API consulted before bag storage. The
// function is called once per request.
func WithDelegate(fn func(visitor string) bag.Delegate) Option {
	return func(a *App) {
		a.delegate = fn
	}
}
