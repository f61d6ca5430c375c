// Package shopbag is a storefront engine built with Go, Echo, and templ.
// It keeps a visitor's shopping bag consistent across the product grid, the
// mini-cart, the bag page and the checkout page, and across browser tabs.
//
// Storefront pages are plain HTML documents the site authors. On every
// request the engine parses the page, reconciles the bag views it finds
// against the visitor's persisted bag, and serves the result. A small
// client script swaps the updated views in place after each action.
package shopbag

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/checkout"
	"github.com/eringen/shopbag/kv"
	"github.com/eringen/shopbag/notify"
	"github.com/eringen/shopbag/summary"
	"github.com/eringen/shopbag/views"
)

// ViewFuncs holds the templ components the engine renders outside the
// authored storefront pages. Nil fields fall back to DefaultViews.
type ViewFuncs struct {
	ProductGrid       func(products []Product) templ.Component
	OrderConfirmation func(order checkout.Order) templ.Component
	AdminLogin        func(showError bool, csrfToken string) templ.Component
	AdminDashboard    func(products []Product, message string, csrfToken string) templ.Component
	AdminFormPartial  func(p Product, csrfToken string) templ.Component
	AdminImages       func(images []Image, csrfToken string) templ.Component
	NotFound          func() templ.Component
	ServerError       func() templ.Component
}

// DefaultViews returns the built-in components for cfg.
func DefaultViews(cfg Config) ViewFuncs {
	site := views.SiteConfig{Name: cfg.Name, URL: cfg.URL, Description: cfg.Description}
	return ViewFuncs{
		ProductGrid: func(products []Product) templ.Component {
			return views.ProductGrid(site, products)
		},
		OrderConfirmation: func(order checkout.Order) templ.Component {
			return views.OrderConfirmation(site, order)
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return views.AdminLogin(site, showError, csrfToken)
		},
		AdminDashboard: func(products []Product, message, csrfToken string) templ.Component {
			return views.AdminDashboard(site, products, message, csrfToken)
		},
		AdminFormPartial: views.AdminFormPartial,
		AdminImages: func(images []Image, csrfToken string) templ.Component {
			return views.Layout(site, "Images", views.AdminImages(images, csrfToken))
		},
		NotFound:    func() templ.Component { return views.NotFound(site) },
		ServerError: func() templ.Component { return views.ServerError(site) },
	}
}

func (v *ViewFuncs) fill(d ViewFuncs) {
	if v.ProductGrid == nil {
		v.ProductGrid = d.ProductGrid
	}
	if v.OrderConfirmation == nil {
		v.OrderConfirmation = d.OrderConfirmation
	}
	if v.AdminLogin == nil {
		v.AdminLogin = d.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = d.AdminDashboard
	}
	if v.AdminFormPartial == nil {
		v.AdminFormPartial = d.AdminFormPartial
	}
	if v.AdminImages == nil {
		v.AdminImages = d.AdminImages
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
}

// App is the central shopbag application. It wires together the catalog,
// bag storage, change feed, handlers and middleware.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Cache  *ProductCache
	Bags   kv.Store
	Feed   *notify.Feed
	Log    *zap.Logger
	Views  ViewFuncs

	calc          summary.Calculator
	metrics       *metrics
	changes       *notify.Local
	loginLimiter  *RateLimiter
	actionLimiter *RateLimiter
	delegate      func(visitor string) bag.Delegate
	pages         fs.FS
	ownsBags      bool
	customRoutes  []func(*App)
	staticDir     string

	// done is closed on shutdown to end long-lived event streams.
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new App with the given configuration and view functions.
func New(cfg Config, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	v.fill(DefaultViews(cfg))

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     v,
		Log:       zap.NewNop(),
		staticDir: "public",
		done:      make(chan struct{}),
	}
	a.Echo.HideBanner = true
	a.Echo.Server.RegisterOnShutdown(a.stopStreams)

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens storage and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	// Validate required config
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("shopbag: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("shopbag: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("shopbag: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewProductCache(a.Store, a.Config.ProductCacheTTL)

	if err := a.openBags(); err != nil {
		return fmt.Errorf("shopbag: init bag storage: %w", err)
	}

	policy, err := a.shippingPolicy()
	if err != nil {
		return fmt.Errorf("shopbag: %w", err)
	}
	a.calc = summary.NewCalculator(policy)

	a.metrics = newMetrics()
	a.Feed = notify.NewFeed()
	a.Feed.OnSubscribers(func(delta int) {
		a.metrics.subscribers.Add(float64(delta))
	})
	a.changes = notify.NewLocal()
	a.changes.Subscribe(func(ch bag.Change) {
		a.metrics.changes.Inc()
		a.Log.Debug("bag changed", zap.Int64("stamp", ch.Stamp), zap.Int("lines", len(ch.Bag)))
	})

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.actionLimiter = NewRateLimiter(a.Config.ActionLimit, time.Minute)

	if a.pages == nil {
		pages, err := fs.Sub(EmbeddedAssets, "embedded")
		if err != nil {
			return fmt.Errorf("shopbag: embedded pages: %w", err)
		}
		a.pages = pages
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Log.Info("starting shop",
		zap.String("name", a.Config.Name),
		zap.String("addr", a.Config.Addr),
		zap.String("bag_driver", string(a.Config.BagDriver)))
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) openBags() error {
	if a.Bags != nil {
		return nil
	}
	if a.Config.BagDriver == kv.DriverSQLite && a.Config.BagDSN == "" {
		s, err := kv.NewSQLite(a.Store.DB())
		if err != nil {
			return err
		}
		a.Bags = s
		return nil
	}
	s, err := kv.Open(a.Config.BagDriver, a.Config.BagDSN)
	if err != nil {
		return err
	}
	a.Bags = s
	a.ownsBags = true
	return nil
}

func (a *App) shippingPolicy() (summary.ShippingPolicy, error) {
	if a.Config.ShippingRule != "" {
		return summary.NewExprPolicy(a.Config.ShippingRule)
	}
	return summary.FlatRate{Rate: a.Config.ShippingFee, FreeOver: a.Config.FreeShippingOver}, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets first, then the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/shopbag.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/shopbag.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/metrics", echo.WrapHandler(a.metrics.handler()))

	// Storefront
	e.GET("/", a.handlePage(pageIndex))
	e.GET("/bag/", a.handlePage(pageBag))
	e.GET("/checkout/", a.handlePage(pageCheckout))
	e.POST("/checkout/place/", a.handlePlaceOrder)

	// Bag engine
	e.POST("/bag/actions/", a.handleAction)
	e.POST("/bag/reconcile/", a.handleReconcileFragment)
	e.GET("/bag/events/", a.handleEvents)
	e.GET("/api/bag", a.handleBagJSON)
	e.PUT("/api/bag", a.handleBagReplace)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/product/:id/", a.handleAdminProduct)
	e.POST("/admin/save/", a.handleAdminSave)
	e.DELETE("/admin/product/:id/", a.handleAdminDelete)
	e.POST("/admin/product/:id/delete/", a.handleAdminDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.DELETE("/admin/images/:filename/", a.handleImageDelete)
	e.POST("/admin/images/:filename/delete/", a.handleImageDelete)
}

// stopStreams ends every open event stream. http.Server.Shutdown does not
// cancel request contexts, so streams would otherwise hold it open.
func (a *App) stopStreams() {
	a.stopOnce.Do(func() { close(a.done) })
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	a.stopStreams()
	if a.Bags != nil && a.ownsBags {
		a.Bags.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	_ = a.Log.Sync()
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("shopbag: required environment variable %s is not set", key)
	}
	return v
}
