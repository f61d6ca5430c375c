package shopbag

import (
	"database/sql"
	"sync"
	"time"

	"github.com/eringen/shopbag/bag"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = sql.ErrNoRows

// ProductCache is an in-memory cache of the active catalog with TTL.
type ProductCache struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]Product
	fetched  time.Time
	ttl      time.Duration
	store    *Store
}

// NewProductCache creates a ProductCache backed by the given Store.
func NewProductCache(s *Store, ttl time.Duration) *ProductCache {
	return &ProductCache{store: s, ttl: ttl}
}

func (c *ProductCache) valid() bool {
	return c.byID != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ProductCache) Invalidate() {
	c.mu.Lock()
	c.products = nil
	c.byID = nil
	c.mu.Unlock()
}

func (c *ProductCache) load() error {
	if c.valid() {
		return nil
	}
	products, err := c.store.ListProducts()
	if err != nil {
		return err
	}
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	c.products = products
	c.byID = byID
	c.fetched = time.Now()
	return nil
}

// ensureLoaded tries a read lock first and only takes the write lock when
// a reload is needed.
func (c *ProductCache) ensureLoaded() ([]Product, map[string]Product, error) {
	c.mu.RLock()
	if c.valid() {
		products, byID := c.products, c.byID
		c.mu.RUnlock()
		return products, byID, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.products, c.byID, nil
}

// ListProducts returns the active catalog in display order.
func (c *ProductCache) ListProducts() ([]Product, error) {
	products, _, err := c.ensureLoaded()
	return products, err
}

// GetProduct returns an active product by id.
func (c *ProductCache) GetProduct(id string) (Product, error) {
	_, byID, err := c.ensureLoaded()
	if err != nil {
		return Product{}, err
	}
	p, ok := byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// LookupProduct implements bag.ProductSource over the catalog.
func (c *ProductCache) LookupProduct(id string) (bag.Product, bool) {
	p, err := c.GetProduct(id)
	if err != nil {
		return bag.Product{}, false
	}
	return bag.Product{ID: p.ID, Title: p.Title, Price: p.Price, Img: p.Img}, true
}
