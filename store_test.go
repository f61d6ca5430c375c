package shopbag

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "test_shop.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
	}

	return s, cleanup
}

func TestNewStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.DB() == nil {
		t.Fatal("db should not be nil")
	}
}

func TestNewStoreIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if err := s.SaveProduct(Product{ID: "p1", Title: "Kept", Price: 1, Active: true}); err != nil {
		t.Fatalf("SaveProduct failed: %v", err)
	}
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.GetProduct("p1"); err != nil {
		t.Fatalf("product lost after reopen: %v", err)
	}
}

func TestSaveAndGetProduct(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	p := Product{
		ID:          "sunscreen-spf50",
		Title:       "Sunscreen SPF50",
		Price:       12.5,
		Img:         "/public/uploads/sunscreen.jpg",
		Description: "Water **resistant**.",
		Position:    2,
		Active:      true,
	}
	if err := s.SaveProduct(p); err != nil {
		t.Fatalf("SaveProduct failed: %v", err)
	}

	got, err := s.GetProduct("sunscreen-spf50")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got != p {
		t.Errorf("GetProduct = %+v, want %+v", got, p)
	}
}

func TestSaveProductUpserts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if err := s.SaveProduct(Product{ID: "hat", Title: "Hat", Price: 10, Active: true}); err != nil {
		t.Fatalf("SaveProduct failed: %v", err)
	}
	if err := s.SaveProduct(Product{ID: "hat", Title: "Straw Hat", Price: 18.9, Active: true}); err != nil {
		t.Fatalf("SaveProduct failed: %v", err)
	}

	all, err := s.ListAllProducts()
	if err != nil {
		t.Fatalf("ListAllProducts failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 product, got %d", len(all))
	}
	if all[0].Title != "Straw Hat" || all[0].Price != 18.9 {
		t.Errorf("product not updated: %+v", all[0])
	}
}

func TestSaveProductClampsNegativePrice(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if err := s.SaveProduct(Product{ID: "free", Title: "Free", Price: -3, Active: true}); err != nil {
		t.Fatalf("SaveProduct failed: %v", err)
	}
	got, err := s.GetProduct("free")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.Price != 0 {
		t.Errorf("Price = %v, want 0", got.Price)
	}
}

func TestInactiveProductsAreHidden(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	s.SaveProduct(Product{ID: "on", Title: "On", Active: true})
	s.SaveProduct(Product{ID: "off", Title: "Off", Active: false})

	listed, err := s.ListProducts()
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "on" {
		t.Errorf("ListProducts = %+v, want only the active product", listed)
	}

	if _, err := s.GetProduct("off"); err != sql.ErrNoRows {
		t.Errorf("GetProduct(off) error = %v, want sql.ErrNoRows", err)
	}
	got, err := s.GetProductAny("off")
	if err != nil {
		t.Fatalf("GetProductAny failed: %v", err)
	}
	if got.Active {
		t.Errorf("expected product to be inactive")
	}

	all, err := s.ListAllProducts()
	if err != nil {
		t.Fatalf("ListAllProducts failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAllProducts returned %d products, want 2", len(all))
	}
}

func TestListProductsOrder(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	s.SaveProduct(Product{ID: "c", Title: "Charlie", Position: 2, Active: true})
	s.SaveProduct(Product{ID: "b", Title: "Bravo", Position: 1, Active: true})
	s.SaveProduct(Product{ID: "a", Title: "Alpha", Position: 2, Active: true})

	products, err := s.ListProducts()
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	want := []string{"b", "a", "c"}
	if len(products) != len(want) {
		t.Fatalf("got %d products, want %d", len(products), len(want))
	}
	for i, id := range want {
		if products[i].ID != id {
			t.Errorf("products[%d] = %q, want %q", i, products[i].ID, id)
		}
	}
}

func TestDeleteProduct(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	s.SaveProduct(Product{ID: "gone", Title: "Gone", Active: true})
	if err := s.DeleteProduct("gone"); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if _, err := s.GetProductAny("gone"); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestImages(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	older := Image{Filename: "a.jpg", OriginalName: "a.png", Width: 800, Height: 600, Size: 2048, UploadedAt: "2024-01-01T00:00:00Z"}
	newer := Image{Filename: "b.jpg", OriginalName: "b.png", Width: 400, Height: 300, Size: 1024, UploadedAt: "2024-02-01T00:00:00Z"}
	for _, img := range []Image{older, newer} {
		if err := s.SaveImage(img); err != nil {
			t.Fatalf("SaveImage failed: %v", err)
		}
	}

	images, err := s.ListImages()
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 2 || images[0] != newer || images[1] != older {
		t.Errorf("ListImages = %+v, want newest first", images)
	}

	exists, err := s.ImageExists("a.jpg")
	if err != nil || !exists {
		t.Errorf("ImageExists(a.jpg) = %v, %v", exists, err)
	}
	if err := s.DeleteImage("a.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	exists, _ = s.ImageExists("a.jpg")
	if exists {
		t.Errorf("expected a.jpg to be deleted")
	}
}

func TestProductCache(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	s.SaveProduct(Product{ID: "towel", Title: "Beach Towel", Price: 24, Img: "/t.jpg", Active: true})
	c := NewProductCache(s, time.Minute)

	p, ok := c.LookupProduct("towel")
	if !ok {
		t.Fatal("expected towel to be found")
	}
	if p.Title != "Beach Towel" || p.Price != 24 || p.Img != "/t.jpg" {
		t.Errorf("LookupProduct = %+v", p)
	}
	if _, ok := c.LookupProduct("missing"); ok {
		t.Errorf("expected missing product lookup to fail")
	}

	// Served from cache until invalidated.
	s.SaveProduct(Product{ID: "hat", Title: "Hat", Active: true})
	if _, err := c.GetProduct("hat"); err != ErrNotFound {
		t.Errorf("expected stale cache to miss hat, got %v", err)
	}
	c.Invalidate()
	if _, err := c.GetProduct("hat"); err != nil {
		t.Errorf("expected hat after invalidate, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Sunscreen SPF50": "sunscreen-spf50",
		"  Straw  Hat!! ": "straw-hat",
		"Beach -- Towel":  "beach-towel",
		"":                "",
		"***":             "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
