package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunInitWritesPages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	if err := runInit(dir); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}
	for _, name := range []string{"index.html", "bag.html", "checkout.html", "shopbag.js", "shopbag.css"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}
	if err := runInit(dir); err == nil {
		t.Fatalf("expected an error for an existing directory")
	}
}

func TestEnvFloat(t *testing.T) {
	t.Setenv("SHIPPING_FEE", "")
	if v, err := envFloat("SHIPPING_FEE", 2.5); err != nil || v != 2.5 {
		t.Errorf("envFloat default = %v, %v", v, err)
	}
	t.Setenv("SHIPPING_FEE", "4.75")
	if v, err := envFloat("SHIPPING_FEE", 2.5); err != nil || v != 4.75 {
		t.Errorf("envFloat = %v, %v", v, err)
	}
	t.Setenv("SHIPPING_FEE", "-1")
	if _, err := envFloat("SHIPPING_FEE", 2.5); err == nil {
		t.Errorf("expected negative fee to be rejected")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
	if _, err := newLogger("debug"); err != nil {
		t.Fatalf("newLogger(debug) failed: %v", err)
	}
}
