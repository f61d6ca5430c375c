package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/eringen/shopbag"
)

// runInit writes the embedded storefront into dir so a site can edit its
// pages and serve them with PAGES_DIR.
func runInit(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	fmt.Printf("Creating storefront pages in %s\n\n", dir)

	root := "embedded"
	err := fs.WalkDir(shopbag.EmbeddedAssets, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(dir, relPath)
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		content, err := shopbag.EmbeddedAssets.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := os.WriteFile(outPath, content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		fmt.Printf("  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  edit %s/*.html\n", dir)
	fmt.Printf("  PAGES_DIR=%s ADMIN_PASSWORD=... SESSION_SECRET=... shopbag serve\n", dir)
	return nil
}
