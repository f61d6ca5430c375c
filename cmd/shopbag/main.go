package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/shopbag"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "init":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: shopbag init <dir>")
			os.Exit(1)
		}
		if err := runInit(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("shopbag %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shopbag - A storefront with a shopping bag that stays in sync across pages and tabs

Usage:
  shopbag <command> [arguments]

Commands:
  serve         Start the shop (configured from environment variables)
  init <dir>    Copy the default storefront pages into dir for editing
  version       Print the shopbag version
  help          Show this help message

Environment:
  SHOP_NAME, SHOP_URL, ADDR, DATABASE_PATH, PAGES_DIR
  BAG_DRIVER (sqlite|postgres|memory), BAG_DSN, SESSION_BAG
  SHIPPING_FEE, FREE_SHIPPING_OVER, SHIPPING_RULE
  ADMIN_PASSWORD (required), SESSION_SECRET (required), COOKIE_SECURE
  LOG_LEVEL (debug|info|warn|error)`)
}

func runServe() error {
	logger, err := newLogger(shopbag.EnvOr("LOG_LEVEL", "info"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}

	opts := []shopbag.Option{shopbag.WithLogger(logger)}
	if dir := os.Getenv("PAGES_DIR"); dir != "" {
		opts = append(opts, shopbag.WithPages(os.DirFS(dir)))
	}

	app := shopbag.New(cfg, shopbag.ViewFuncs{}, opts...)
	defer app.Close()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
