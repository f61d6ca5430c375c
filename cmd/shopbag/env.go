package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eringen/shopbag"
	"github.com/eringen/shopbag/kv"
)

// configFromEnv builds the shop configuration. ADMIN_PASSWORD and
// SESSION_SECRET are required.
func configFromEnv() (shopbag.Config, error) {
	cfg := shopbag.Config{
		Name:          shopbag.EnvOr("SHOP_NAME", "Shop"),
		URL:           strings.TrimSuffix(shopbag.EnvOr("SHOP_URL", "http://localhost:3000"), "/"),
		Description:   shopbag.EnvOr("SHOP_DESCRIPTION", ""),
		Addr:          shopbag.EnvOr("ADDR", ":3000"),
		DatabasePath:  shopbag.EnvOr("DATABASE_PATH", "data/shop.db"),
		BagDriver:     kv.Driver(shopbag.EnvOr("BAG_DRIVER", string(kv.DriverSQLite))),
		BagDSN:        shopbag.EnvOr("BAG_DSN", ""),
		SessionBag:    envBool("SESSION_BAG"),
		ShippingRule:  shopbag.EnvOr("SHIPPING_RULE", ""),
		AdminPassword: shopbag.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: shopbag.MustEnv("SESSION_SECRET"),
		CookieSecure:  envBool("COOKIE_SECURE"),
	}
	var err error
	if cfg.ShippingFee, err = envFloat("SHIPPING_FEE", 2.50); err != nil {
		return cfg, err
	}
	if cfg.FreeShippingOver, err = envFloat("FREE_SHIPPING_OVER", 60.00); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envBool(key string) bool {
	return strings.EqualFold(shopbag.EnvOr(key, ""), "true")
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := shopbag.EnvOr(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s: invalid amount %q", key, raw)
	}
	return v, nil
}
