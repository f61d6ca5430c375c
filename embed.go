package shopbag

import "embed"

// EmbeddedAssets contains the default storefront shipped with the engine:
// index.html, bag.html, checkout.html, shopbag.js and shopbag.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
