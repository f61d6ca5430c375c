package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"golang.org/x/net/html"

	"github.com/eringen/shopbag/checkout"
)

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

// Document renders a parsed, reconciled page.
func Document(doc *html.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html.Render(w, doc)
	})
}

// Layout wraps body in the shared page shell.
func Layout(site SiteConfig, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		full := site.Name
		if title != "" {
			full = title + " | " + site.Name
		}
		if err := write(w,
			`<!doctype html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(full), `</title>`,
			`<link rel="stylesheet" href="/public/shopbag.css"></head><body>`,
			`<header class="site-header"><a class="brand" href="/">`, esc(site.Name), `</a>`,
			`<a class="nav-bag" href="/bag/">Bag</a></header><main>`,
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

// ProductGrid renders the product cards. Each card leaves an empty
// .card-cta for the bag controls.
func ProductGrid(site SiteConfig, products []Product) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range products {
			if err := write(w,
				`<article class="product-card" data-id="`, esc(p.ID), `" data-title="`, esc(p.Title),
				`" data-price="`, fixed(p.Price), `">`,
				`<img class="product-image" src="`, esc(ProductImage(p)), `" alt="`, esc(p.Title), `" loading="lazy">`,
				`<h3 class="product-title">`, esc(p.Title), `</h3>`,
				`<p class="product-price">`, money(p.Price), `</p>`,
			); err != nil {
				return err
			}
			if p.Description != "" {
				if err := Description(p.Description).Render(ctx, w); err != nil {
					return err
				}
			}
			if err := write(w,
				`<a class="share-link" href="`, esc(AddLink(site.URL, p, 1)), `">Share</a>`,
				`<div class="card-cta"></div></article>`,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// OrderConfirmation is shown after an order is accepted.
func OrderConfirmation(site SiteConfig, order checkout.Order) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<section class="order-confirmation"><h1>Order placed</h1>`,
			`<p>Thanks `, esc(order.Buyer.Name), `. Total `, money(order.Summary.Total), ` (demo)</p>`,
			`<p class="order-ref">Reference `, esc(order.Reference), `</p><ul class="order-lines">`,
		); err != nil {
			return err
		}
		for _, l := range order.Lines {
			if err := write(w,
				`<li>`, esc(l.Title), ` &times; `, strconv.Itoa(l.Qty), ` <span>`, money(l.Subtotal()), `</span></li>`,
			); err != nil {
				return err
			}
		}
		return write(w,
			`</ul><dl class="order-summary">`,
			`<dt>Subtotal</dt><dd>`, money(order.Summary.Subtotal), `</dd>`,
			`<dt>Shipping</dt><dd>`, money(order.Summary.Shipping), `</dd>`,
			`<dt>Total</dt><dd>`, money(order.Summary.Total), `</dd></dl>`,
			`<a class="continue" href="/">Continue shopping</a></section>`,
		)
	})
	return Layout(site, "Order placed", body)
}

// NotFound is the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return Layout(site, "Not found", templ.Raw(`<section class="error-page"><h1>Page not found</h1><p><a href="/">Back to the shop</a></p></section>`))
}

// ServerError is the 500 page.
func ServerError(site SiteConfig) templ.Component {
	return Layout(site, "Error", templ.Raw(`<section class="error-page"><h1>Something went wrong</h1><p>Please try again in a moment.</p></section>`))
}

func csrfField(token string) string {
	return `<input type="hidden" name="_csrf" value="` + esc(token) + `">`
}

// AdminLogin is the admin password form.
func AdminLogin(site SiteConfig, showError bool, csrfToken string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		msg := ""
		if showError {
			msg = `<p class="form-error">Wrong password.</p>`
		}
		return write(w,
			`<section class="admin-login"><h1>Admin</h1>`, msg,
			`<form method="post" action="/admin/login/">`, csrfField(csrfToken),
			`<label>Password <input type="password" name="password" required autofocus></label>`,
			`<button type="submit">Sign in</button></form></section>`,
		)
	})
	return Layout(site, "Admin", body)
}

// AdminDashboard lists catalog products with an editor for a new one.
func AdminDashboard(site SiteConfig, products []Product, message, csrfToken string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<section class="admin-dashboard"><h1>Products</h1>`); err != nil {
			return err
		}
		if message != "" {
			if err := write(w, `<p class="flash">`, esc(message), `</p>`); err != nil {
				return err
			}
		}
		if err := write(w,
			`<nav class="admin-nav"><a href="/admin/images/">Images</a>`,
			`<form method="post" action="/admin/logout/">`, csrfField(csrfToken), `<button type="submit">Log out</button></form></nav>`,
			`<table class="admin-products"><thead><tr><th>ID</th><th>Title</th><th>Price</th><th>Position</th><th>Active</th><th></th></tr></thead><tbody>`,
		); err != nil {
			return err
		}
		for _, p := range products {
			active := "no"
			if p.Active {
				active = "yes"
			}
			if err := write(w,
				`<tr><td>`, esc(p.ID), `</td><td>`, esc(p.Title), `</td><td>`, money(p.Price), `</td>`,
				`<td>`, strconv.Itoa(p.Position), `</td><td>`, active, `</td>`,
				`<td><a href="/admin/product/`, esc(PathEscape(p.ID)), `/">Edit</a>`,
				`<form method="post" action="/admin/product/`, esc(PathEscape(p.ID)), `/delete/">`, csrfField(csrfToken),
				`<button type="submit">Delete</button></form></td></tr>`,
			); err != nil {
				return err
			}
		}
		if err := write(w, `</tbody></table><h2>New product</h2>`); err != nil {
			return err
		}
		if err := AdminFormPartial(Product{Active: true}, csrfToken).Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</section>`)
	})
	return Layout(site, "Admin", body)
}

// AdminFormPartial is the product editor form.
func AdminFormPartial(p Product, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		checked := ""
		if p.Active {
			checked = " checked"
		}
		return write(w,
			`<form class="product-form" method="post" action="/admin/save/">`, csrfField(csrfToken),
			`<label>ID <input name="id" value="`, esc(p.ID), `" placeholder="generated from title"></label>`,
			`<label>Title <input name="title" value="`, esc(p.Title), `" required></label>`,
			`<label>Price <input name="price" type="number" step="0.01" min="0" value="`, fixed(p.Price), `"></label>`,
			`<label>Image <input name="img" value="`, esc(p.Img), `"></label>`,
			`<label>Position <input name="position" type="number" value="`, strconv.Itoa(p.Position), `"></label>`,
			`<label>Description <textarea name="description" rows="4">`, esc(p.Description), `</textarea></label>`,
			`<label><input type="checkbox" name="active" value="1"`, checked, `> Active</label>`,
			`<button type="submit">Save</button></form>`,
		)
	})
}

// AdminImages lists uploaded product images with an upload form.
func AdminImages(images []Image, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<section class="admin-images"><h1>Images</h1><p><a href="/admin/">Back to products</a></p>`,
			`<form method="post" action="/admin/images/upload/" enctype="multipart/form-data">`, csrfField(csrfToken),
			`<input type="file" name="image" accept="image/*" required><button type="submit">Upload</button></form><ul>`,
		); err != nil {
			return err
		}
		for _, img := range images {
			src := "/public/uploads/" + PathEscape(img.Filename)
			if err := write(w,
				`<li><img src="`, esc(src), `" width="120" alt="`, esc(img.OriginalName), `">`,
				`<code>`, esc(src), `</code> `, fmt.Sprintf("%dx%d, %d KB", img.Width, img.Height, img.Size/1024),
				`<form method="post" action="/admin/images/`, esc(PathEscape(img.Filename)), `/delete/">`, csrfField(csrfToken),
				`<button type="submit">Delete</button></form></li>`,
			); err != nil {
				return err
			}
		}
		return write(w, `</ul></section>`)
	})
}
