package shopbag

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/directive"
	"github.com/eringen/shopbag/dispatch"
	"github.com/eringen/shopbag/reconcile"
)

const (
	pageIndex    = "index.html"
	pageBag      = "bag.html"
	pageCheckout = "checkout.html"

	productGridID = "product-grid"
)

// pagePaths maps each storefront page to the path it is served at.
var pagePaths = map[string]string{
	pageIndex:    "/",
	pageBag:      "/bag/",
	pageCheckout: dispatch.CheckoutPath,
}

// pageByName resolves the page a client says it is showing. Accepts the
// file name, the bare name or the served path; anything else is the index.
func pageByName(name string) string {
	for file, p := range pagePaths {
		if name == file || name == p || name+".html" == file {
			return file
		}
	}
	return pageIndex
}

// notices are the short codes a plain redirect carries in ?notice=.
var notices = map[string]string{
	"empty-bag": dispatch.NoticeEmptyBag,
}

func noticeCode(text string) string {
	for code, t := range notices {
		if t == text {
			return code
		}
	}
	return ""
}

// loadPage parses a storefront page and fills in the parts that come from
// the server: the catalog grid and the CSRF field of every posting form.
func (a *App) loadPage(c echo.Context, name string) (*html.Node, error) {
	f, err := a.pages.Open(path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", name, err)
	}
	defer f.Close()
	doc, err := reconcile.ParseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", name, err)
	}

	if grid := reconcile.FindByID(doc, productGridID); grid != nil {
		products, err := a.Cache.ListProducts()
		if err != nil {
			return nil, err
		}
		if len(products) > 0 {
			var buf bytes.Buffer
			if err := a.Views.ProductGrid(products).Render(c.Request().Context(), &buf); err != nil {
				return nil, err
			}
			if err := reconcile.SetInnerHTML(grid, buf.String()); err != nil {
				return nil, err
			}
		}
	}
	if err := reconcile.PostFormField(doc, "_csrf", CsrfToken(c)); err != nil {
		return nil, err
	}
	return doc, nil
}

// renderPage reconciles every bag view in doc against the visitor's bag and
// writes the page.
func (a *App) renderPage(c echo.Context, code int, doc *html.Node, st *bag.Store, notice string) error {
	b, err := st.Load()
	if err != nil {
		return err
	}
	sum, err := a.calc.Calculate(b)
	if err != nil {
		return err
	}
	rep, err := reconcile.Page(doc, b, sum)
	a.metrics.observeReport(rep)
	if err != nil {
		return err
	}
	if notice != "" {
		reconcile.Notice(doc, notice)
	}
	return RenderDocument(c, code, doc)
}

// handlePage serves a storefront page. A URL carrying an add directive
// applies it and redirects to the same URL without it, so reloading or
// sharing the result does not add the item again.
func (a *App) handlePage(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		st, err := a.bagFor(c)
		if err != nil {
			return err
		}
		doc, err := a.loadPage(c, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return echo.ErrNotFound
			}
			return err
		}

		if d, ok := directive.Parse(c.QueryParams()); ok {
			src := productSources{a.Cache, reconcile.ProductCards(doc)}
			if err := directive.Apply(st, d, src); err != nil {
				return err
			}
			a.Log.Info("bag directive applied",
				zap.String("id", d.ID),
				zap.Int("qty", d.Qty),
				zap.String("page", name))
			return c.Redirect(http.StatusSeeOther, directive.Strip(c.Request().URL))
		}

		return a.renderPage(c, http.StatusOK, doc, st, notices[c.QueryParam("notice")])
	}
}
