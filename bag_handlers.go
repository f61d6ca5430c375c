package shopbag

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/shopbag/bag"
	"github.com/eringen/shopbag/dispatch"
	"github.com/eringen/shopbag/kv"
	"github.com/eringen/shopbag/notify"
	"github.com/eringen/shopbag/reconcile"
	"github.com/eringen/shopbag/summary"
)

const (
	// HeaderBagRequest marks requests sent by the bag script; they get the
	// reconciled page back instead of a redirect.
	HeaderBagRequest = "X-Bag-Request"
	HeaderNotice     = "X-Bag-Notice"
	HeaderRedirect   = "X-Bag-Redirect"

	eventKeepAlive = 25 * time.Second
	maxBagBody     = 1 << 20
)

func isBagRequest(c echo.Context) bool {
	return c.Request().Header.Get(HeaderBagRequest) == "true"
}

// bagFor builds the bag store for the visitor behind c. Committed changes go
// to the app-wide observers and to the visitor's other tabs.
func (a *App) bagFor(c echo.Context) (*bag.Store, error) {
	visitor, err := VisitorID(c)
	if err != nil {
		return nil, err
	}
	opts := []bag.Option{
		bag.WithNotifier(notify.Fanout(a.changes, a.Feed.Notifier(visitor, tabID(c)))),
		bag.WithHooks(a.bagHooks(visitor)),
	}
	switch {
	case a.delegate != nil:
		opts = append(opts, bag.WithDelegate(a.delegate(visitor)))
	case a.Config.SessionBag:
		d, err := newSessionDelegate(c)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bag.WithDelegate(d))
	}
	return bag.NewStore(kv.Scope(a.Bags, visitor), opts...), nil
}

func (a *App) bagHooks(visitor string) bag.Hooks {
	return bag.Hooks{
		Fallback: func(op string, err error) {
			a.metrics.fallbacks.WithLabelValues(op).Inc()
			a.Log.Warn("bag delegate failed, using bag storage",
				zap.String("visitor", visitor),
				zap.String("op", op),
				zap.Error(err))
		},
		Recovered: func(err error) {
			a.metrics.recoveries.Inc()
			a.Log.Warn("discarded corrupt bag",
				zap.String("visitor", visitor),
				zap.Error(err))
		},
	}
}

func actionStatus(code dispatch.StatusCode) int {
	switch code {
	case dispatch.StatusInvalidArgument:
		return http.StatusBadRequest
	case dispatch.StatusFailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func outcomeLabel(out dispatch.Outcome) string {
	switch {
	case out.Blocked:
		return "blocked"
	case out.Redirect != "":
		return "redirect"
	case out.Changed:
		return "changed"
	default:
		return "noop"
	}
}

// handleAction runs one bag control action. Script requests get the page
// the control lives on, reconciled after the change; plain form posts are
// redirected back to it.
func (a *App) handleAction(c echo.Context) error {
	visitor, err := VisitorID(c)
	if err != nil {
		return err
	}
	if !a.actionLimiter.Allow(visitor) {
		return c.String(http.StatusTooManyRequests, "Too many bag updates. Slow down a little.")
	}
	st, err := a.bagFor(c)
	if err != nil {
		return err
	}
	page := pageByName(c.FormValue("page"))
	doc, err := a.loadPage(c, page)
	if err != nil {
		return err
	}

	req := dispatch.Request{
		Action: dispatch.Action(c.FormValue("action")),
		ID:     c.FormValue("id"),
		Value:  c.FormValue("value"),
	}
	label := string(req.Action)
	if !slices.Contains(dispatch.Actions(), req.Action) {
		label = "unknown"
	}

	d := dispatch.New(st, productSources{a.Cache, reconcile.ProductCards(doc)})
	out, err := d.Dispatch(req)
	if err != nil {
		var ae *dispatch.ActionError
		if errors.As(err, &ae) {
			a.metrics.actions.WithLabelValues(label, "rejected").Inc()
			return c.String(actionStatus(ae.Code), ae.Message)
		}
		a.metrics.actions.WithLabelValues(label, "error").Inc()
		return err
	}
	a.metrics.actions.WithLabelValues(label, outcomeLabel(out)).Inc()

	if !isBagRequest(c) {
		if out.Redirect != "" {
			return c.Redirect(http.StatusSeeOther, out.Redirect)
		}
		target := pagePaths[page]
		if code := noticeCode(out.Notice); code != "" {
			target += "?notice=" + code
		}
		return c.Redirect(http.StatusSeeOther, target)
	}

	if out.Redirect != "" {
		c.Response().Header().Set(HeaderRedirect, out.Redirect)
		return c.NoContent(http.StatusNoContent)
	}
	if out.Notice != "" {
		c.Response().Header().Set(HeaderNotice, out.Notice)
	}
	return a.renderPage(c, http.StatusOK, doc, st, out.Notice)
}

// handleReconcileFragment reconciles a single view's container markup sent
// by the script, for pages the server did not render.
func (a *App) handleReconcileFragment(c echo.Context) error {
	l, ok := reconcile.LayoutByName(c.FormValue("view"))
	if !ok {
		return c.String(http.StatusBadRequest, "Unknown view")
	}
	st, err := a.bagFor(c)
	if err != nil {
		return err
	}
	b, err := st.Load()
	if err != nil {
		return err
	}
	out, rep, err := reconcile.Fragment(l, c.FormValue("html"), b)
	a.metrics.observeReport(rep)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid markup")
	}
	return c.HTML(http.StatusOK, out)
}

type stampEvent struct {
	Stamp int64 `json:"stamp"`
}

// handleEvents streams change stamps for the visitor's bag to one tab.
// Changes made by that tab are not sent back to it.
func (a *App) handleEvents(c echo.Context) error {
	visitor, err := VisitorID(c)
	if err != nil {
		return err
	}
	sub := a.Feed.Subscribe(visitor, tabID(c))
	defer sub.Close()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(eventKeepAlive)
	defer ticker.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.done:
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			data, err := json.Marshal(stampEvent{Stamp: ev.Stamp})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: bag\ndata: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

type bagResponse struct {
	Lines    bag.Bag `json:"lines"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

func (a *App) bagJSON(c echo.Context, b bag.Bag) error {
	sum, err := a.calc.Calculate(b)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newBagResponse(b, sum))
}

func newBagResponse(b bag.Bag, s summary.Summary) bagResponse {
	if b == nil {
		b = bag.Bag{}
	}
	return bagResponse{
		Lines:    b,
		Quantity: s.Quantity,
		Subtotal: s.Subtotal,
		Shipping: s.Shipping,
		Total:    s.Total,
	}
}

func (a *App) handleBagJSON(c echo.Context) error {
	st, err := a.bagFor(c)
	if err != nil {
		return err
	}
	b, err := st.Load()
	if err != nil {
		return err
	}
	return a.bagJSON(c, b)
}

// handleBagReplace overwrites the bag with the posted JSON array. Entries
// are normalized the same way persisted data is.
func (a *App) handleBagReplace(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBagBody))
	if err != nil {
		return err
	}
	b, err := bag.Decode(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bag must be a JSON array"})
	}
	st, err := a.bagFor(c)
	if err != nil {
		return err
	}
	if err := st.Save(b); err != nil {
		return err
	}
	saved, err := st.Load()
	if err != nil {
		return err
	}
	return a.bagJSON(c, saved)
}
