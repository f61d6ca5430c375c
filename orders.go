package shopbag

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/shopbag/checkout"
	"github.com/eringen/shopbag/dispatch"
)

// NoticeMissingFields is shown when the checkout form lacks a required field.
const NoticeMissingFields = "Please fill Name, Phone and Address"

// orderNotice returns the text shown for a rejected order, or "" when err
// is not a rejection.
func orderNotice(err error) string {
	switch {
	case errors.Is(err, checkout.ErrMissingFields):
		return NoticeMissingFields
	case errors.Is(err, checkout.ErrEmptyBag):
		return dispatch.NoticeEmptyBag
	default:
		return ""
	}
}

// handlePlaceOrder accepts the checkout form. A rejected order re-renders
// the checkout page with the reason; an accepted one clears the bag.
func (a *App) handlePlaceOrder(c echo.Context) error {
	st, err := a.bagFor(c)
	if err != nil {
		return err
	}
	buyer := checkout.Buyer{
		Name:    c.FormValue("name"),
		Phone:   c.FormValue("phone"),
		Address: c.FormValue("address"),
		Email:   c.FormValue("email"),
		Notes:   c.FormValue("notes"),
	}
	order, err := checkout.Place(st, a.calc, buyer)
	if notice := orderNotice(err); notice != "" {
		doc, perr := a.loadPage(c, pageCheckout)
		if perr != nil {
			return perr
		}
		return a.renderPage(c, http.StatusUnprocessableEntity, doc, st, notice)
	}
	if err != nil {
		return err
	}
	a.Log.Info("order placed",
		zap.String("reference", order.Reference),
		zap.Int("items", order.Summary.Quantity),
		zap.Float64("total", order.Summary.Total))
	return Render(c, a.Views.OrderConfirmation(order))
}
