package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_order/internal/checkout"
	"github.com/Skotchmaster/food_order/internal/transport"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

type CheckoutHTTP struct {
	Svc *checkout.Service
}

// Begin starts a checkout and returns the payment sheet the client presents.
func (h *CheckoutHTTP) Begin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.begin")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("checkout_begin_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	co, err := h.Svc.Begin(ctx, sess)
	if err != nil {
		return fail(l, "checkout_begin_error", err)
	}
	return c.JSON(http.StatusCreated, checkoutResponse(co))
}

func (h *CheckoutHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.confirm")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("checkout_confirm_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.ConfirmCheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_confirm_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	co, err := h.Svc.Confirm(ctx, sess, checkout.PaymentResult{
		Completed: req.Completed,
		ErrorCode: req.ErrorCode,
		Message:   req.Message,
	})
	if err != nil {
		return fail(l, "checkout_confirm_error", err)
	}
	return c.JSON(http.StatusOK, checkoutResponse(co))
}

func (h *CheckoutHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.cancel")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("checkout_cancel_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	co, err := h.Svc.Cancel(ctx, sess)
	if err != nil {
		return fail(l, "checkout_cancel_error", err)
	}
	return c.JSON(http.StatusOK, checkoutResponse(co))
}

func (h *CheckoutHTTP) Current(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.current")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("checkout_current_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	co, err := h.Svc.Current(sess)
	if err != nil {
		return fail(l, "checkout_current_error", err)
	}
	return c.JSON(http.StatusOK, checkoutResponse(co))
}

func checkoutResponse(co checkout.Checkout) transport.CheckoutResponse {
	return transport.CheckoutResponse{
		ID:       co.ID,
		Status:   co.Status.String(),
		Amount:   co.Amount,
		Sheet:    co.Sheet,
		OrderID:  co.OrderID,
		Redirect: co.Redirect,
		Error:    co.Err,
	}
}
