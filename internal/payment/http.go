package payment

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/food_order/internal/middleware/auth"
	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/internal/transport"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

type PaymentHTTP struct {
	Svc *Service
}

type Deps struct {
	Payment   *PaymentHTTP
	JWTSecret []byte
	Checker   authmw.SessionChecker
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := authmw.NewSessionMiddleware(d.JWTSecret, d.Checker)

	g := e.Group("", badRequestOnError, authMW.RequireAuth)
	g.POST("/payment-sheet", d.Payment.CreateSheet)
	g.GET("/payment-intents/:id", d.Payment.GetIntent)
}

// badRequestOnError answers every failure, including auth ones, with 400 and
// a JSON error body.
func badRequestOnError(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err == nil {
			return nil
		}
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg = fmt.Sprint(he.Message)
		}
		return c.JSON(http.StatusBadRequest, transport.PaymentErrorResponse{Error: msg})
	}
}

func (h *PaymentHTTP) CreateSheet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_sheet")

	sess, err := session.FromContext(ctx)
	if err != nil {
		l.Warn("create_sheet_error", "status", 400, "reason", "no user found", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "no user found")
	}

	var req transport.PaymentSheetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_sheet_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sheet, err := h.Svc.CreateSheet(ctx, sess, req.Amount)
	if err != nil {
		l.Warn("create_sheet_error", "status", 400, "reason", "payment sheet failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	l.Info("create_sheet_success", "amount", req.Amount, "customer", sheet.Customer)
	return c.JSON(http.StatusOK, sheet)
}

func (h *PaymentHTTP) GetIntent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get_intent")

	sess, err := session.FromContext(ctx)
	if err != nil {
		l.Warn("get_intent_error", "status", 400, "reason", "no user found", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "no user found")
	}

	st, err := h.Svc.IntentStatus(ctx, sess, c.Param("id"))
	if err != nil {
		l.Warn("get_intent_error", "status", 400, "reason", "intent lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	l.Info("get_intent_success", "intent", st.ID, "intent_status", st.Status)
	return c.JSON(http.StatusOK, st)
}
