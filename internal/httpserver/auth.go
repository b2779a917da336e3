package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/service"
	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/internal/transport"
	"github.com/Skotchmaster/food_order/pkg/logging"
	"github.com/Skotchmaster/food_order/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", p.ID)
	return c.JSON(http.StatusCreated, profileResponse(p))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	setAuthCookies(c, res)
	l.Info("login_success", "session_id", res.SessionID)
	return c.JSON(http.StatusOK, loginResponse(res))
}

// Refresh reads the refresh token from its cookie, or from the body for mobile clients.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw := ""
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err != nil {
			l.Warn("refresh_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		raw = req.RefreshToken
	}
	if raw == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return fail(l, "refresh_error", err)
	}

	setAuthCookies(c, res)
	l.Info("refresh_success", "session_id", res.SessionID)
	return c.JSON(http.StatusOK, loginResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("logout_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))

	if err := h.Svc.EndSession(ctx, sess.ID); err != nil {
		l.Error("logout_error", "status", 500, "reason", "cannot end session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot end session")
	}

	l.Info("logout_success", "session_id", sess.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	sess, err := currentSession(c)
	if err != nil {
		l.Warn("me_error", "status", 401, "reason", "no session", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	p, err := h.Svc.Me(ctx, sess.UserID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, profileResponse(p))
}

func profileResponse(p *models.Profile) transport.ProfileResponse {
	return transport.ProfileResponse{
		ID:                p.ID,
		Username:          p.Username,
		Role:              p.Role,
		IsAdmin:           p.Role == string(session.RoleAdmin),
		PaymentCustomerID: p.PaymentCustomerID,
	}
}

func setAuthCookies(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func loginResponse(res *service.LoginResult) transport.LoginResponse {
	return transport.LoginResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp.Unix(),
		RefreshExp:   res.RefreshExp.Unix(),
		IsAdmin:      res.IsAdmin,
	}
}
