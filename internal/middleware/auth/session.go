package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/pkg/logging"
	"github.com/Skotchmaster/food_order/pkg/tokens"
)

const (
	CtxUserID  = "user_id"
	CtxRole    = "role"
	CtxSession = "session"
)

// SessionChecker reports whether a session has not been signed out.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID string) (bool, error)
}

type SessionMiddleware struct {
	JWTSecret []byte
	Checker   SessionChecker
	Now       func() time.Time
}

func NewSessionMiddleware(secret []byte, checker SessionChecker) *SessionMiddleware {
	return &SessionMiddleware{
		JWTSecret: secret,
		Checker:   checker,
		Now:       time.Now,
	}
}

type ValidatorFunc func(s session.Session) error

func (m *SessionMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireSessionWithValidator(next, nil)
}

func (m *SessionMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireSessionWithValidator(next, func(s session.Session) error {
		if !s.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *SessionMiddleware) requireSessionWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth.session")

		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		s, err := sessionFromClaims(claims, raw)
		if err != nil || !s.Valid(m.now()) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
		}

		if m.Checker != nil {
			active, err := m.Checker.SessionActive(ctx, s.ID)
			if err != nil {
				l.Error("session_check_failed", "status", 500, "reason", "cannot check session", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot check session")
			}
			if !active {
				return echo.NewHTTPError(http.StatusUnauthorized, "session ended")
			}
		}

		if validator != nil {
			if err := validator(s); err != nil {
				return err
			}
		}

		c.Set(CtxUserID, s.UserID.String())
		c.Set(CtxRole, string(s.Role))
		c.Set(CtxSession, s)
		c.SetRequest(c.Request().WithContext(session.IntoContext(ctx, s)))

		return next(c)
	}
}

func (m *SessionMiddleware) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func sessionFromClaims(claims *tokens.AccessClaims, raw string) (session.Session, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return session.Session{}, err
	}
	role := session.Role(claims.Role)
	if !role.Valid() {
		return session.Session{}, errors.New("unknown role")
	}
	s := session.Session{
		ID:     claims.SessionID,
		UserID: userID,
		Role:   role,
		Token:  raw,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// tokenFromRequest prefers a bearer header, which mobile clients send,
// over the access cookie browsers carry.
func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if v, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(v)
		}
	}
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}
