package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/pkg/tokens"
)

var testSecret = []byte("test-jwt-secret")

type fakeChecker struct {
	active bool
	err    error
	asked  []string
}

func (f *fakeChecker) SessionActive(_ context.Context, sessionID string) (bool, error) {
	f.asked = append(f.asked, sessionID)
	return f.active, f.err
}

func newToken(t *testing.T, role string, exp time.Time) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	tok, err := tokens.NewAccessToken(testSecret, userID.String(), role, "sid-1", exp)
	require.NoError(t, err)
	return tok, userID
}

func newContext(bearer string, cookie *http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth_BearerSetsSession(t *testing.T) {
	t.Parallel()

	tok, userID := newToken(t, "regular", time.Now().Add(time.Minute))
	checker := &fakeChecker{active: true}
	mw := NewSessionMiddleware(testSecret, checker)

	c, _ := newContext(tok, nil)
	var got session.Session
	err := mw.RequireAuth(func(c echo.Context) error {
		var err error
		got, err = session.FromContext(c.Request().Context())
		return err
	})(c)

	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "sid-1", got.ID)
	assert.Equal(t, session.RoleRegular, got.Role)
	assert.Equal(t, tok, got.Token)
	assert.Equal(t, userID.String(), c.Get(CtxUserID))
	assert.Equal(t, []string{"sid-1"}, checker.asked)
}

func TestRequireAuth_CookieFallback(t *testing.T) {
	t.Parallel()

	tok, _ := newToken(t, "admin", time.Now().Add(time.Minute))
	mw := NewSessionMiddleware(testSecret, nil)

	c, _ := newContext("", &http.Cookie{Name: tokens.AccessCookie, Value: tok})
	called := false
	require.NoError(t, mw.RequireAdmin(func(c echo.Context) error {
		called = true
		return nil
	})(c))
	assert.True(t, called)
}

func TestRequireAuth_Rejects(t *testing.T) {
	t.Parallel()

	valid, _ := newToken(t, "regular", time.Now().Add(time.Minute))
	expired, _ := newToken(t, "regular", time.Now().Add(-time.Minute))
	badRole, _ := newToken(t, "ADMIN", time.Now().Add(time.Minute))

	tests := []struct {
		name    string
		token   string
		checker *fakeChecker
		admin   bool
		want    int
	}{
		{name: "missing", token: "", want: http.StatusUnauthorized},
		{name: "garbage", token: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "expired", token: expired, want: http.StatusUnauthorized},
		{name: "unknown role", token: badRole, want: http.StatusUnauthorized},
		{name: "signed out", token: valid, checker: &fakeChecker{active: false}, want: http.StatusUnauthorized},
		{name: "checker error", token: valid, checker: &fakeChecker{err: errors.New("db down")}, want: http.StatusInternalServerError},
		{name: "not admin", token: valid, admin: true, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := NewSessionMiddleware(testSecret, nil)
			if tt.checker != nil {
				mw.Checker = tt.checker
			}
			c, _ := newContext(tt.token, nil)
			next := func(c echo.Context) error { return nil }

			var err error
			if tt.admin {
				err = mw.RequireAdmin(next)(c)
			} else {
				err = mw.RequireAuth(next)(c)
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, statusOf(t, err))
		})
	}
}
