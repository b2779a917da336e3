// Package session carries the signed-in caller through request handling.
//
// A Session is created at sign-in, travels in the request context and is
// passed explicitly to cart, checkout and payment calls. Sign-out ends it
// and runs the registered end hooks.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleRegular
}

var ErrNoSession = errors.New("no session")

type Session struct {
	ID        string
	UserID    uuid.UUID
	Role      Role
	Token     string
	ExpiresAt time.Time
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s Session) Valid(now time.Time) bool {
	return s.ID != "" && s.UserID != uuid.Nil && now.Before(s.ExpiresAt)
}

type ctxKey struct{}

func IntoContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Hooks holds callbacks run when a session ends.
type Hooks struct {
	mu  sync.RWMutex
	fns []func(sessionID string)
}

func (h *Hooks) OnEnd(fn func(sessionID string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

func (h *Hooks) End(sessionID string) {
	h.mu.RLock()
	fns := append([]func(string){}, h.fns...)
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(sessionID)
	}
}
