package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/repo"
	"github.com/Skotchmaster/food_order/internal/session"
	pkg_hash "github.com/Skotchmaster/food_order/pkg/hash"
	"github.com/Skotchmaster/food_order/pkg/logging"
	"github.com/Skotchmaster/food_order/pkg/tokens"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Hooks         *session.Hooks
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
	SessionID    string
}

func (h *AuthService) Register(ctx context.Context, username, password string) (*models.Profile, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	p := &models.Profile{
		Username:     username,
		PasswordHash: pwHash,
		Role:         string(session.RoleRegular),
	}
	if err := h.Repo.CreateProfileIfNotExists(ctx, p); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) || errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user already exist", ErrConflict)
		}
		l.Error("register_error", "status", 500, "reason", "cannot create profile", "error", err)
		return nil, err
	}
	return p, nil
}

// Login starts a new session.
func (h *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	p, err := h.Repo.FindProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(p.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res, token, err := h.issue(p, uuid.NewString())
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}
	if err := h.Repo.AddRefresh(ctx, token); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}
	return res, nil
}

// Refresh rotates the refresh token. The session id carries over.
func (h *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, h.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	stored, err := h.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: not found", ErrInvalidRefreshToken)
		}
		return nil, err
	}
	if stored.Token != tokens.Sha256Hex(refreshToken) {
		return nil, fmt.Errorf("%w: token mismatch", ErrInvalidRefreshToken)
	}

	p, err := h.Repo.GetProfile(ctx, stored.UserID)
	if err != nil {
		return nil, mapRepoErr(err, "profile")
	}

	res, token, err := h.issue(p, stored.SessionID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}
	if err := h.Repo.RotateRefreshToken(ctx, claims.ID, token); err != nil {
		if errors.Is(err, repo.ErrTokenExpiredOrRevoked) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
		}
		return nil, err
	}
	return res, nil
}

// EndSession revokes the session's refresh tokens and runs the session end hooks.
func (h *AuthService) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := h.Repo.RevokeSession(ctx, sessionID); err != nil {
		return err
	}
	if h.Hooks != nil {
		h.Hooks.End(sessionID)
	}
	return nil
}

func (h *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := h.Repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "profile")
	}
	return p, nil
}

func (h *AuthService) issue(p *models.Profile, sessionID string) (*LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(ttlOr(h.AccessTTL, DefaultAccessTTL))
	refreshExp := now.Add(ttlOr(h.RefreshTTL, DefaultRefreshTTL))

	access, err := tokens.NewAccessToken(h.JWTSecret, p.ID.String(), p.Role, sessionID, accessExp)
	if err != nil {
		return nil, nil, err
	}
	jti := tokens.NewJTI()
	refresh, err := tokens.NewRefreshToken(h.RefreshSecret, p.ID.String(), jti, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	row := &models.RefreshToken{
		Token:     tokens.Sha256Hex(refresh),
		UserID:    p.ID,
		JTI:       jti,
		SessionID: sessionID,
		ExpiresAt: refreshExp.Unix(),
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      p.Role == string(session.RoleAdmin),
		SessionID:    sessionID,
	}, row, nil
}

func ttlOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
