package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/food_order/internal/models"
)

var ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")

func (r *GormRepo) AddRefresh(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.DB.WithContext(ctx).Create(token).Error)
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func refreshExpiredOrRevoked(db *gorm.DB, jti string) (bool, error) {
	var refresh models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&refresh).Error; err != nil {
		return false, err
	}
	return refresh.ExpiresAt < time.Now().Unix() || refresh.Revoked, nil
}

// RotateRefreshToken revokes oldJTI and stores newToken, failing if oldJTI was already used.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, newToken *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired, err := refreshExpiredOrRevoked(tx, oldJTI)
		if err != nil {
			return err
		}
		if expired {
			return ErrTokenExpiredOrRevoked
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenExpiredOrRevoked
		}

		return translate(tx.Create(newToken).Error)
	})
}

// RevokeSession revokes every refresh token issued for the session.
func (r *GormRepo) RevokeSession(ctx context.Context, sessionID string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("session_id = ?", sessionID).
		Update("revoked", true).Error
}

// SessionActive reports whether the session still has a live refresh token.
func (r *GormRepo) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("session_id = ? AND revoked = ? AND expires_at > ?", sessionID, false, time.Now().Unix()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
