package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/food_order/internal/models"
)

var ErrUserAlreadyExist = errors.New("user already exist")

func (r *GormRepo) CreateProfileIfNotExists(ctx context.Context, p *models.Profile) error {
	tx := r.DB.WithContext(ctx).Where("username = ?", p.Username).FirstOrCreate(p)
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) FindProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) SetPaymentCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return r.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("payment_customer_id", customerID).Error
}
