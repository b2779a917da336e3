// Package payment is the payment-sheet function: it resolves the caller's
// gateway customer and opens payment intents for the mobile payment UI.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/internal/transport"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

var (
	ErrInvalidAmount   = errors.New("amount must be a positive number of minor units")
	ErrProfileNotFound = errors.New("profile not found")
	ErrIntentNotFound  = errors.New("payment intent not found")
)

type Profiles interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	SetPaymentCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}

type Service struct {
	Gateway        Gateway
	Profiles       Profiles
	PublishableKey string
	Currency       string
}

func (s *Service) CreateSheet(ctx context.Context, sess session.Session, amount int64) (transport.PaymentSheet, error) {
	if amount <= 0 {
		return transport.PaymentSheet{}, ErrInvalidAmount
	}

	customerID, err := s.customer(ctx, sess.UserID)
	if err != nil {
		return transport.PaymentSheet{}, err
	}

	ephemeralKey, err := s.Gateway.CreateEphemeralKey(ctx, customerID)
	if err != nil {
		return transport.PaymentSheet{}, fmt.Errorf("create ephemeral key: %w", err)
	}

	secret, err := s.Gateway.CreatePaymentIntent(ctx, customerID, amount, s.currency())
	if err != nil {
		return transport.PaymentSheet{}, fmt.Errorf("create payment intent: %w", err)
	}

	return transport.PaymentSheet{
		PaymentIntent:  secret,
		PublishableKey: s.PublishableKey,
		Customer:       customerID,
		EphemeralKey:   ephemeralKey,
	}, nil
}

// IntentStatus reports an intent that belongs to the caller's customer.
// Intents of other customers look exactly like missing ones.
func (s *Service) IntentStatus(ctx context.Context, sess session.Session, intentID string) (transport.PaymentIntentStatus, error) {
	if intentID == "" {
		return transport.PaymentIntentStatus{}, ErrIntentNotFound
	}

	p, err := s.profile(ctx, sess.UserID)
	if err != nil {
		return transport.PaymentIntentStatus{}, err
	}
	if p.PaymentCustomerID == nil {
		return transport.PaymentIntentStatus{}, ErrIntentNotFound
	}

	intent, err := s.Gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return transport.PaymentIntentStatus{}, fmt.Errorf("get payment intent: %w", err)
	}
	if intent.CustomerID != *p.PaymentCustomerID {
		return transport.PaymentIntentStatus{}, ErrIntentNotFound
	}

	return transport.PaymentIntentStatus{ID: intent.ID, Status: intent.Status}, nil
}

// customer returns the stored gateway customer or creates one and stores it.
func (s *Service) customer(ctx context.Context, userID uuid.UUID) (string, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if p.PaymentCustomerID != nil && *p.PaymentCustomerID != "" {
		return *p.PaymentCustomerID, nil
	}

	customerID, err := s.Gateway.CreateCustomer(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	if err := s.Profiles.SetPaymentCustomerID(ctx, userID, customerID); err != nil {
		return "", fmt.Errorf("store customer: %w", err)
	}

	logging.FromContext(ctx).Info("payment_customer_created", "user_id", userID, "customer", customerID)
	return customerID, nil
}

func (s *Service) profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := s.Profiles.GetProfile(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Service) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return s.Currency
}
