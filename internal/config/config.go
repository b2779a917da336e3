// Package config loads and validates the per-binary settings on top of pkg/config.
package config

import (
	"os"

	pkgconfig "github.com/Skotchmaster/food_order/pkg/config"
)

type ElasticConfig struct {
	URL      string
	User     string
	Password string
}

type ServerConfig struct {
	pkgconfig.Config

	ES             ElasticConfig
	PaymentURL     string
	CheckoutAtomic bool
	// InstanceID names this replica's realtime consumer group.
	InstanceID string
}

type PaymentConfig struct {
	pkgconfig.Config

	StripeSecretKey      string
	StripePublishableKey string
	Currency             string
}

func LoadServer() (ServerConfig, error) {
	cfg := ServerConfig{
		Config: pkgconfig.Load(),
		ES: ElasticConfig{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
		},
		PaymentURL:     os.Getenv("PAYMENT_URL"),
		CheckoutAtomic: pkgconfig.EnvBoolDefault("CHECKOUT_ATOMIC", true),
		InstanceID:     os.Getenv("INSTANCE_ID"),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "food_order"
	}
	if cfg.InstanceID == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "local"
		}
		cfg.InstanceID = host
	}

	err := pkgconfig.Check(
		pkgconfig.NonEmpty("DATABASE_URL", cfg.DatabaseURL),
		pkgconfig.NonEmptyBytes("JWT_SECRET", cfg.JWTAccessSecret),
		pkgconfig.NonEmptyBytes("JWT_REFRESH_SECRET", cfg.JWTRefreshSecret),
		pkgconfig.NonEmpty("PAYMENT_URL", cfg.PaymentURL),
	)
	return cfg, err
}

func LoadPayment() (PaymentConfig, error) {
	cfg := PaymentConfig{
		Config:               pkgconfig.Load(),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		Currency:             pkgconfig.EnvDefault("PAYMENT_CURRENCY", "usd"),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment"
	}

	err := pkgconfig.Check(
		pkgconfig.NonEmpty("DATABASE_URL", cfg.DatabaseURL),
		pkgconfig.NonEmptyBytes("JWT_SECRET", cfg.JWTAccessSecret),
		pkgconfig.NonEmpty("STRIPE_SECRET_KEY", cfg.StripeSecretKey),
		pkgconfig.NonEmpty("STRIPE_PUBLISHABLE_KEY", cfg.StripePublishableKey),
	)
	return cfg, err
}
