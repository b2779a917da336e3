package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/food")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	t.Setenv("PAYMENT_URL", "http://payment:8081")
	t.Setenv("CHECKOUT_ATOMIC", "false")
	t.Setenv("ES_URL", "http://es:9200")
	t.Setenv("SERVICE_NAME", "")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.False(t, cfg.CheckoutAtomic)
	assert.Equal(t, "http://es:9200", cfg.ES.URL)
	assert.Equal(t, "food_order", cfg.ServiceName)
	assert.NotEmpty(t, cfg.InstanceID)

	t.Setenv("INSTANCE_ID", "api-2")
	cfg, err = LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "api-2", cfg.InstanceID)
}

func TestLoadServer_Missing(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "")
	t.Setenv("PAYMENT_URL", "http://payment")

	_, err := LoadServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL, JWT_REFRESH_SECRET")
}

func TestLoadPayment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/food")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "")
	t.Setenv("PAYMENT_CURRENCY", "")

	cfg, err := LoadPayment()
	require.ErrorContains(t, err, "STRIPE_PUBLISHABLE_KEY")
	assert.Equal(t, "usd", cfg.Currency)

	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test")
	t.Setenv("PAYMENT_CURRENCY", "eur")
	cfg, err = LoadPayment()
	require.NoError(t, err)
	assert.Equal(t, "eur", cfg.Currency)
}
