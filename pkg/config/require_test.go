package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	require.NoError(t, Check(NonEmpty("A", "x"), NonEmptyBytes("B", []byte("y"))))

	err := Check(NonEmpty("DATABASE_URL", ""), NonEmpty("A", "x"), NonEmptyBytes("JWT_SECRET", nil))
	require.Error(t, err)
	assert.Equal(t, "missing required env DATABASE_URL, JWT_SECRET", err.Error())
}
