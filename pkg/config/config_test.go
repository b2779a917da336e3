package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "kafka:9092", want: []string{"kafka:9092"}},
		{name: "spaces and blanks", in: " a:1 , ,b:2,", want: []string{"a:1", "b:2"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("FO_INT", "42")
	t.Setenv("FO_BAD_INT", "x")
	t.Setenv("FO_BOOL", "false")
	t.Setenv("FO_DUR", "90s")
	t.Setenv("FO_BAD_DUR", "-1s")
	t.Setenv("FO_STR", "value")

	assert.Equal(t, 42, EnvIntDefault("FO_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("FO_BAD_INT", 1))
	assert.Equal(t, 7, EnvIntDefault("FO_MISSING", 7))

	assert.False(t, EnvBoolDefault("FO_BOOL", true))
	assert.True(t, EnvBoolDefault("FO_MISSING", true))

	assert.Equal(t, 90*time.Second, EnvDurationDefault("FO_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("FO_BAD_DUR", time.Minute))

	assert.Equal(t, "value", EnvDefault("FO_STR", "def"))
	assert.Equal(t, "def", EnvDefault("FO_MISSING", "def"))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
