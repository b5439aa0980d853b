package xcqrs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xcqrs"
)

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := xcqrs.Defaults()

	assert.False(t, cfg.EnableLogging)
	assert.Equal(t, xcqrs.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 10, cfg.MaxMiddlewares)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_DefaultsWhenUnset(t *testing.T) {
	cfg, err := xcqrs.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, xcqrs.Defaults(), cfg)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("XCQRS_ENABLE_LOGGING", "true")
	t.Setenv("XCQRS_LOG_LEVEL", "debug")
	t.Setenv("XCQRS_MAX_MIDDLEWARES", "3")
	t.Setenv("XCQRS_COMMAND_TIMEOUT", "5s")
	t.Setenv("XCQRS_QUERY_TIMEOUT", "250ms")

	cfg, err := xcqrs.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, xcqrs.Config{
		EnableLogging:  true,
		LogLevel:       xcqrs.LevelDebug,
		MaxMiddlewares: 3,
		CommandTimeout: 5 * time.Second,
		QueryTimeout:   250 * time.Millisecond,
	}, cfg)
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("XCQRS_LOG_LEVEL", "loud")
		_, err := xcqrs.ConfigFromEnv()
		require.ErrorIs(t, err, xcqrs.ErrInvalidConfig)
	})

	t.Run("unparsable duration", func(t *testing.T) {
		t.Setenv("XCQRS_COMMAND_TIMEOUT", "soon")
		_, err := xcqrs.ConfigFromEnv()
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(c *xcqrs.Config)
	}{
		{"negative middleware cap", func(c *xcqrs.Config) { c.MaxMiddlewares = -1 }},
		{"zero command timeout", func(c *xcqrs.Config) { c.CommandTimeout = 0 }},
		{"negative query timeout", func(c *xcqrs.Config) { c.QueryTimeout = -time.Second }},
		{"empty log level", func(c *xcqrs.Config) { c.LogLevel = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := xcqrs.Defaults()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), xcqrs.ErrInvalidConfig)
		})
	}
}
