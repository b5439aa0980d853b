package xcqrs

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// LogLevel selects the level LoggingMiddleware writes its start/done lines at.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func (l LogLevel) valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	}
	return false
}

// Config holds the construction-time settings of a Bus.
type Config struct {
	// EnableLogging installs LoggingMiddleware as the first middleware at Build.
	EnableLogging bool `env:"XCQRS_ENABLE_LOGGING" envDefault:"false"`
	// LogLevel is the level LoggingMiddleware writes at.
	LogLevel LogLevel `env:"XCQRS_LOG_LEVEL" envDefault:"info"`
	// MaxMiddlewares caps the middleware list (logging middleware included).
	MaxMiddlewares int `env:"XCQRS_MAX_MIDDLEWARES" envDefault:"10"`
	// CommandTimeout bounds how long commands and each event handler are waited for.
	CommandTimeout time.Duration `env:"XCQRS_COMMAND_TIMEOUT" envDefault:"30s"`
	// QueryTimeout bounds how long queries are waited for.
	QueryTimeout time.Duration `env:"XCQRS_QUERY_TIMEOUT" envDefault:"10s"`
}

// Defaults returns the documented defaults: 30s commands, 10s queries,
// 10 middlewares, logging off at info.
func Defaults() Config {
	return Config{
		EnableLogging:  false,
		LogLevel:       LevelInfo,
		MaxMiddlewares: 10,
		CommandTimeout: 30 * time.Second,
		QueryTimeout:   10 * time.Second,
	}
}

// ConfigFromEnv reads Config from XCQRS_* environment variables, falling back to
// Defaults for anything unset.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks Config before a Bus is built from it.
func (c Config) Validate() error {
	if c.MaxMiddlewares < 0 {
		return fmt.Errorf("%w: max_middlewares must be >= 0, got %d", ErrInvalidConfig, c.MaxMiddlewares)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("%w: command_timeout must be > 0, got %v", ErrInvalidConfig, c.CommandTimeout)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("%w: query_timeout must be > 0, got %v", ErrInvalidConfig, c.QueryTimeout)
	}
	if !c.LogLevel.valid() {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
