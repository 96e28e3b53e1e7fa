package httpvalidator

import (
	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/oaserrors"
)

// DefaultMaxBodySize is the default limit for request and response bodies.
const DefaultMaxBodySize int64 = 10 << 20

// Option is a functional option for configuring a Validator.
type Option func(*config) error

// config holds the configuration for validation operations.
type config struct {
	logger   definition.Logger
	basePath string

	// Validation behavior
	raiseError          bool
	strictQuery         bool
	skipResponseHeaders bool

	// Resource limits
	maxBodySize int64
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		logger:      definition.NopLogger{},
		maxBodySize: DefaultMaxBodySize,
	}
}

// WithRaiseError makes validation methods return a *FailureError whenever
// a request or response has failures, for callers that prefer fail-fast
// assertions over inspecting results. Default is false.
func WithRaiseError(raise bool) Option {
	return func(c *config) error {
		c.raiseError = raise
		return nil
	}
}

// WithLogger sets the logger for matched operations and failures.
func WithLogger(l definition.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return &oaserrors.ConfigError{Option: "logger", Message: "logger cannot be nil"}
		}
		c.logger = l
		return nil
	}
}

// WithMaxBodySize sets the maximum request/response body size in bytes.
// Bodies exceeding this limit produce an invalid_body failure.
// Default: 10 MiB.
func WithMaxBodySize(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return &oaserrors.ConfigError{Option: "maxBodySize", Value: n, Message: "must be positive"}
		}
		c.maxBodySize = n
		return nil
	}
}

// WithSkipResponseHeaders disables validation of documented response headers.
func WithSkipResponseHeaders(skip bool) Option {
	return func(c *config) error {
		c.skipResponseHeaders = skip
		return nil
	}
}

// WithStrictQuery rejects query parameters the operation does not declare.
// Default is false.
func WithStrictQuery(strict bool) Option {
	return func(c *config) error {
		c.strictQuery = strict
		return nil
	}
}

// WithBasePath strips a prefix from request paths before routing.
// See router.WithBasePath.
func WithBasePath(prefix string) Option {
	return func(c *config) error {
		c.basePath = prefix
		return nil
	}
}
