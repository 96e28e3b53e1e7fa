package schemaengine

import (
	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/oaserrors"
)

// Option is a functional option for configuring a JSONSchema engine.
type Option func(*config) error

type config struct {
	logger       definition.Logger
	assertFormat bool
}

func defaultConfig() *config {
	return &config{
		logger:       definition.NopLogger{},
		assertFormat: true,
	}
}

// WithLogger sets the logger used while compiling schemas.
func WithLogger(l definition.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return &oaserrors.ConfigError{Option: "logger", Message: "logger cannot be nil"}
		}
		c.logger = l
		return nil
	}
}

// WithFormatAssertion controls whether "format" keywords are asserted.
// Default: true.
func WithFormatAssertion(enabled bool) Option {
	return func(c *config) error {
		c.assertFormat = enabled
		return nil
	}
}
