package definition

import (
	"github.com/erraggy/oasguard/oaserrors"
)

// Option is a functional option for loading a Definition.
type Option func(*config) error

type config struct {
	logger     Logger
	sourceName string
}

func defaultConfig() *config {
	return &config{
		logger:     NopLogger{},
		sourceName: "openapi.yaml",
	}
}

// WithLogger sets the logger used while loading.
func WithLogger(l Logger) Option {
	return func(c *config) error {
		if l == nil {
			return &oaserrors.ConfigError{Option: "logger", Message: "logger cannot be nil"}
		}
		c.logger = l
		return nil
	}
}

// WithSourceName names an in-memory document passed to Parse. The name
// becomes part of every schema location. Default: "openapi.yaml".
func WithSourceName(name string) Option {
	return func(c *config) error {
		if name == "" {
			return &oaserrors.ConfigError{Option: "sourceName", Message: "source name cannot be empty"}
		}
		c.sourceName = name
		return nil
	}
}
