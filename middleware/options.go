package middleware

import (
	"net/http"

	"github.com/erraggy/oasguard/coverage"
	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/errorresponse"
	"github.com/erraggy/oasguard/oaserrors"
)

// Option is a functional option for configuring the middleware.
type Option func(*config) error

type config struct {
	plugin             string
	registry           *errorresponse.Registry
	tracker            *coverage.Tracker
	bodyStatus         int
	responseValidation bool
	logger             definition.Logger
}

func defaultConfig() *config {
	return &config{
		plugin:     errorresponse.KindDefault.String(),
		bodyStatus: http.StatusBadRequest,
		logger:     definition.NopLogger{},
	}
}

// WithPlugin selects the error formatter by registry name.
// Default: "default".
func WithPlugin(name string) Option {
	return func(c *config) error {
		if name == "" {
			return &oaserrors.ConfigError{Option: "plugin", Message: "plugin name cannot be empty"}
		}
		c.plugin = name
		return nil
	}
}

// WithRegistry sets the registry formatters are looked up in.
// Default: errorresponse.NewRegistry().
func WithRegistry(r *errorresponse.Registry) Option {
	return func(c *config) error {
		if r == nil {
			return &oaserrors.ConfigError{Option: "registry", Message: "registry cannot be nil"}
		}
		c.registry = r
		return nil
	}
}

// WithTracker records every response of a validated request.
func WithTracker(t *coverage.Tracker) Option {
	return func(c *config) error {
		if t == nil {
			return &oaserrors.ConfigError{Option: "tracker", Message: "tracker cannot be nil"}
		}
		c.tracker = t
		return nil
	}
}

// WithBodyStatus sets the status for invalid bodies: 400 or 422.
// Parameter failures always use 400. Default: 400.
func WithBodyStatus(status int) Option {
	return func(c *config) error {
		if status != http.StatusBadRequest && status != http.StatusUnprocessableEntity {
			return &oaserrors.ConfigError{Option: "bodyStatus", Value: status, Message: "must be 400 or 422"}
		}
		c.bodyStatus = status
		return nil
	}
}

// WithResponseValidation validates each response of the application and
// logs failures at warn level. The response sent to the client is not
// changed. Default is false.
func WithResponseValidation(enabled bool) Option {
	return func(c *config) error {
		c.responseValidation = enabled
		return nil
	}
}

// WithLogger sets the logger for response failures.
func WithLogger(l definition.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return &oaserrors.ConfigError{Option: "logger", Message: "logger cannot be nil"}
		}
		c.logger = l
		return nil
	}
}
