package router

import (
	"strings"

	"github.com/erraggy/oasguard/oaserrors"
)

// Option is a functional option for configuring a Router.
type Option func(*config) error

type config struct {
	basePath string
}

// WithBasePath strips a prefix such as "/v1" from request paths before
// matching. Requests outside the prefix do not match any operation.
// Pass definition.BasePath() to honor the document's first server URL.
func WithBasePath(prefix string) Option {
	return func(c *config) error {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix != "" && !strings.HasPrefix(prefix, "/") {
			return &oaserrors.ConfigError{
				Option:  "basePath",
				Value:   prefix,
				Message: "base path must start with '/'",
			}
		}
		c.basePath = prefix
		return nil
	}
}
