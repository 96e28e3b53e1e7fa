package mcpserver

import (
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/erraggy/oasguard/errorresponse"
	"github.com/erraggy/oasguard/httpvalidator"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Cache settings.
	CacheEnabled       bool
	CacheMaxSize       int
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// Validation defaults.
	Plugin      string
	BodyStatus  int
	MaxBodySize int64
	StrictQuery bool

	// Input limits.
	MaxInlineSize int64
	ListLimit     int
	MaxLimit      int
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from OASGUARD_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		CacheEnabled:       envBool("OASGUARD_CACHE_ENABLED", true),
		CacheMaxSize:       envInt("OASGUARD_CACHE_MAX_SIZE", 10),
		CacheTTL:           envDuration("OASGUARD_CACHE_TTL", 15*time.Minute),
		CacheSweepInterval: envDuration("OASGUARD_CACHE_SWEEP_INTERVAL", 60*time.Second),
		Plugin:             envPlugin("OASGUARD_PLUGIN"),
		BodyStatus:         envBodyStatus("OASGUARD_BODY_STATUS"),
		MaxBodySize:        envInt64("OASGUARD_MAX_BODY_SIZE", httpvalidator.DefaultMaxBodySize),
		StrictQuery:        envBool("OASGUARD_STRICT_QUERY", false),
		MaxInlineSize:      envInt64("OASGUARD_MAX_INLINE_SIZE", 10*1024*1024),
		ListLimit:          envInt("OASGUARD_LIST_LIMIT", 100),
		MaxLimit:           envInt("OASGUARD_MAX_LIMIT", 1000),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return d
}

// envPlugin accepts only the names of built-in formatters; the server has
// no way to register others.
func envPlugin(key string) string {
	fallback := errorresponse.KindDefault.String()
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if !slices.Contains(errorresponse.NewRegistry().Names(), v) {
		slog.Warn("unknown plugin env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return v
}

func envBodyStatus(key string) int {
	status := envInt(key, http.StatusBadRequest)
	if status != http.StatusBadRequest && status != http.StatusUnprocessableEntity {
		slog.Warn("body status must be 400 or 422, using default", "key", key, "value", status) //nolint:gosec // G706: values are structured log fields, not format strings
		return http.StatusBadRequest
	}
	return status
}
