package mcpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearOASGUARDEnv clears all OASGUARD_* env vars to isolate tests from the ambient environment.
func clearOASGUARDEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OASGUARD_CACHE_ENABLED", "OASGUARD_CACHE_MAX_SIZE",
		"OASGUARD_CACHE_TTL", "OASGUARD_CACHE_SWEEP_INTERVAL",
		"OASGUARD_PLUGIN", "OASGUARD_BODY_STATUS",
		"OASGUARD_MAX_BODY_SIZE", "OASGUARD_STRICT_QUERY",
		"OASGUARD_MAX_INLINE_SIZE", "OASGUARD_LIST_LIMIT", "OASGUARD_MAX_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearOASGUARDEnv(t)

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 15*time.Minute, c.CacheTTL)
	assert.Equal(t, 60*time.Second, c.CacheSweepInterval)
	assert.Equal(t, "default", c.Plugin)
	assert.Equal(t, 400, c.BodyStatus)
	assert.Equal(t, int64(10<<20), c.MaxBodySize)
	assert.False(t, c.StrictQuery)
	assert.Equal(t, int64(10*1024*1024), c.MaxInlineSize)
	assert.Equal(t, 100, c.ListLimit)
	assert.Equal(t, 1000, c.MaxLimit)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearOASGUARDEnv(t)
	t.Setenv("OASGUARD_CACHE_ENABLED", "false")
	t.Setenv("OASGUARD_CACHE_MAX_SIZE", "50")
	t.Setenv("OASGUARD_CACHE_TTL", "2m")
	t.Setenv("OASGUARD_CACHE_SWEEP_INTERVAL", "30s")
	t.Setenv("OASGUARD_PLUGIN", "jsonapi")
	t.Setenv("OASGUARD_BODY_STATUS", "422")
	t.Setenv("OASGUARD_MAX_BODY_SIZE", "1024")
	t.Setenv("OASGUARD_STRICT_QUERY", "true")
	t.Setenv("OASGUARD_MAX_INLINE_SIZE", "5242880")
	t.Setenv("OASGUARD_LIST_LIMIT", "20")
	t.Setenv("OASGUARD_MAX_LIMIT", "500")

	c := loadConfig()

	assert.False(t, c.CacheEnabled)
	assert.Equal(t, 50, c.CacheMaxSize)
	assert.Equal(t, 2*time.Minute, c.CacheTTL)
	assert.Equal(t, 30*time.Second, c.CacheSweepInterval)
	assert.Equal(t, "jsonapi", c.Plugin)
	assert.Equal(t, 422, c.BodyStatus)
	assert.Equal(t, int64(1024), c.MaxBodySize)
	assert.True(t, c.StrictQuery)
	assert.Equal(t, int64(5242880), c.MaxInlineSize)
	assert.Equal(t, 20, c.ListLimit)
	assert.Equal(t, 500, c.MaxLimit)
}

func TestLoadConfig_InvalidValues_UseDefaults(t *testing.T) {
	clearOASGUARDEnv(t)
	t.Setenv("OASGUARD_CACHE_ENABLED", "maybe")
	t.Setenv("OASGUARD_CACHE_MAX_SIZE", "-1")
	t.Setenv("OASGUARD_CACHE_TTL", "soon")
	t.Setenv("OASGUARD_PLUGIN", "xml")
	t.Setenv("OASGUARD_BODY_STATUS", "500")
	t.Setenv("OASGUARD_MAX_BODY_SIZE", "0")
	t.Setenv("OASGUARD_LIST_LIMIT", "abc")

	c := loadConfig()

	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 10, c.CacheMaxSize)
	assert.Equal(t, 15*time.Minute, c.CacheTTL)
	assert.Equal(t, "default", c.Plugin)
	assert.Equal(t, 400, c.BodyStatus)
	assert.Equal(t, int64(10<<20), c.MaxBodySize)
	assert.Equal(t, 100, c.ListLimit)
}
