package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/httpvalidator"
)

// specInput is the OpenAPI document a tool works on. Exactly one of File
// or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to an OpenAPI 3.x document on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline OpenAPI 3.x document (JSON or YAML)"`
}

// cacheEntry holds a compiled validator with LRU ordering and TTL expiry.
type cacheEntry struct {
	validator *httpvalidator.Validator
	usedAt    time.Time
	expiresAt time.Time
}

// validatorCache keeps compiled validators for the session. Compiling a
// document's schemas dominates the cost of a tool call. File inputs are
// keyed by (absolutePath, modTime), content inputs by SHA-256 hash.
type validatorCache struct {
	mu             sync.Mutex
	entries        map[string]*cacheEntry
	maxSize        int
	sweeperStarted atomic.Bool
}

var specCache = &validatorCache{
	entries: make(map[string]*cacheEntry),
	maxSize: cfg.CacheMaxSize,
}

// get returns a cached validator or nil. Expired entries are removed.
func (c *validatorCache) get(key string) *httpvalidator.Validator {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	e.usedAt = time.Now()
	return e.validator
}

// put stores a validator, evicting the least recently used entry at capacity.
func (c *validatorCache) put(key string, v *httpvalidator.Validator, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := &cacheEntry{validator: v, usedAt: now, expiresAt: now.Add(ttl)}
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.usedAt.Before(oldest) {
				oldestKey, oldest = k, e.usedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = entry
}

func (c *validatorCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// startSweeper removes expired entries every interval until ctx is done.
// Only the first call starts a goroutine.
func (c *validatorCache) startSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || !c.sweeperStarted.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.sweeperStarted.Store(false)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *validatorCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *validatorCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey returns "" when the input cannot be cached.
func (s specInput) cacheKey() string {
	switch {
	case s.File != "":
		abs, err := filepath.Abs(s.File)
		if err != nil {
			return ""
		}
		info, err := os.Stat(abs)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("file:%s:%d", abs, info.ModTime().UnixNano())
	case s.Content != "":
		h := sha256.Sum256([]byte(s.Content))
		return "content:" + hex.EncodeToString(h[:])
	default:
		return ""
	}
}

// resolve loads the document and compiles a validator for it, reusing a
// cached validator when the input is unchanged.
func (s specInput) resolve() (*httpvalidator.Validator, error) {
	if (s.File == "") == (s.Content == "") {
		return nil, fmt.Errorf("exactly one of file or content must be provided")
	}
	if int64(len(s.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set OASGUARD_MAX_INLINE_SIZE to increase",
			len(s.Content), cfg.MaxInlineSize)
	}

	var key string
	if cfg.CacheEnabled {
		key = s.cacheKey()
	}
	if key != "" {
		if v := specCache.get(key); v != nil {
			return v, nil
		}
	}

	logger := definition.NewSlogAdapter(slog.Default())
	var def *definition.Definition
	var err error
	if s.File != "" {
		def, err = definition.Load(s.File, definition.WithLogger(logger))
	} else {
		def, err = definition.Parse([]byte(s.Content), definition.WithLogger(logger), definition.WithSourceName("inline.yaml"))
	}
	if err != nil {
		return nil, err
	}

	opts := []httpvalidator.Option{
		httpvalidator.WithMaxBodySize(cfg.MaxBodySize),
		httpvalidator.WithStrictQuery(cfg.StrictQuery),
		httpvalidator.WithLogger(logger),
	}
	v, err := httpvalidator.New(def, nil, opts...)
	if err != nil {
		return nil, err
	}

	if key != "" {
		specCache.put(key, v, cfg.CacheTTL)
	}
	return v, nil
}
