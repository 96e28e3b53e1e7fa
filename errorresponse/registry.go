package errorresponse

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/erraggy/oasguard/oaserrors"
)

// Registry maps names to formatters. Registration takes a lock and
// publishes a new map; lookups read the current map without locking.
type Registry struct {
	mu         sync.Mutex
	formatters atomic.Pointer[map[string]Formatter]
}

// NewRegistry returns a registry holding the "default" and "jsonapi"
// formatters.
func NewRegistry() *Registry {
	r := &Registry{}
	m := map[string]Formatter{
		KindDefault.String(): Default{},
		KindJSONAPI.String(): JSONAPI{},
	}
	r.formatters.Store(&m)
	return r
}

// Register adds or replaces the formatter for name. The last registration
// for a name wins.
func (r *Registry) Register(name string, f Formatter) error {
	if name == "" {
		return &oaserrors.ConfigError{Option: "plugin", Message: "plugin name cannot be empty"}
	}
	if f == nil {
		return &oaserrors.ConfigError{Option: "plugin", Value: name, Message: "formatter cannot be nil"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.current()
	next := make(map[string]Formatter, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[name] = f
	r.formatters.Store(&next)
	return nil
}

// Lookup returns the formatter registered under name, or a
// *oaserrors.PluginError.
func (r *Registry) Lookup(name string) (Formatter, error) {
	if f, ok := r.current()[name]; ok {
		return f, nil
	}
	return nil, &oaserrors.PluginError{Name: name, Known: r.Names()}
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	m := r.current()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) current() map[string]Formatter {
	if m := r.formatters.Load(); m != nil {
		return *m
	}
	return nil
}
