package router

import (
	"sort"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/oaserrors"
)

// Match is a resolved operation with its raw path parameter values.
type Match struct {
	Operation *definition.Operation
	Params    map[string]string
}

type route struct {
	matcher *pathMatcher
	methods map[string]*definition.Operation
}

// Router maps requests to operations. It is immutable and safe for
// concurrent use.
type Router struct {
	routes   []*route
	basePath string
}

// New compiles the path templates of every operation in def.
func New(def *definition.Definition, opts ...Option) (*Router, error) {
	if def == nil {
		return nil, &oaserrors.ConfigError{Option: "definition", Message: "definition cannot be nil"}
	}
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	byTemplate := make(map[string]*route)
	var routes []*route
	for _, op := range def.Operations() {
		r, ok := byTemplate[op.Path]
		if !ok {
			m, err := newPathMatcher(op.Path)
			if err != nil {
				return nil, &oaserrors.ParseError{Path: def.Source(), Message: "invalid path template", Cause: err}
			}
			r = &route{matcher: m, methods: make(map[string]*definition.Operation)}
			byTemplate[op.Path] = r
			routes = append(routes, r)
		}
		r.methods[op.Method] = op
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].matcher.wildcards < routes[j].matcher.wildcards
	})
	return &Router{routes: routes, basePath: cfg.basePath}, nil
}

// Match resolves method and path. path is the escaped request path, as
// returned by url.URL.EscapedPath. The error is a *oaserrors.RouteError
// when nothing matches.
func (r *Router) Match(method, path string) (*Match, error) {
	method = strings.ToUpper(method)
	rel, ok := r.strip(path)
	if !ok {
		return nil, &oaserrors.RouteError{Method: method, Path: path}
	}

	pathMatched := false
	for _, rt := range r.routes {
		params, ok := rt.matcher.match(rel)
		if !ok {
			continue
		}
		op, ok := rt.methods[method]
		if !ok {
			pathMatched = true
			continue
		}
		return &Match{Operation: op, Params: params}, nil
	}
	return nil, &oaserrors.RouteError{Method: method, Path: path, MethodNotAllowed: pathMatched}
}

func (r *Router) strip(path string) (string, bool) {
	if r.basePath == "" {
		return path, true
	}
	rest, ok := strings.CutPrefix(path, r.basePath)
	if !ok || (rest != "" && rest[0] != '/') {
		return "", false
	}
	if rest == "" {
		rest = "/"
	}
	return rest, true
}

// Templates returns the path templates in match order.
func (r *Router) Templates() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.matcher.template
	}
	return out
}
