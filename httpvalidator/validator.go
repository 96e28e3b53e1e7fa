package httpvalidator

import (
	"context"
	"errors"
	"net/http"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/oaserrors"
	"github.com/erraggy/oasguard/router"
	"github.com/erraggy/oasguard/schemaengine"
)

// Validator validates HTTP requests and responses against a loaded
// definition. It is immutable after New and safe for concurrent use.
//
//	def, _ := definition.Load("openapi.yaml")
//	v, err := httpvalidator.New(def, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := v.ValidateHTTPRequest(req)
//	if !result.Valid() {
//	    // Render result.Failures
//	}
type Validator struct {
	def    *definition.Definition
	router *router.Router
	engine schemaengine.Engine
	cfg    config
}

// New creates a Validator for def. A nil engine selects the JSON Schema
// engine, compiled with the validator's logger.
//
// Returns an error if def is nil, an option is invalid, or the document's
// path templates or schemas do not compile.
func New(def *definition.Definition, engine schemaengine.Engine, opts ...Option) (*Validator, error) {
	if def == nil {
		return nil, &oaserrors.ConfigError{Option: "definition", Message: "definition cannot be nil"}
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	r, err := router.New(def, router.WithBasePath(cfg.basePath))
	if err != nil {
		return nil, err
	}
	if engine == nil {
		js, err := schemaengine.New(def, schemaengine.WithLogger(cfg.logger))
		if err != nil {
			return nil, err
		}
		engine = js
	}

	return &Validator{def: def, router: r, engine: engine, cfg: *cfg}, nil
}

// Definition returns the definition the validator was built from.
func (v *Validator) Definition() *definition.Definition {
	return v.def
}

// Router returns the validator's operation router.
func (v *Validator) Router() *router.Router {
	return v.router
}

// MaxBodySize returns the configured body size limit.
func (v *Validator) MaxBodySize() int64 {
	return v.cfg.maxBodySize
}

// ValidateRequest matches req to an operation and validates every
// component. An unmatched route is reported as a single route_not_found
// failure whose Err is the *oaserrors.RouteError.
//
// The error is non-nil only in raise mode, as a *FailureError.
func (v *Validator) ValidateRequest(req *Request) (*RequestResult, error) {
	m, err := v.router.Match(req.Method, req.Path)
	if err != nil {
		var routeErr *oaserrors.RouteError
		if !errors.As(err, &routeErr) {
			return nil, err
		}
		result := newRequestResult(nil)
		result.Failures = append(result.Failures, Failure{
			Kind:     KindRouteNotFound,
			Location: LocationPath,
			Result:   schemaengine.Invalid(nil, req.Path, schemaengine.Output{Message: routeErr.Error()}),
			Err:      routeErr,
		})
		v.cfg.logger.Debug("no operation matched", "method", req.Method, "path", req.Path)
		return v.finishRequest(result)
	}
	return v.ValidateOperation(m.Operation, req, m.Params)
}

// ValidateOperation validates req against a known operation, using the
// raw path parameter values extracted by a router.
func (v *Validator) ValidateOperation(op *definition.Operation, req *Request, pathParams map[string]string) (*RequestResult, error) {
	result := newRequestResult(op)
	v.cfg.logger.Debug("matched operation", "operation", op.ID, "method", op.Method, "path", op.Path)

	v.validateParameters(op, req, pathParams, result)
	v.validateBody(op, req, result)
	return v.finishRequest(result)
}

// ValidateHTTPRequest reads r and validates it. r.Body stays readable.
func (v *Validator) ValidateHTTPRequest(r *http.Request) (*RequestResult, error) {
	req, err := RequestFromHTTP(r, v.cfg.maxBodySize)
	if err != nil {
		return nil, err
	}
	return v.ValidateRequest(req)
}

func (v *Validator) finishRequest(result *RequestResult) (*RequestResult, error) {
	if len(result.Failures) == 0 {
		return result, nil
	}
	for _, f := range result.Failures {
		v.cfg.logger.Debug("request failed validation", "kind", f.Kind.String(), "error", f.Message())
	}
	if v.cfg.raiseError {
		return result, &FailureError{Failures: result.Failures}
	}
	return result, nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying a validated request result.
func NewContext(ctx context.Context, result *RequestResult) context.Context {
	return context.WithValue(ctx, contextKey{}, result)
}

// FromContext returns the request result stored by NewContext, giving
// handlers the coerced parameters and parsed body.
func FromContext(ctx context.Context) (*RequestResult, bool) {
	result, ok := ctx.Value(contextKey{}).(*RequestResult)
	return result, ok
}
