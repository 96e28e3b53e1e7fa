package httpvalidator

import (
	"fmt"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/oaserrors"
	"github.com/erraggy/oasguard/schemaengine"
)

// Location is the part of an HTTP message a failure concerns.
type Location = definition.Location

// Location constants re-exported for convenience.
const (
	LocationPath   = definition.LocationPath
	LocationQuery  = definition.LocationQuery
	LocationHeader = definition.LocationHeader
	LocationCookie = definition.LocationCookie
	LocationBody   = definition.LocationBody
)

// Kind classifies a failure.
type Kind int

// Kind constants.
const (
	KindRouteNotFound Kind = iota
	KindInvalidPath
	KindInvalidQuery
	KindInvalidHeader
	KindInvalidCookie
	KindInvalidBody
	KindInvalidResponse
)

// String returns the snake_case name of the kind, e.g. "invalid_query".
func (k Kind) String() string {
	switch k {
	case KindRouteNotFound:
		return "route_not_found"
	case KindInvalidPath:
		return "invalid_path"
	case KindInvalidQuery:
		return "invalid_query"
	case KindInvalidHeader:
		return "invalid_header"
	case KindInvalidCookie:
		return "invalid_cookie"
	case KindInvalidBody:
		return "invalid_body"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// KindFor returns the request failure kind of a location.
func KindFor(loc Location) Kind {
	switch loc {
	case LocationPath:
		return KindInvalidPath
	case LocationQuery:
		return KindInvalidQuery
	case LocationHeader:
		return KindInvalidHeader
	case LocationCookie:
		return KindInvalidCookie
	default:
		return KindInvalidBody
	}
}

// Failure is one failed component of a request or response.
type Failure struct {
	Kind      Kind
	Location  Location
	Operation *definition.Operation

	// Result holds the evaluated data and the located errors.
	Result *schemaengine.Result

	// Coercion is true when at least one raw value could not be converted
	// to its declared type.
	Coercion bool

	// Err is the underlying error of a route failure.
	Err error
}

// Message returns the human-readable failure text.
func (f Failure) Message() string {
	if f.Result != nil {
		if msg := f.Result.ErrorMessage(); msg != "" {
			return msg
		}
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return f.Kind.String()
}

// String returns "<kind>: <message>".
func (f Failure) String() string {
	return f.Kind.String() + ": " + f.Message()
}

// FailureError is returned when a validator is configured to raise.
// It matches oaserrors.ErrInvalidRequest or oaserrors.ErrInvalidResponse,
// and oaserrors.ErrRouteNotFound for unmatched routes.
type FailureError struct {
	Failures []Failure
	Response bool
}

// Error returns a human-readable error message.
func (e *FailureError) Error() string {
	what := "request"
	if e.Response {
		what = "response"
	}
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.String()
	}
	return fmt.Sprintf("invalid %s: %s", what, strings.Join(msgs, "; "))
}

// Is reports whether target matches this error type.
func (e *FailureError) Is(target error) bool {
	if e.Response {
		return target == oaserrors.ErrInvalidResponse
	}
	return target == oaserrors.ErrInvalidRequest
}

// Unwrap returns the underlying errors of the failures, if any.
func (e *FailureError) Unwrap() []error {
	var errs []error
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// RequestResult is the outcome of validating a request. A new result is
// built for every call.
type RequestResult struct {
	// Operation is nil when no operation matched.
	Operation *definition.Operation

	// Failures in component scan order: path, query, header, cookie, body.
	Failures []Failure

	// Coerced parameter values by name.
	PathParams   map[string]any
	QueryParams  map[string]any
	HeaderParams map[string]any
	CookieParams map[string]any

	// Body is the parsed request body, or nil when none was sent.
	Body any
}

func newRequestResult(op *definition.Operation) *RequestResult {
	return &RequestResult{
		Operation:    op,
		PathParams:   make(map[string]any),
		QueryParams:  make(map[string]any),
		HeaderParams: make(map[string]any),
		CookieParams: make(map[string]any),
	}
}

// Valid reports whether the request passed every check.
func (r *RequestResult) Valid() bool {
	return len(r.Failures) == 0
}

// First returns the authoritative failure, which decides the reported
// status. ok is false for valid requests.
func (r *RequestResult) First() (f Failure, ok bool) {
	if len(r.Failures) == 0 {
		return Failure{}, false
	}
	return r.Failures[0], true
}

// Params returns the coerced parameters of one location.
func (r *RequestResult) Params(loc Location) map[string]any {
	switch loc {
	case LocationPath:
		return r.PathParams
	case LocationQuery:
		return r.QueryParams
	case LocationHeader:
		return r.HeaderParams
	case LocationCookie:
		return r.CookieParams
	default:
		return nil
	}
}

// ResponseResult is the outcome of validating a response.
type ResponseResult struct {
	Operation  *definition.Operation
	StatusCode int

	// ResponseKey is the declared response key the status resolved to,
	// such as "200", "4XX", or "default". Empty if undocumented.
	ResponseKey string

	Failures []Failure
}

// Valid reports whether the response matched its documentation.
func (r *ResponseResult) Valid() bool {
	return len(r.Failures) == 0
}
