// Package middleware validates requests in front of a net/http handler.
//
// Invalid requests are answered with an error body rendered by the
// configured formatter; valid requests reach the application with their
// coerced values available through httpvalidator.FromContext:
//
//	mw, err := middleware.New(v,
//	    middleware.WithPlugin("jsonapi"),
//	    middleware.WithBodyStatus(http.StatusUnprocessableEntity),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", mw(app))
//
// Statuses: 404 for requests that match no operation, 400 for parameter
// failures, 400 or 422 for body failures. The first failure in component
// scan order decides.
package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/erraggy/oasguard/errorresponse"
	"github.com/erraggy/oasguard/httpvalidator"
	"github.com/erraggy/oasguard/schemaengine"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// New builds the validation middleware for v. The formatter is looked up
// once; an unregistered plugin name is an error.
func New(v *httpvalidator.Validator, opts ...Option) (Middleware, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.registry == nil {
		cfg.registry = errorresponse.NewRegistry()
	}
	formatter, err := cfg.registry.Lookup(cfg.plugin)
	if err != nil {
		return nil, err
	}

	h := &handler{v: v, cfg: cfg, formatter: formatter}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.serve(next, w, r)
		})
	}, nil
}

type handler struct {
	v         *httpvalidator.Validator
	cfg       *config
	formatter errorresponse.Formatter
}

func (h *handler) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	result, err := h.v.ValidateHTTPRequest(r)
	var fe *httpvalidator.FailureError
	if err != nil && !errors.As(err, &fe) {
		h.reject(w, []httpvalidator.Failure{{
			Kind:     httpvalidator.KindInvalidBody,
			Location: httpvalidator.LocationBody,
			Result:   schemaengine.Invalid(nil, nil, schemaengine.Output{Message: "request could not be read"}),
			Err:      err,
		}})
		return
	}
	if !result.Valid() {
		h.reject(w, result.Failures)
		return
	}

	r = r.WithContext(httpvalidator.NewContext(r.Context(), result))
	if h.cfg.tracker == nil && !h.cfg.responseValidation {
		next.ServeHTTP(w, r)
		return
	}

	rec := &responseRecorder{ResponseWriter: w, limit: h.v.MaxBodySize()}
	next.ServeHTTP(rec, r)
	h.checkResponse(result, rec)
}

// StatusFor returns the status for the first failure: 404 for unmatched
// routes, bodyStatus for body failures and 400 otherwise.
func StatusFor(f httpvalidator.Failure, bodyStatus int) int {
	switch f.Kind {
	case httpvalidator.KindRouteNotFound:
		return http.StatusNotFound
	case httpvalidator.KindInvalidBody:
		return bodyStatus
	default:
		return http.StatusBadRequest
	}
}

func (h *handler) reject(w http.ResponseWriter, failures []httpvalidator.Failure) {
	status := StatusFor(failures[0], h.cfg.bodyStatus)
	rendered, err := h.formatter.Render(status, failures)
	if err != nil {
		h.cfg.logger.Error("rendering error response", "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	if err := rendered.Write(w); err != nil {
		h.cfg.logger.Debug("writing error response", "error", err)
	}
}

func (h *handler) checkResponse(req *httpvalidator.RequestResult, rec *responseRecorder) {
	op := req.Operation
	status := rec.statusCode()

	if rec.truncated {
		h.cfg.logger.Warn("response body too large to validate", "operation", op.ID, "status", status)
		if h.cfg.tracker != nil {
			key := strconv.Itoa(status)
			if resp, ok := op.Response(status); ok {
				key = resp.Status
			}
			h.cfg.tracker.Record(op.ID, key)
		}
		return
	}

	result, _ := h.v.ValidateResponseData(op, status, rec.Header(), rec.body.Bytes())
	if result == nil {
		return
	}
	if h.cfg.tracker != nil {
		h.cfg.tracker.RecordResponse(result)
	}
	if h.cfg.responseValidation {
		for _, f := range result.Failures {
			h.cfg.logger.Warn("response does not match its documentation",
				"operation", op.ID,
				"status", status,
				"error", f.Message(),
			)
		}
	}
}

// responseRecorder passes a response through while keeping a copy of the
// status and up to limit bytes of the body.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	body      bytes.Buffer
	limit     int64
	truncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if !r.truncated {
		if int64(r.body.Len()+len(b)) > r.limit {
			r.truncated = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Flush implements http.Flusher when the wrapped writer does.
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
