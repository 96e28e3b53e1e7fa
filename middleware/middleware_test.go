package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/erraggy/oasguard/coverage"
	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/errorresponse"
	"github.com/erraggy/oasguard/httpvalidator"
	"github.com/erraggy/oasguard/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const usersSpec = `
openapi: "3.1.0"
info: {title: Users, version: "1.0"}
paths:
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - {name: id, in: path, schema: {type: integer}}
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                type: object
                required: [name]
                properties:
                  name: {type: string}
        "404": {description: Not found}
  /users:
    post:
      operationId: createUser
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name: {type: string}
      responses:
        "201": {description: Created}
`

type recordingLogger struct {
	definition.NopLogger
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) With(_ ...any) definition.Logger { return l }

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func mustValidator(t *testing.T) *httpvalidator.Validator {
	t.Helper()
	def, err := definition.Parse([]byte(usersSpec))
	require.NoError(t, err)
	v, err := httpvalidator.New(def, nil)
	require.NoError(t, err)
	return v
}

func mustMiddleware(t *testing.T, v *httpvalidator.Validator, opts ...Option) Middleware {
	t.Helper()
	mw, err := New(v, opts...)
	require.NoError(t, err)
	return mw
}

// userApp answers getUser with a configurable body and echoes the coerced id.
func userApp(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, ok := httpvalidator.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-User-Id", jsonString(result.PathParams["id"]))
		_, _ = io.WriteString(w, body)
	})
}

func jsonString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func serve(h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Request validation
// =============================================================================

func TestMiddleware_Requests(t *testing.T) {
	v := mustValidator(t)
	h := mustMiddleware(t, v)(userApp(`{"name":"ada"}`))

	t.Run("valid request reaches the app with coerced params", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/users/42", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", rec.Header().Get("X-User-Id"))
		assert.JSONEq(t, `{"name":"ada"}`, rec.Body.String())
	})

	t.Run("invalid path parameter is 400", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/users/abc", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errorresponse.ContentTypeJSON, rec.Header().Get("Content-Type"))

		var doc errorresponse.Document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		require.Len(t, doc.Errors, 1)
		assert.Equal(t, "400", doc.Errors[0].Status)
		assert.Equal(t, "id", doc.Errors[0].Source["parameter"])
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/orders", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var doc errorresponse.Document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		require.Len(t, doc.Errors, 1)
		assert.Equal(t, "404", doc.Errors[0].Status)
		assert.Nil(t, doc.Errors[0].Source)
	})

	t.Run("invalid body is 400 by default", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/users", "application/json", `{"name":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var doc errorresponse.Document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		require.NotEmpty(t, doc.Errors)
		assert.Equal(t, "/name", doc.Errors[0].Source["pointer"])
	})

	t.Run("valid body", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/users", "application/json", `{"name":"ada"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestMiddleware_BodyStatus(t *testing.T) {
	v := mustValidator(t)
	h := mustMiddleware(t, v, WithBodyStatus(http.StatusUnprocessableEntity))(userApp(""))

	t.Run("body failures use the configured status", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/users", "application/json", `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("parameter failures stay 400", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/users/x", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMiddleware_Plugin(t *testing.T) {
	v := mustValidator(t)

	t.Run("jsonapi", func(t *testing.T) {
		h := mustMiddleware(t, v, WithPlugin("jsonapi"))(userApp(""))
		rec := serve(h, http.MethodGet, "/users/x", "", "")
		assert.Equal(t, errorresponse.ContentTypeJSONAPI, rec.Header().Get("Content-Type"))
	})

	t.Run("custom registry", func(t *testing.T) {
		reg := errorresponse.NewRegistry()
		require.NoError(t, reg.Register("teapot", teapot{}))
		h := mustMiddleware(t, v, WithRegistry(reg), WithPlugin("teapot"))(userApp(""))
		rec := serve(h, http.MethodGet, "/users/x", "", "")
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "short and stout", rec.Body.String())
	})

	t.Run("unknown plugin fails construction", func(t *testing.T) {
		_, err := New(v, WithPlugin("xml"))
		require.Error(t, err)
		var pluginErr *oaserrors.PluginError
		assert.True(t, errors.As(err, &pluginErr))
	})
}

type teapot struct{}

func (teapot) Kind() errorresponse.Kind { return errorresponse.KindCustom }

func (teapot) Render(_ int, _ []httpvalidator.Failure) (errorresponse.Rendered, error) {
	return errorresponse.Rendered{Status: http.StatusTeapot, ContentType: "text/plain", Body: []byte("short and stout")}, nil
}

// =============================================================================
// Response checks
// =============================================================================

func TestMiddleware_Responses(t *testing.T) {
	t.Run("tracker records exercised responses", func(t *testing.T) {
		v := mustValidator(t)
		tracker := coverage.New(v.Definition())
		h := mustMiddleware(t, v, WithTracker(tracker))(userApp(`{"name":"ada"}`))

		serve(h, http.MethodGet, "/users/1", "", "")
		serve(h, http.MethodGet, "/users/2", "", "")
		serve(h, http.MethodPost, "/users", "application/json", `{"name":"ada"}`)

		assert.Equal(t, int64(2), tracker.Count("getUser", "200"))
		assert.Equal(t, int64(1), tracker.Count("createUser", "201"))
		assert.Equal(t, []coverage.Pair{{OperationID: "getUser", Status: "404"}}, tracker.Unexercised())
	})

	t.Run("rejected requests are not recorded", func(t *testing.T) {
		v := mustValidator(t)
		tracker := coverage.New(v.Definition())
		h := mustMiddleware(t, v, WithTracker(tracker))(userApp(`{"name":"ada"}`))

		serve(h, http.MethodGet, "/users/x", "", "")
		assert.Len(t, tracker.Unexercised(), 3)
	})

	t.Run("invalid response is logged but passed through", func(t *testing.T) {
		v := mustValidator(t)
		logger := &recordingLogger{}
		h := mustMiddleware(t, v, WithResponseValidation(true), WithLogger(logger))(userApp(`{"name":7}`))

		rec := serve(h, http.MethodGet, "/users/1", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"name":7}`, rec.Body.String())
		assert.Equal(t, []string{"response does not match its documentation"}, logger.warnings())
	})

	t.Run("valid response logs nothing", func(t *testing.T) {
		v := mustValidator(t)
		logger := &recordingLogger{}
		h := mustMiddleware(t, v, WithResponseValidation(true), WithLogger(logger))(userApp(`{"name":"ada"}`))

		serve(h, http.MethodGet, "/users/1", "", "")
		assert.Empty(t, logger.warnings())
	})
}

func TestResponseRecorder(t *testing.T) {
	t.Run("status defaults to 200", func(t *testing.T) {
		r := &responseRecorder{ResponseWriter: httptest.NewRecorder(), limit: 10}
		_, err := r.Write([]byte("hi"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, r.statusCode())
		assert.Equal(t, "hi", r.body.String())
	})

	t.Run("first WriteHeader wins", func(t *testing.T) {
		r := &responseRecorder{ResponseWriter: httptest.NewRecorder(), limit: 10}
		r.WriteHeader(http.StatusAccepted)
		assert.Equal(t, http.StatusAccepted, r.statusCode())
	})

	t.Run("body over the limit is dropped", func(t *testing.T) {
		inner := httptest.NewRecorder()
		r := &responseRecorder{ResponseWriter: inner, limit: 4}
		_, _ = r.Write([]byte("abc"))
		_, _ = r.Write([]byte("def"))
		assert.True(t, r.truncated)
		assert.Zero(t, r.body.Len())
		assert.Equal(t, "abcdef", inner.Body.String())
	})

	t.Run("unwrap", func(t *testing.T) {
		inner := httptest.NewRecorder()
		r := &responseRecorder{ResponseWriter: inner}
		assert.Same(t, inner, r.Unwrap())
	})
}

// =============================================================================
// Options
// =============================================================================

func TestOptions(t *testing.T) {
	v := mustValidator(t)
	tests := []struct {
		name   string
		option Option
	}{
		{"empty plugin", WithPlugin("")},
		{"nil registry", WithRegistry(nil)},
		{"nil tracker", WithTracker(nil)},
		{"nil logger", WithLogger(nil)},
		{"body status 500", WithBodyStatus(http.StatusInternalServerError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(v, tt.option)
			require.Error(t, err)
			var cfgErr *oaserrors.ConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}

	t.Run("StatusFor", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, StatusFor(httpvalidator.Failure{Kind: httpvalidator.KindRouteNotFound}, 422))
		assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(httpvalidator.Failure{Kind: httpvalidator.KindInvalidBody}, 422))
		assert.Equal(t, http.StatusBadRequest, StatusFor(httpvalidator.Failure{Kind: httpvalidator.KindInvalidCookie}, 422))
	})
}
