package httpvalidator

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erraggy/oasguard/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const responseSpec = `
openapi: "3.1.0"
info: {title: Pets, version: "1.0"}
paths:
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - {name: id, in: path, schema: {type: integer}}
      responses:
        "200":
          description: OK
          headers:
            X-Rate-Limit:
              required: true
              schema: {type: integer, minimum: 0}
          content:
            application/json:
              schema:
                type: object
                required: [name]
                properties:
                  name: {type: string}
        4XX:
          description: client error
          content:
            application/problem+json:
              schema:
                type: object
                properties:
                  title: {type: string}
    delete:
      operationId: deletePet
      responses:
        "204": {description: deleted}
`

func okHeader() http.Header {
	return http.Header{
		"Content-Type": {"application/json"},
		"X-Rate-Limit": {"10"},
	}
}

func TestValidateResponseData(t *testing.T) {
	v := mustValidator(t, responseSpec)
	getPet, _ := v.Definition().Operation("getPet")
	deletePet, _ := v.Definition().Operation("deletePet")

	t.Run("valid response", func(t *testing.T) {
		result, err := v.ValidateResponseData(getPet, 200, okHeader(), []byte(`{"name":"Rex"}`))
		require.NoError(t, err)
		assert.True(t, result.Valid(), "%v", result.Failures)
		assert.Equal(t, "200", result.ResponseKey)
		assert.Equal(t, 200, result.StatusCode)
	})

	t.Run("wildcard status", func(t *testing.T) {
		h := http.Header{"Content-Type": {"application/problem+json"}}
		result, err := v.ValidateResponseData(getPet, 404, h, []byte(`{"title":"gone"}`))
		require.NoError(t, err)
		assert.True(t, result.Valid(), "%v", result.Failures)
		assert.Equal(t, "4XX", result.ResponseKey)
	})

	t.Run("no content", func(t *testing.T) {
		result, err := v.ValidateResponseData(deletePet, 204, http.Header{}, nil)
		require.NoError(t, err)
		assert.True(t, result.Valid())
	})

	tests := []struct {
		name     string
		status   int
		header   http.Header
		body     string
		location Location
		pointer  string
	}{
		{"undocumented status", 500, okHeader(), `{}`, LocationBody, ""},
		{"body mismatch", 200, okHeader(), `{"name":1}`, LocationBody, "/name"},
		{"empty body", 200, okHeader(), ``, LocationBody, ""},
		{"undocumented content type", 200, http.Header{"Content-Type": {"text/html"}, "X-Rate-Limit": {"1"}}, `<p>`, LocationBody, ""},
		{"missing required header", 200, http.Header{"Content-Type": {"application/json"}}, `{"name":"a"}`, LocationHeader, "/X-Rate-Limit"},
		{"header coercion", 200, http.Header{"Content-Type": {"application/json"}, "X-Rate-Limit": {"lots"}}, `{"name":"a"}`, LocationHeader, "/X-Rate-Limit"},
		{"header schema", 200, http.Header{"Content-Type": {"application/json"}, "X-Rate-Limit": {"-1"}}, `{"name":"a"}`, LocationHeader, "/X-Rate-Limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateResponseData(getPet, tt.status, tt.header, []byte(tt.body))
			require.NoError(t, err)
			require.Len(t, result.Failures, 1)
			f := result.Failures[0]
			assert.Equal(t, KindInvalidResponse, f.Kind)
			assert.Equal(t, tt.location, f.Location)
			assert.NotEmpty(t, f.Message())
			if tt.pointer != "" {
				require.NotEmpty(t, f.Result.Errors())
				assert.Equal(t, tt.pointer, f.Result.Errors()[0].InstanceLocation)
			}
		})
	}

	t.Run("skip response headers", func(t *testing.T) {
		skip := mustValidator(t, responseSpec, WithSkipResponseHeaders(true))
		op, _ := skip.Definition().Operation("getPet")
		result, err := skip.ValidateResponseData(op, 200, http.Header{"Content-Type": {"application/json"}}, []byte(`{"name":"a"}`))
		require.NoError(t, err)
		assert.True(t, result.Valid())
	})

	t.Run("nil operation", func(t *testing.T) {
		_, err := v.ValidateResponseData(nil, 200, nil, nil)
		assert.Error(t, err)
	})
}

func TestValidateResponse(t *testing.T) {
	v := mustValidator(t, responseSpec)

	t.Run("reads and restores the body", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/pets/1", nil)
		resp := &http.Response{
			StatusCode: 200,
			Header:     okHeader(),
			Body:       io.NopCloser(strings.NewReader(`{"name":"Rex"}`)),
		}
		result, err := v.ValidateResponse(req, resp)
		require.NoError(t, err)
		assert.True(t, result.Valid(), "%v", result.Failures)
		assert.Equal(t, "getPet", result.Operation.ID)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Rex"}`, string(body))
	})

	t.Run("unmatched request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/nope", nil)
		_, err := v.ValidateResponse(req, &http.Response{StatusCode: 200})
		assert.ErrorIs(t, err, oaserrors.ErrRouteNotFound)
	})

	t.Run("nil arguments", func(t *testing.T) {
		_, err := v.ValidateResponse(nil, nil)
		assert.Error(t, err)
	})

	t.Run("raise mode", func(t *testing.T) {
		raise := mustValidator(t, responseSpec, WithRaiseError(true))
		req := httptest.NewRequest("GET", "/pets/1", nil)
		resp := httptest.NewRecorder()
		resp.WriteHeader(500)
		result, err := raise.ValidateResponse(req, resp.Result())
		require.Error(t, err)
		assert.ErrorIs(t, err, oaserrors.ErrInvalidResponse)
		assert.NotErrorIs(t, err, oaserrors.ErrInvalidRequest)
		assert.False(t, result.Valid())
	})
}
