package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCheckJSON(t *testing.T, args ...string) (CheckResult, error) {
	t.Helper()
	var out bytes.Buffer
	err := HandleCheck(append([]string{"--format", "json"}, args...), nil, &out)
	var result CheckResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), out.String())
	return result, err
}

func TestHandleCheck_Valid(t *testing.T) {
	path := writeSpec(t)

	t.Run("coerced params", func(t *testing.T) {
		result, err := runCheckJSON(t, "-H", "X-Trace: abc", path, "/pets/12")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, "getPet", result.OperationID)
		assert.Equal(t, map[string]any{"petId": float64(12)}, result.Params["path"])
		assert.Equal(t, map[string]any{"X-Trace": "abc"}, result.Params["header"])
		assert.Nil(t, result.Response)
	})

	t.Run("body", func(t *testing.T) {
		result, err := runCheckJSON(t, "-X", "post", "-d", `{"name":"rex"}`, path, "/pets")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, "createPet", result.OperationID)
	})

	t.Run("base path", func(t *testing.T) {
		result, err := runCheckJSON(t, "--base-path", path, "/v1/pets?limit=5")
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, "/v1/pets?limit=5", result.Path)
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, HandleCheck([]string{path, "/pets/1"}, nil, &out))
		assert.Equal(t, "✓ GET /pets/1 matches getPet\n", out.String())
	})
}

func TestHandleCheck_Invalid(t *testing.T) {
	path := writeSpec(t)

	t.Run("query", func(t *testing.T) {
		result, err := runCheckJSON(t, path, "/pets?limit=100")
		assert.ErrorIs(t, err, ErrFailed)
		assert.False(t, result.Valid)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "invalid_query", result.Failures[0].Kind)
		require.NotNil(t, result.Response)
		assert.Equal(t, 400, result.Response.Status)
		assert.Equal(t, "application/json", result.Response.ContentType)
		assert.Contains(t, result.Response.Body, `"parameter":"limit"`)
	})

	t.Run("body with 422 and jsonapi", func(t *testing.T) {
		result, err := runCheckJSON(t, "-X", "POST", "-d", `{}`, "--plugin", "jsonapi", "--body-status", "422", path, "/pets")
		assert.ErrorIs(t, err, ErrFailed)
		assert.Equal(t, "invalid_body", result.Failures[0].Kind)
		assert.Equal(t, 422, result.Response.Status)
		assert.Equal(t, "application/vnd.api+json", result.Response.ContentType)
	})

	t.Run("route not found", func(t *testing.T) {
		result, err := runCheckJSON(t, path, "/owners")
		assert.ErrorIs(t, err, ErrFailed)
		assert.Equal(t, "route_not_found", result.Failures[0].Kind)
		assert.Equal(t, 404, result.Response.Status)
	})

	t.Run("quiet prints nothing", func(t *testing.T) {
		var out bytes.Buffer
		err := HandleCheck([]string{"-q", path, "/pets/abc"}, nil, &out)
		assert.ErrorIs(t, err, ErrFailed)
		assert.Empty(t, out.String())
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		err := HandleCheck([]string{path, "/pets/abc"}, nil, &out)
		assert.ErrorIs(t, err, ErrFailed)
		assert.Contains(t, out.String(), "✗ GET /pets/abc (getPet): 1 failure(s)")
		assert.Contains(t, out.String(), "HTTP 400 Bad Request")
	})
}

func TestHandleCheck_Errors(t *testing.T) {
	path := writeSpec(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing args", []string{path}},
		{"relative path", []string{path, "pets"}},
		{"unknown plugin", []string{"--plugin", "xml", path, "/pets"}},
		{"bad body status", []string{"--body-status", "500", path, "/pets"}},
		{"bad format", []string{"--format", "xml", path, "/pets"}},
		{"missing document", []string{"/nonexistent/openapi.yaml", "/pets"}},
		{"stdin twice", []string{"-d", "@-", "-", "/pets"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleCheck(tt.args, nil, &bytes.Buffer{})
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrFailed)
		})
	}
}
