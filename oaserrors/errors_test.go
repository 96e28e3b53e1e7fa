package oaserrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestRouteError(t *testing.T) {
	t.Run("Error message for unknown path", func(t *testing.T) {
		err := &RouteError{Method: "GET", Path: "/nope"}
		if err.Error() != "route not found: GET /nope" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message for undocumented method", func(t *testing.T) {
		err := &RouteError{Method: "DELETE", Path: "/pets", MethodNotAllowed: true}
		if err.Error() != "route not found: method DELETE is not documented for path /pets" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrRouteNotFound", func(t *testing.T) {
		err := &RouteError{Method: "GET", Path: "/x"}
		if !errors.Is(err, ErrRouteNotFound) {
			t.Error("should match ErrRouteNotFound")
		}
		if errors.Is(err, ErrMethodNotAllowed) {
			t.Error("should not match ErrMethodNotAllowed")
		}
	})

	t.Run("Is matches ErrMethodNotAllowed when flagged", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &RouteError{MethodNotAllowed: true})
		if !errors.Is(err, ErrMethodNotAllowed) || !errors.Is(err, ErrRouteNotFound) {
			t.Error("should match both route sentinels")
		}
	})
}

func TestParseError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := &ParseError{
			Path:    "/path/to/file.yaml",
			Line:    42,
			Column:  10,
			Message: "invalid syntax",
			Cause:   cause,
		}

		msg := err.Error()
		if msg != "parse error in /path/to/file.yaml at line 42, column 10: invalid syntax: underlying error" {
			t.Errorf("unexpected error message: %s", msg)
		}
	})

	t.Run("Error message with minimal fields", func(t *testing.T) {
		err := &ParseError{}
		if err.Error() != "parse error" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("underlying")
		err := &ParseError{Cause: cause}
		//nolint:errorlint // testing pointer identity
		if unwrapped := err.Unwrap(); unwrapped != cause {
			t.Error("Unwrap should return cause")
		}
	})

	t.Run("Is matches ErrParse only", func(t *testing.T) {
		err := &ParseError{Message: "bad"}
		if !errors.Is(err, ErrParse) {
			t.Error("should match ErrParse")
		}
		if errors.Is(err, ErrReference) || errors.Is(err, ErrConfig) {
			t.Error("should not match other sentinels")
		}
	})

	t.Run("As extracts ParseError", func(t *testing.T) {
		wrapped := fmt.Errorf("loading: %w", &ParseError{Path: "api.yaml", Line: 3})
		var pe *ParseError
		if !errors.As(wrapped, &pe) {
			t.Fatal("errors.As should extract ParseError")
		}
		if pe.Line != 3 {
			t.Errorf("expected line 3, got %d", pe.Line)
		}
	})
}

func TestReferenceError(t *testing.T) {
	t.Run("Error message for normal reference error", func(t *testing.T) {
		err := &ReferenceError{Ref: "#/components/schemas/Pet", Message: "not found"}
		if err.Error() != "reference error: #/components/schemas/Pet: not found" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message for circular reference", func(t *testing.T) {
		err := &ReferenceError{Ref: "#/components/schemas/A", IsCircular: true}
		if err.Error() != "circular reference: #/components/schemas/A" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrCircularReference when IsCircular", func(t *testing.T) {
		err := &ReferenceError{IsCircular: true}
		if !errors.Is(err, ErrReference) || !errors.Is(err, ErrCircularReference) {
			t.Error("should match both reference sentinels")
		}
	})

	t.Run("Is does not match ErrCircularReference when not circular", func(t *testing.T) {
		err := &ReferenceError{}
		if errors.Is(err, ErrCircularReference) {
			t.Error("should not match ErrCircularReference")
		}
	})
}

func TestPluginError(t *testing.T) {
	err := &PluginError{Name: "xml", Known: []string{"default", "jsonapi"}}
	if err.Error() != `plugin not found: "xml" (registered: [default jsonapi])` {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, ErrPluginNotFound) {
		t.Error("should match ErrPluginNotFound")
	}
	if errors.Is(err, ErrConfig) {
		t.Error("should not match ErrConfig")
	}
}

func TestConfigError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		err := &ConfigError{
			Option:  "maxBodySize",
			Value:   -1,
			Message: "cannot be negative",
			Cause:   errors.New("boom"),
		}
		if err.Error() != "configuration error for maxBodySize (value: -1): cannot be negative: boom" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Error message minimal", func(t *testing.T) {
		err := &ConfigError{}
		if err.Error() != "configuration error" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is matches ErrConfig", func(t *testing.T) {
		if !errors.Is(&ConfigError{}, ErrConfig) {
			t.Error("should match ErrConfig")
		}
	})
}
