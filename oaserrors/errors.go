package oaserrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrRouteNotFound indicates no operation matches the request method and path.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMethodNotAllowed indicates the path matched a template but the
	// method is not documented for it. It always accompanies ErrRouteNotFound.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrInvalidRequest indicates a request failed validation in fail-fast mode.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidResponse indicates a response failed contract validation in fail-fast mode.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrParse indicates the API document could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a $ref chain that never reaches a schema.
	ErrCircularReference = errors.New("circular reference")

	// ErrPluginNotFound indicates a lookup for an unregistered error formatter.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// RouteError reports that a request could not be mapped to a documented operation.
type RouteError struct {
	// Method is the HTTP method of the request
	Method string
	// Path is the request path that failed to match
	Path string
	// MethodNotAllowed is true when the path matched a template but the
	// method is not declared for it
	MethodNotAllowed bool
}

// Error returns a human-readable error message.
func (e *RouteError) Error() string {
	if e.MethodNotAllowed {
		return fmt.Sprintf("route not found: method %s is not documented for path %s", e.Method, e.Path)
	}
	return fmt.Sprintf("route not found: %s %s", e.Method, e.Path)
}

// Is reports whether target matches this error type.
func (e *RouteError) Is(target error) bool {
	if target == ErrRouteNotFound {
		return true
	}
	return target == ErrMethodNotAllowed && e.MethodNotAllowed
}

// ParseError represents a failure to decode an API document.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// IsCircular is true if the reference chain loops back on itself
	IsCircular bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrCircularReference when IsCircular is set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	return target == ErrCircularReference && e.IsCircular
}

// PluginError represents a lookup of an error formatter that was never registered.
type PluginError struct {
	// Name is the symbolic plugin name that was requested
	Name string
	// Known lists the names that are registered
	Known []string
}

// Error returns a human-readable error message.
func (e *PluginError) Error() string {
	msg := fmt.Sprintf("plugin not found: %q", e.Name)
	if len(e.Known) > 0 {
		msg += fmt.Sprintf(" (registered: %v)", e.Known)
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *PluginError) Is(target error) bool {
	return target == ErrPluginNotFound
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
