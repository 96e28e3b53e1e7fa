package schemaengine

import (
	"strings"
	"sync"

	"github.com/erraggy/oasguard/definition"
)

// Detail is one error reported by an engine.
type Detail struct {
	// InstanceLocation is a JSON Pointer into the evaluated value, e.g.
	// "/name" or "/items/0". It is empty when the error concerns the value
	// as a whole.
	InstanceLocation string `json:"instanceLocation"`

	// KeywordLocation is the schema keyword that failed, when known.
	KeywordLocation string `json:"keywordLocation,omitempty"`

	Message string `json:"message"`
}

// Output is the engine-neutral shape of an evaluation outcome: either a
// list of located errors or a single summary message.
type Output struct {
	Errors  []Detail `json:"errors,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Prefixed returns a copy of the output with prefix prepended to every
// instance location.
func (o Output) Prefixed(prefix string) Output {
	out := Output{Message: o.Message}
	if len(o.Errors) > 0 {
		out.Errors = make([]Detail, len(o.Errors))
		for i, d := range o.Errors {
			d.InstanceLocation = prefix + d.InstanceLocation
			out.Errors[i] = d
		}
	}
	return out
}

// Merge returns the combination of two outputs. Located errors are
// concatenated; summary messages are joined.
func (o Output) Merge(other Output) Output {
	out := Output{Errors: make([]Detail, 0, len(o.Errors)+len(other.Errors))}
	out.Errors = append(out.Errors, o.Errors...)
	out.Errors = append(out.Errors, other.Errors...)
	switch {
	case o.Message == "":
		out.Message = other.Message
	case other.Message == "":
		out.Message = o.Message
	default:
		out.Message = o.Message + "; " + other.Message
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out
}

// Result is the outcome of evaluating one schema against one value.
type Result struct {
	valid  bool
	schema *definition.Schema
	data   any
	output Output

	once    sync.Once
	message string
}

// Valid builds a passing result.
func Valid(schema *definition.Schema, data any) *Result {
	return &Result{valid: true, schema: schema, data: data}
}

// Invalid builds a failing result.
func Invalid(schema *definition.Schema, data any, output Output) *Result {
	return &Result{schema: schema, data: data, output: output}
}

// Valid reports whether the value satisfied the schema.
func (r *Result) Valid() bool { return r.valid }

// Schema returns the schema that was evaluated. It may be nil for results
// that never reached an engine, such as a coercion failure on a parameter
// without a schema.
func (r *Result) Schema() *definition.Schema { return r.schema }

// Data returns the evaluated value.
func (r *Result) Data() any { return r.data }

// RawOutput returns the engine output. It is empty for valid results.
func (r *Result) RawOutput() Output { return r.output }

// Errors returns the located errors. The returned slice must not be modified.
func (r *Result) Errors() []Detail { return r.output.Errors }

// ErrorMessage returns a human-readable summary of the errors. It is empty
// for valid results.
func (r *Result) ErrorMessage() string {
	if r.valid {
		return ""
	}
	r.once.Do(func() {
		r.message = formatOutput(r.output)
	})
	return r.message
}

func formatOutput(o Output) string {
	if len(o.Errors) == 0 {
		if o.Message == "" {
			return "validation failed"
		}
		return o.Message
	}
	parts := make([]string, 0, len(o.Errors))
	for _, d := range o.Errors {
		if d.InstanceLocation == "" {
			parts = append(parts, d.Message)
			continue
		}
		parts = append(parts, "at "+d.InstanceLocation+": "+d.Message)
	}
	if o.Message != "" {
		parts = append(parts, o.Message)
	}
	return strings.Join(parts, "; ")
}
