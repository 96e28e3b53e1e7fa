package definition

import "strings"

// Definition is an immutable, loaded API document.
type Definition struct {
	version    string
	source     string
	basePath   string
	operations []*Operation
	byID       map[string]*Operation
	resources  []Resource
	schemas    []*Schema
}

// Resource is a decoded document registered under an absolute URL.
// The main document is always the first resource; the remaining ones hold
// the per-location parameter object schemas.
type Resource struct {
	URL string
	Doc any
}

// Version returns the document's "openapi" field, e.g. "3.1.0".
func (d *Definition) Version() string {
	return d.version
}

// IsOAS30 reports whether the document is OpenAPI 3.0.x, whose schemas
// follow JSON Schema draft 4 semantics.
func (d *Definition) IsOAS30() bool {
	return strings.HasPrefix(d.version, "3.0")
}

// Source returns the absolute URL of the main document.
func (d *Definition) Source() string {
	return d.source
}

// BasePath returns the path component of the first server URL, without a
// trailing slash. It is empty when no server declares a path.
func (d *Definition) BasePath() string {
	return d.basePath
}

// Operations returns every operation in declaration order.
// The returned slice must not be modified.
func (d *Definition) Operations() []*Operation {
	return d.operations
}

// Operation looks up an operation by ID.
func (d *Definition) Operation(id string) (*Operation, bool) {
	op, ok := d.byID[id]
	return op, ok
}

// Resources returns the documents a schema engine must register before
// compiling Schemas. The returned slice must not be modified.
func (d *Definition) Resources() []Resource {
	return d.resources
}

// Schemas returns every schema that validation evaluates: parameter
// component schemas, request and response body schemas, and response
// header schemas. The returned slice must not be modified.
func (d *Definition) Schemas() []*Schema {
	return d.schemas
}
