package definition

import (
	"github.com/erraggy/oasguard/internal/httputil"
)

// Operation is a documented (method, path template) endpoint.
type Operation struct {
	// ID is the operationId, or "METHOD /template" when the document omits it.
	ID string

	// Method is the upper-case HTTP method.
	Method string

	// Path is the path template, e.g. "/pets/{petId}".
	Path string

	// Index is the declaration order of the operation within the document.
	Index int

	// Parameters holds path-level and operation-level parameters merged,
	// in declaration order. Operation-level entries replace path-level
	// entries with the same name and location.
	Parameters []*Parameter

	// RequestBody is nil when the operation declares none.
	RequestBody *RequestBody

	// Responses holds the declared responses in declaration order.
	Responses []*Response

	components [LocationBody]*Schema
}

// String returns "METHOD /template".
func (o *Operation) String() string {
	return o.Method + " " + o.Path
}

// ParametersIn returns the parameters declared for one location.
func (o *Operation) ParametersIn(loc Location) []*Parameter {
	var out []*Parameter
	for _, p := range o.Parameters {
		if p.In == loc {
			out = append(out, p)
		}
	}
	return out
}

// ComponentSchema returns the object schema grouping every parameter of a
// location, or nil when the location has no parameters.
func (o *Operation) ComponentSchema(loc Location) *Schema {
	if loc < 0 || loc >= LocationBody {
		return nil
	}
	return o.components[loc]
}

// Response finds the response declared for a status code: the exact code
// first, then its class wildcard (e.g. "2XX"), then "default".
func (o *Operation) Response(status int) (*Response, bool) {
	for _, key := range httputil.StatusCandidates(status) {
		for _, r := range o.Responses {
			if r.Status == key {
				return r, true
			}
		}
	}
	return nil, false
}

// Parameter is a declared path, query, header, or cookie parameter.
type Parameter struct {
	Name            string
	In              Location
	Required        bool
	Style           string
	Explode         bool
	AllowEmptyValue bool

	// Schema is nil when the parameter declares neither schema nor content.
	Schema *Schema

	// ContentType is set when the parameter uses "content" instead of
	// "schema"; its raw value is then decoded as that media type.
	ContentType string
}

// RequestBody is a declared request body.
type RequestBody struct {
	Required bool
	Content  []*MediaType
}

// MediaType returns the declared media type that best matches a parsed
// media type: exact match first, then wildcard keys in declaration order.
func (b *RequestBody) MediaType(mediaType string) *MediaType {
	if b == nil {
		return nil
	}
	return findMediaType(b.Content, mediaType)
}

// MediaType is one entry of a content map.
type MediaType struct {
	Name   string
	Schema *Schema
}

// Response is a declared response for a status code key.
type Response struct {
	// Status is the response key: "200", "2XX", or "default".
	Status  string
	Content []*MediaType
	Headers []*Header
}

// MediaType returns the declared media type matching a parsed media type.
func (r *Response) MediaType(mediaType string) *MediaType {
	if r == nil {
		return nil
	}
	return findMediaType(r.Content, mediaType)
}

// Header is a declared response header.
type Header struct {
	Name     string
	Required bool
	Schema   *Schema
}

func findMediaType(content []*MediaType, mediaType string) *MediaType {
	for _, mt := range content {
		if mt.Name == mediaType {
			return mt
		}
	}
	for _, mt := range content {
		if httputil.MatchMediaType(mt.Name, mediaType) {
			return mt
		}
	}
	return nil
}
