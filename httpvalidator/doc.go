// Package httpvalidator validates HTTP requests and responses against a
// loaded OpenAPI 3.x definition.
//
// # Features
//
//   - Request validation: path, query, header, cookie parameters and request body
//   - Response validation: status codes, headers, and response body
//   - Parameter coercion: all OAS serialization styles (simple, label, matrix,
//     form, spaceDelimited, pipeDelimited, deepObject), with coercion
//     failures reported rather than passed through
//   - Pluggable schema evaluation through schemaengine.Engine
//   - Fail-fast mode: return a *FailureError instead of inspecting results
//
// # Basic Usage
//
//	def, _ := definition.Load("openapi.yaml")
//	v, err := httpvalidator.New(def, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, _ := v.ValidateHTTPRequest(req)
//	if !result.Valid() {
//	    for _, f := range result.Failures {
//	        log.Printf("%s: %s", f.Kind, f.Message())
//	    }
//	}
//
//	// Coerced parameters and the parsed body
//	userID := result.PathParams["userId"] // int64 for integer schemas
//	page := result.QueryParams["page"]
//
// # Components
//
// Each parameter location is one component: its parameters are coerced
// into an object keyed by name and evaluated against an object schema
// grouping them. Components are checked in the order path, query, header,
// cookie, body. The first failure decides the reported status; all of
// them are available to error formatters.
//
// Error locations are JSON Pointers into the component: "/limit" for a
// query parameter, "/filter/id/1" for an element of a deepObject array,
// "/name" for a body property.
//
// # Responses
//
// Responses resolve by exact status code, then by class ("2XX"), then by
// "default". An undocumented status is an invalid_response failure, as
// are missing required headers and bodies that do not match the declared
// content.
package httpvalidator
