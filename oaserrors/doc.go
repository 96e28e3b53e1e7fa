// Package oaserrors provides structured error types for oasguard.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish routing failures from
// validation failures and from fatal startup problems.
//
// # Error Categories
//
//   - RouteError: no documented operation matches a request (404 semantics)
//   - ParseError: the API document could not be decoded
//   - ReferenceError: a local $ref in the API document could not be resolved
//   - PluginError: an error formatter name was never registered
//   - ConfigError: invalid configuration or input options
//
// Request and response validation failures are reported as values, not
// errors. Callers that opt into fail-fast mode receive an
// httpvalidator.FailureError, which matches ErrInvalidRequest or
// ErrInvalidResponse.
//
// # Usage with errors.Is
//
//	result, err := v.ValidateRequest(req)
//	if errors.Is(err, oaserrors.ErrRouteNotFound) {
//	    // respond 404
//	}
package oaserrors
