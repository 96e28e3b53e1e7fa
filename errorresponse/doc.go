// Package errorresponse renders validation failures into wire-level error
// bodies.
//
// Formatters are looked up by name in a Registry built at startup and
// passed to the middleware. Two formatters are always registered:
//
//   - "default": application/json
//   - "jsonapi": application/vnd.api+json
//
// Both emit one entry per located error:
//
//	{"errors":[{"status":"400","source":{"pointer":"/name"},"title":"got number, want string"}]}
//
// The source key is "pointer" for body errors and "parameter", "header",
// or "cookie" for parameters, whose pointer is given without its leading
// slash. Failures without located errors render a single entry holding
// the status and a summary title.
//
// Registration is last-wins and may happen at any time; lookups never
// block.
package errorresponse
