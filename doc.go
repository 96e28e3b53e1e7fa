// Package oasguard validates HTTP traffic against OpenAPI 3.x documents.
//
// Requests are matched to a documented operation, every component (path,
// query, header, cookie and body) is coerced and checked against its
// schema, and failures are rendered as structured error bodies by a
// pluggable formatter. The same core checks responses for contract tests
// and tracks which documented responses a test run exercised.
//
// # Packages
//
//   - definition: load an OpenAPI document into immutable operations and schemas
//   - schemaengine: compile and evaluate JSON Schemas
//   - router: match a method and path to an operation
//   - httpvalidator: validate requests and responses
//   - errorresponse: render failures; the formatter registry
//   - coverage: record exercised (operation, status) pairs
//   - middleware: net/http middleware wiring the above
//   - contracttest: testify assertions for responses and coverage
//
// # Quick Start
//
//	def, err := definition.Load("openapi.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	v, err := httpvalidator.New(def, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	mw, err := middleware.New(v, middleware.WithPlugin("jsonapi"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	log.Fatal(http.ListenAndServe(":8080", mw(app)))
//
// A request with an invalid body is answered before it reaches app:
//
//	HTTP/1.1 400 Bad Request
//	Content-Type: application/vnd.api+json
//
//	{"errors":[{"status":"400","source":{"pointer":"/name"},"title":"got number, want string"}]}
//
// # Supported Versions
//
// OpenAPI 3.0.x and 3.1.x. OAS 3.0 schemas are evaluated as draft 4 with
// nullable rewritten to a type union; OAS 3.1 schemas as draft 2020-12.
// Only local references ("#/...") are resolved.
//
// # Command Line
//
// The oasguard command lists the routes of a document, checks a single
// request against it and serves the validator to MCP clients:
//
//	oasguard routes openapi.yaml
//	oasguard check -X POST -d '{"name":"rex"}' openapi.yaml /pets
//	oasguard mcp
package oasguard
