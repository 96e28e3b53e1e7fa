// Package definition loads an OpenAPI 3.x document into an immutable set of
// operations that the validators match requests against.
//
// A Definition is built once at startup and shared by every concurrent
// validation. Nothing in this package mutates a Definition after Load or
// Parse returns, so reads need no locking.
//
// # Loading
//
//	def, err := definition.Load("openapi.yaml",
//	    definition.WithLogger(definition.NewSlogAdapter(slog.Default())),
//	)
//	if err != nil {
//	    log.Fatal(err) // malformed documents and unresolved references are fatal
//	}
//	for _, op := range def.Operations() {
//	    fmt.Println(op.Method, op.Path, op.ID)
//	}
//
// # Schemas
//
// Every schema the validators evaluate is exposed through Schemas, each with
// an absolute location (document URL plus JSON pointer fragment) that a
// schema engine compiles against the raw documents returned by Resources.
// Parameters of one location (path, query, header, cookie) are grouped into
// a single object schema per operation, so one evaluation reports every
// offending parameter with a pointer such as "/limit".
//
// Schema also carries a structural view (types, items, properties) used to
// coerce string-carried parameter values before evaluation. Local $ref
// chains are followed by that view; external references are rejected at
// load time.
package definition
