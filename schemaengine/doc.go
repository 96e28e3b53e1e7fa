// Package schemaengine evaluates decoded values against the schemas of a
// loaded definition and normalizes the outcome into a Result.
//
// The validators in this module depend only on the Engine interface. The
// JSONSchema engine is the default implementation: it registers every
// resource of a definition with a JSON Schema compiler, compiles all
// operation schemas up front, and evaluates values concurrently without
// further locking.
//
// A Result never changes after it is built. Its ErrorMessage is formatted
// on first use and only for invalid results:
//
//	res := engine.Evaluate(op.ComponentSchema(definition.LocationQuery), query)
//	if !res.Valid() {
//		for _, d := range res.Errors() {
//			fmt.Println(d.InstanceLocation, d.Message)
//		}
//	}
package schemaengine
