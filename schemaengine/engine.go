package schemaengine

import (
	"errors"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/oaserrors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Engine evaluates a schema against a decoded value.
type Engine interface {
	Evaluate(schema *definition.Schema, data any) *Result
}

// JSONSchema is an Engine backed by a compiled JSON Schema set.
// It is safe for concurrent use.
type JSONSchema struct {
	compiled map[string]*jsonschema.Schema
	lang     language.Tag
}

var _ Engine = (*JSONSchema)(nil)

// New compiles every schema of def. OpenAPI 3.0 documents are compiled
// with draft 4 semantics, later versions with draft 2020-12.
func New(def *definition.Definition, opts ...Option) (*JSONSchema, error) {
	if def == nil {
		return nil, &oaserrors.ConfigError{Option: "definition", Message: "definition cannot be nil"}
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	c := jsonschema.NewCompiler()
	if def.IsOAS30() {
		c.DefaultDraft(jsonschema.Draft4)
	} else {
		c.DefaultDraft(jsonschema.Draft2020)
	}
	if cfg.assertFormat {
		c.AssertFormat()
	}
	for _, r := range def.Resources() {
		if err := c.AddResource(r.URL, r.Doc); err != nil {
			return nil, &oaserrors.ParseError{Path: r.URL, Message: "registering schema resource", Cause: err}
		}
	}

	e := &JSONSchema{
		compiled: make(map[string]*jsonschema.Schema, len(def.Schemas())),
		lang:     language.English,
	}
	for _, s := range def.Schemas() {
		loc := s.Location()
		if _, done := e.compiled[loc]; done {
			continue
		}
		sch, err := c.Compile(loc)
		if err != nil {
			return nil, &oaserrors.ParseError{Path: loc, Message: "compiling schema", Cause: err}
		}
		e.compiled[loc] = sch
	}
	cfg.logger.Debug("compiled schemas", "source", def.Source(), "count", len(e.compiled))
	return e, nil
}

// Evaluate validates data against schema. A nil schema accepts anything.
func (e *JSONSchema) Evaluate(schema *definition.Schema, data any) *Result {
	if schema == nil {
		return Valid(nil, data)
	}
	sch, ok := e.compiled[schema.Location()]
	if !ok {
		return Invalid(schema, data, Output{Message: "schema " + schema.Location() + " is not compiled"})
	}
	err := sch.Validate(data)
	if err == nil {
		return Valid(schema, data)
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Invalid(schema, data, Output{Message: err.Error()})
	}
	return Invalid(schema, data, e.output(ve))
}

// output flattens a validation error tree into its leaf errors.
func (e *JSONSchema) output(ve *jsonschema.ValidationError) Output {
	p := message.NewPrinter(e.lang)
	var out Output
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			out.Errors = append(out.Errors, Detail{
				InstanceLocation: pointer(v.InstanceLocation),
				KeywordLocation:  pointer(v.ErrorKind.KeywordPath()),
				Message:          v.ErrorKind.LocalizedString(p),
			})
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	if len(out.Errors) == 0 {
		out.Message = ve.ErrorKind.LocalizedString(p)
	}
	return out
}

func pointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return definition.JoinPointer("", tokens...)
}

// Contains reports whether a schema location was compiled.
func (e *JSONSchema) Contains(location string) bool {
	_, ok := e.compiled[location]
	return ok
}

// Len returns the number of compiled schemas.
func (e *JSONSchema) Len() int {
	return len(e.compiled)
}
