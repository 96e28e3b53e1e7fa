package definition

import "sort"

// maxRefDepth bounds how many $ref hops the structural view follows.
const maxRefDepth = 32

// Schema is a schema node of the document.
//
// Location is what a schema engine compiles. The structural accessors
// (Type, Items, Property, AdditionalProperties) follow local $ref chains and
// allOf members; they exist for parameter coercion and are not a substitute
// for full schema evaluation.
type Schema struct {
	location   string
	raw        any
	ref        *Schema
	types      []string
	items      *Schema
	properties map[string]*Schema
	additional *Schema
	allOf      []*Schema
}

// Location returns the absolute location of the schema: a resource URL
// followed by a JSON Pointer fragment.
func (s *Schema) Location() string {
	if s == nil {
		return ""
	}
	return s.location
}

// Raw returns the decoded schema node. Numbers are json.Number.
// The returned value must not be modified.
func (s *Schema) Raw() any {
	if s == nil {
		return nil
	}
	return s.raw
}

// resolved follows $ref hops to the schema that carries structure.
func (s *Schema) resolved() *Schema {
	for i := 0; s != nil && s.ref != nil && i < maxRefDepth; i++ {
		s = s.ref
	}
	return s
}

// Types returns the declared types, including "null" for nullable schemas.
func (s *Schema) Types() []string {
	r := s.resolved()
	if r == nil {
		return nil
	}
	if len(r.types) > 0 {
		return r.types
	}
	for _, sub := range r.allOf {
		if t := sub.Types(); len(t) > 0 {
			return t
		}
	}
	return nil
}

// Type returns the first declared non-null type, or "" if none is declared.
func (s *Schema) Type() string {
	types := s.Types()
	for _, t := range types {
		if t != "null" {
			return t
		}
	}
	if len(types) > 0 {
		return types[0]
	}
	return ""
}

// Nullable reports whether the schema admits null.
func (s *Schema) Nullable() bool {
	for _, t := range s.Types() {
		if t == "null" {
			return true
		}
	}
	return false
}

// Items returns the array item schema, or nil.
func (s *Schema) Items() *Schema {
	r := s.resolved()
	if r == nil {
		return nil
	}
	if r.items != nil {
		return r.items
	}
	for _, sub := range r.allOf {
		if items := sub.Items(); items != nil {
			return items
		}
	}
	return nil
}

// Property returns the schema of a named object property, looking through
// allOf members and falling back to additionalProperties.
func (s *Schema) Property(name string) *Schema {
	r := s.resolved()
	if r == nil {
		return nil
	}
	if p, ok := r.properties[name]; ok {
		return p
	}
	for _, sub := range r.allOf {
		if p := sub.Property(name); p != nil {
			return p
		}
	}
	return r.additional
}

// PropertyNames returns the declared property names in sorted order,
// followed by those of allOf members.
func (s *Schema) PropertyNames() []string {
	r := s.resolved()
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.properties))
	for name := range r.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, sub := range r.allOf {
		names = append(names, sub.PropertyNames()...)
	}
	return names
}
