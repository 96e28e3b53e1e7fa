package definition

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/erraggy/oasguard/internal/httputil"
	"github.com/erraggy/oasguard/oaserrors"
	"go.yaml.in/yaml/v4"
)

// httpMethods lists the operation keys of a path item.
var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// ignoredHeaders are header parameters that OpenAPI says to ignore; their
// values are governed by requestBody, responses and security schemes.
var ignoredHeaders = map[string]bool{
	"accept":        true,
	"content-type":  true,
	"authorization": true,
}

// Load reads and parses an API document from disk.
func Load(path string, opts ...Option) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: loading the caller's document is the purpose
	if err != nil {
		return nil, &oaserrors.ParseError{Path: path, Message: "reading document", Cause: err}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	opts = append([]Option{WithSourceName(abs)}, opts...)
	return Parse(data, opts...)
}

// Parse parses an API document held in memory. JSON documents are accepted
// because JSON is a subset of YAML.
func Parse(data []byte, opts ...Option) (*Definition, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &oaserrors.ParseError{Path: cfg.sourceName, Message: "invalid YAML or JSON", Cause: err}
	}
	if root.Kind == 0 {
		return nil, &oaserrors.ParseError{Path: cfg.sourceName, Message: "document is empty"}
	}

	dec := decodeNode(&root)
	doc, ok := dec.doc.(map[string]any)
	if !ok {
		return nil, &oaserrors.ParseError{Path: cfg.sourceName, Message: "document root must be a mapping"}
	}
	version, _ := doc["openapi"].(string)
	if !strings.HasPrefix(version, "3.") {
		return nil, &oaserrors.ParseError{
			Path:    cfg.sourceName,
			Message: fmt.Sprintf("unsupported document version %q: an OpenAPI 3.x document is required", version),
		}
	}
	if strings.HasPrefix(version, "3.0") {
		normalizeNullable(doc)
	}

	l := &loader{
		dec:     dec,
		doc:     doc,
		base:    sourceURL(cfg.sourceName),
		schemas: make(map[string]*Schema),
		logger:  cfg.logger,
	}
	def := &Definition{
		version:  version,
		source:   l.base,
		basePath: serverBasePath(doc),
		byID:     make(map[string]*Operation),
	}
	def.resources = append(def.resources, Resource{URL: l.base, Doc: doc})

	if err := l.loadPaths(def); err != nil {
		return nil, err
	}

	cfg.logger.Debug("loaded definition",
		"source", def.source,
		"version", def.version,
		"operations", len(def.operations),
		"schemas", len(def.schemas),
	)
	return def, nil
}

// sourceURL turns a file name or path into an absolute file URL.
func sourceURL(name string) string {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return name
	}
	p := filepath.ToSlash(name)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// serverBasePath extracts the path of servers[0].url, if any.
func serverBasePath(doc map[string]any) string {
	servers, _ := doc["servers"].([]any)
	if len(servers) == 0 {
		return ""
	}
	server, _ := servers[0].(map[string]any)
	raw, _ := server["url"].(string)
	if raw == "" || strings.Contains(raw, "{") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}

// normalizeNullable rewrites OAS 3.0 "nullable: true" into a type union so
// a JSON Schema engine accepts null where the document allows it.
func normalizeNullable(node any) {
	switch n := node.(type) {
	case map[string]any:
		if nullable, _ := n["nullable"].(bool); nullable {
			if t, ok := n["type"].(string); ok {
				n["type"] = []any{t, "null"}
			}
		}
		for _, v := range n {
			normalizeNullable(v)
		}
	case []any:
		for _, v := range n {
			normalizeNullable(v)
		}
	}
}

type loader struct {
	dec     *decoded
	doc     map[string]any
	base    string
	schemas map[string]*Schema
	logger  Logger
}

func (l *loader) location(ptr string) string {
	return l.base + "#" + ptr
}

func (l *loader) loadPaths(def *Definition) error {
	paths, _ := l.doc["paths"].(map[string]any)
	for _, template := range l.dec.keys("/paths") {
		itemPtr, item, err := l.resolve(JoinPointer("/paths", template), paths[template])
		if err != nil {
			return err
		}
		if item == nil {
			continue
		}
		shared, err := l.parameters(itemPtr, item)
		if err != nil {
			return err
		}
		for _, method := range l.dec.keys(itemPtr) {
			if !httpMethods[method] {
				continue
			}
			raw, _ := item[method].(map[string]any)
			if raw == nil {
				continue
			}
			op, err := l.operation(def, template, method, JoinPointer(itemPtr, method), raw, shared)
			if err != nil {
				return err
			}
			if _, dup := def.byID[op.ID]; dup {
				return &oaserrors.ParseError{
					Path:    def.source,
					Message: fmt.Sprintf("duplicate operationId %q", op.ID),
				}
			}
			def.byID[op.ID] = op
			def.operations = append(def.operations, op)
		}
	}
	return nil
}

func (l *loader) operation(def *Definition, template, method, ptr string, raw map[string]any, shared []*Parameter) (*Operation, error) {
	op := &Operation{
		Method: strings.ToUpper(method),
		Path:   template,
		Index:  len(def.operations),
	}
	if id, ok := raw["operationId"].(string); ok && id != "" {
		op.ID = id
	} else {
		op.ID = op.Method + " " + template
	}

	own, err := l.parameters(ptr, raw)
	if err != nil {
		return nil, err
	}
	op.Parameters = mergeParameters(shared, own)

	if rb, ok := raw["requestBody"]; ok {
		body, err := l.requestBody(JoinPointer(ptr, "requestBody"), rb)
		if err != nil {
			return nil, err
		}
		op.RequestBody = body
		for _, mt := range body.Content {
			if mt.Schema != nil {
				def.schemas = append(def.schemas, mt.Schema)
			}
		}
	}

	if responses, ok := raw["responses"].(map[string]any); ok {
		respPtr := JoinPointer(ptr, "responses")
		for _, code := range l.dec.keys(respPtr) {
			if strings.HasPrefix(code, "x-") {
				continue
			}
			if !httputil.ValidateStatusCode(code) {
				return nil, &oaserrors.ParseError{
					Path:    def.source,
					Message: fmt.Sprintf("%s: invalid response status key %q", op, code),
				}
			}
			resp, err := l.response(JoinPointer(respPtr, code), httputil.NormalizeStatusKey(code), responses[code])
			if err != nil {
				return nil, err
			}
			op.Responses = append(op.Responses, resp)
			for _, mt := range resp.Content {
				if mt.Schema != nil {
					def.schemas = append(def.schemas, mt.Schema)
				}
			}
			for _, h := range resp.Headers {
				if h.Schema != nil {
					def.schemas = append(def.schemas, h.Schema)
				}
			}
		}
	}

	for _, loc := range ParameterLocations {
		params := op.ParametersIn(loc)
		if len(params) == 0 {
			continue
		}
		component := l.componentSchema(op.Index, loc, params)
		op.components[loc] = component
		def.resources = append(def.resources, Resource{URL: component.location, Doc: component.raw})
		def.schemas = append(def.schemas, component)
	}

	l.logger.Debug("loaded operation", "operation", op.ID, "method", op.Method, "path", op.Path, "parameters", len(op.Parameters))
	return op, nil
}

// componentSchema builds the object schema grouping every parameter of one
// location. Each property refers back into the main document.
func (l *loader) componentSchema(index int, loc Location, params []*Parameter) *Schema {
	rawProps := make(map[string]any, len(params))
	props := make(map[string]*Schema, len(params))
	for _, p := range params {
		if p.Schema == nil {
			continue
		}
		rawProps[p.Name] = map[string]any{"$ref": p.Schema.location}
		props[p.Name] = p.Schema
	}
	raw := map[string]any{
		"type":       "object",
		"properties": rawProps,
	}
	return &Schema{
		location:   fmt.Sprintf("%s.params/%d/%s.json", l.base, index, loc),
		raw:        raw,
		types:      []string{"object"},
		properties: props,
	}
}

// mergeParameters overlays operation-level parameters on path-level ones,
// keeping declaration order.
func mergeParameters(shared, own []*Parameter) []*Parameter {
	out := make([]*Parameter, 0, len(shared)+len(own))
	out = append(out, shared...)
	for _, p := range own {
		replaced := false
		for i, existing := range out {
			if existing.Name == p.Name && existing.In == p.In {
				out[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

func (l *loader) parameters(ptr string, owner map[string]any) ([]*Parameter, error) {
	list, _ := owner["parameters"].([]any)
	out := make([]*Parameter, 0, len(list))
	for i, entry := range list {
		pPtr, raw, err := l.resolve(JoinPointer(ptr, "parameters", fmt.Sprint(i)), entry)
		if err != nil {
			return nil, err
		}
		p, err := l.parameter(pPtr, raw)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *loader) parameter(ptr string, raw map[string]any) (*Parameter, error) {
	name, _ := raw["name"].(string)
	in, _ := raw["in"].(string)
	loc, ok := ParseLocation(in)
	if !ok || name == "" {
		l.logger.Warn("skipping parameter", "pointer", ptr, "name", name, "in", in)
		return nil, nil
	}
	if loc == LocationHeader && ignoredHeaders[strings.ToLower(name)] {
		l.logger.Debug("ignoring header parameter", "pointer", ptr, "name", name)
		return nil, nil
	}
	p := &Parameter{Name: name, In: loc}
	p.Required, _ = raw["required"].(bool)
	if loc == LocationPath {
		p.Required = true
	}
	p.AllowEmptyValue, _ = raw["allowEmptyValue"].(bool)
	p.Style, _ = raw["style"].(string)
	if p.Style == "" {
		p.Style = defaultStyle(loc)
	}
	if explode, ok := raw["explode"].(bool); ok {
		p.Explode = explode
	} else {
		p.Explode = p.Style == "form"
	}

	if _, ok := raw["schema"]; ok {
		s, err := l.schemaAt(JoinPointer(ptr, "schema"))
		if err != nil {
			return nil, err
		}
		p.Schema = s
	} else if content, ok := raw["content"].(map[string]any); ok {
		contentPtr := JoinPointer(ptr, "content")
		for _, mt := range l.dec.keys(contentPtr) {
			p.ContentType, _ = httputil.ParseMediaType(mt)
			if entry, _ := content[mt].(map[string]any); entry != nil && entry["schema"] != nil {
				s, err := l.schemaAt(JoinPointer(contentPtr, mt, "schema"))
				if err != nil {
					return nil, err
				}
				p.Schema = s
			}
			break
		}
	}
	return p, nil
}

func defaultStyle(loc Location) string {
	switch loc {
	case LocationQuery, LocationCookie:
		return "form"
	default:
		return "simple"
	}
}

func (l *loader) requestBody(ptr string, raw any) (*RequestBody, error) {
	bodyPtr, m, err := l.resolve(ptr, raw)
	if err != nil {
		return nil, err
	}
	body := &RequestBody{}
	body.Required, _ = m["required"].(bool)
	body.Content, err = l.content(bodyPtr, m)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (l *loader) response(ptr, status string, raw any) (*Response, error) {
	respPtr, m, err := l.resolve(ptr, raw)
	if err != nil {
		return nil, err
	}
	resp := &Response{Status: status}
	resp.Content, err = l.content(respPtr, m)
	if err != nil {
		return nil, err
	}

	headers, _ := m["headers"].(map[string]any)
	headersPtr := JoinPointer(respPtr, "headers")
	for _, name := range l.dec.keys(headersPtr) {
		if strings.EqualFold(name, "Content-Type") {
			continue
		}
		hPtr, hm, err := l.resolve(JoinPointer(headersPtr, name), headers[name])
		if err != nil {
			return nil, err
		}
		h := &Header{Name: name}
		h.Required, _ = hm["required"].(bool)
		if _, ok := hm["schema"]; ok {
			h.Schema, err = l.schemaAt(JoinPointer(hPtr, "schema"))
			if err != nil {
				return nil, err
			}
		}
		resp.Headers = append(resp.Headers, h)
	}
	return resp, nil
}

func (l *loader) content(ptr string, owner map[string]any) ([]*MediaType, error) {
	content, _ := owner["content"].(map[string]any)
	contentPtr := JoinPointer(ptr, "content")
	var out []*MediaType
	for _, name := range l.dec.keys(contentPtr) {
		mediaType, _ := httputil.ParseMediaType(name)
		if !httputil.IsValidMediaType(mediaType) {
			l.logger.Warn("skipping invalid media type", "pointer", contentPtr, "mediaType", name)
			continue
		}
		mt := &MediaType{Name: mediaType}
		if entry, _ := content[name].(map[string]any); entry != nil {
			if _, ok := entry["schema"]; ok {
				s, err := l.schemaAt(JoinPointer(contentPtr, name, "schema"))
				if err != nil {
					return nil, err
				}
				mt.Schema = s
			}
		}
		out = append(out, mt)
	}
	return out, nil
}

// resolve follows a chain of local $ref objects (parameters, request
// bodies, responses, headers, path items) to the mapping they point at.
func (l *loader) resolve(ptr string, raw any) (string, map[string]any, error) {
	seen := make(map[string]bool)
	for {
		m, ok := raw.(map[string]any)
		if !ok {
			return ptr, nil, nil
		}
		ref, isRef := m["$ref"].(string)
		if !isRef {
			return ptr, m, nil
		}
		target, err := l.refPointer(ref)
		if err != nil {
			return "", nil, err
		}
		if seen[target] {
			return "", nil, &oaserrors.ReferenceError{Ref: ref, IsCircular: true}
		}
		seen[target] = true
		next, found := lookupPointer(l.doc, target)
		if !found {
			return "", nil, &oaserrors.ReferenceError{Ref: ref, Message: "target not found"}
		}
		ptr, raw = target, next
	}
}

// refPointer converts a local reference into a JSON Pointer.
func (l *loader) refPointer(ref string) (string, error) {
	if !strings.HasPrefix(ref, "#") {
		return "", &oaserrors.ReferenceError{Ref: ref, Message: "only local references are supported"}
	}
	frag := ref[1:]
	if unescaped, err := url.PathUnescape(frag); err == nil {
		frag = unescaped
	}
	return frag, nil
}

// schemaAt builds the structural view of the schema at ptr. Views are
// memoized by pointer before their children are built, so recursive
// schemas terminate.
func (l *loader) schemaAt(ptr string) (*Schema, error) {
	if s, ok := l.schemas[ptr]; ok {
		return s, nil
	}
	raw, ok := lookupPointer(l.doc, ptr)
	if !ok {
		return nil, &oaserrors.ReferenceError{Ref: "#" + ptr, Message: "target not found"}
	}
	s := &Schema{location: l.location(ptr), raw: raw}
	l.schemas[ptr] = s

	m, ok := raw.(map[string]any)
	if !ok {
		return s, nil
	}

	if ref, ok := m["$ref"].(string); ok {
		target, err := l.refPointer(ref)
		if err != nil {
			return nil, err
		}
		if target == ptr {
			return nil, &oaserrors.ReferenceError{Ref: ref, IsCircular: true}
		}
		s.ref, err = l.schemaAt(target)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	switch t := m["type"].(type) {
	case string:
		s.types = []string{t}
	case []any:
		for _, v := range t {
			if str, ok := v.(string); ok {
				s.types = append(s.types, str)
			}
		}
	}

	var err error
	if _, ok := m["items"].(map[string]any); ok {
		if s.items, err = l.schemaAt(JoinPointer(ptr, "items")); err != nil {
			return nil, err
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.properties = make(map[string]*Schema, len(props))
		for name := range props {
			if s.properties[name], err = l.schemaAt(JoinPointer(ptr, "properties", name)); err != nil {
				return nil, err
			}
		}
	}
	if _, ok := m["additionalProperties"].(map[string]any); ok {
		if s.additional, err = l.schemaAt(JoinPointer(ptr, "additionalProperties")); err != nil {
			return nil, err
		}
	}
	if all, ok := m["allOf"].([]any); ok {
		for i := range all {
			sub, err := l.schemaAt(JoinPointer(ptr, "allOf", fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			s.allOf = append(s.allOf, sub)
		}
	}
	return s, nil
}
