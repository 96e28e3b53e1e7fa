package httpvalidator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/internal/httputil"
	"github.com/erraggy/oasguard/schemaengine"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// coercionError reports a raw value that cannot be converted to its
// declared type. Pointer locates the value inside the parameter.
type coercionError struct {
	Pointer string
	Message string
}

func (e *coercionError) Error() string {
	return e.Message
}

// coercionErrors collects every coercion error of one value, in the order
// the value was decoded.
type coercionErrors []*coercionError

func (e coercionErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ce := range e {
		msgs[i] = ce.Message
	}
	return strings.Join(msgs, "; ")
}

// err returns nil when empty and the lone error when there is only one.
func (e coercionErrors) err() error {
	switch len(e) {
	case 0:
		return nil
	case 1:
		return e[0]
	default:
		return e
	}
}

// appendWithin appends err to errs with its pointers prefixed by token.
func appendWithin(errs coercionErrors, err error, token string) coercionErrors {
	prefix := definition.JoinPointer("", token)
	switch e := err.(type) {
	case *coercionError:
		return append(errs, &coercionError{Pointer: prefix + e.Pointer, Message: e.Message})
	case coercionErrors:
		for _, ce := range e {
			errs = append(errs, &coercionError{Pointer: prefix + ce.Pointer, Message: ce.Message})
		}
		return errs
	default:
		return append(errs, &coercionError{Pointer: prefix, Message: err.Error()})
	}
}

// isCoercion reports whether err came from decoding a value.
func isCoercion(err error) bool {
	switch err.(type) {
	case *coercionError, coercionErrors:
		return true
	}
	return false
}

// coercionDetails locates decoding errors under the pointer of their parameter.
func coercionDetails(ptr string, err error) []schemaengine.Detail {
	switch e := err.(type) {
	case *coercionError:
		return []schemaengine.Detail{{InstanceLocation: ptr + e.Pointer, Message: e.Message}}
	case coercionErrors:
		details := make([]schemaengine.Detail, len(e))
		for i, ce := range e {
			details[i] = schemaengine.Detail{InstanceLocation: ptr + ce.Pointer, Message: ce.Message}
		}
		return details
	default:
		return []schemaengine.Detail{{InstanceLocation: ptr, Message: err.Error()}}
	}
}

func newCoercionError(value, want string) *coercionError {
	return &coercionError{Message: fmt.Sprintf("value %q is not a valid %s", value, want)}
}

// single returns the only value of a non-array parameter.
func single(values []string) (string, error) {
	if len(values) > 1 {
		return "", &coercionError{Message: fmt.Sprintf("%d values given for a single-valued parameter", len(values))}
	}
	return values[0], nil
}

// Parameters are decoded according to their serialization style. Each
// location has a default style:
//
// | Location | Default Style | Default Explode |
// |----------|---------------|-----------------|
// | path     | simple        | false           |
// | query    | form          | true            |
// | header   | simple        | false           |
// | cookie   | form          | true            |

// decodePath decodes a path parameter value according to its style.
//
// Styles supported:
//   - simple (default): comma-separated values, e.g., "a,b,c"
//   - label: dot-prefixed values, e.g., ".a.b.c"
//   - matrix: semicolon-prefixed key=value, e.g., ";id=5"
func decodePath(value string, p *definition.Parameter) (any, error) {
	if p.ContentType != "" {
		return decodeContent(value, p)
	}
	switch p.Style {
	case "label":
		return decodeLabel(value, p.Schema, p.Explode)
	case "matrix":
		return decodeMatrix(value, p.Name, p.Schema, p.Explode)
	default:
		return decodeSimple(value, p.Schema, p.Explode)
	}
}

// decodeHeader decodes a header parameter. Headers only use style "simple".
func decodeHeader(value string, p *definition.Parameter) (any, error) {
	if p.ContentType != "" {
		return decodeContent(value, p)
	}
	return decodeSimple(value, p.Schema, p.Explode)
}

// decodeCookie decodes a cookie parameter. Cookies only use style "form";
// a cookie carries a single value, so arrays and objects are always
// comma-separated.
func decodeCookie(value string, p *definition.Parameter) (any, error) {
	if p.ContentType != "" {
		return decodeContent(value, p)
	}
	return decodeSimple(value, p.Schema, false)
}

// decodeQuery decodes a query parameter from the full query string.
// present is false when the request does not carry the parameter.
//
// Styles supported:
//   - form (default): standard query string format
//   - spaceDelimited: space-separated values
//   - pipeDelimited: pipe-separated values
//   - deepObject: nested object notation, e.g., "filter[status]=active"
//
// Object parameters in any style also accept bracket notation, so
// "filter[id]=1,2" decodes to {"id": [1, 2]} when "id" is an array.
func decodeQuery(query url.Values, p *definition.Parameter) (value any, present bool, err error) {
	schema := p.Schema
	values, ok := query[p.Name]

	if p.Style == "deepObject" || (!ok && schema.Type() == "object") {
		if obj, found, err := decodeBrackets(query, p.Name, schema); found || err != nil {
			return obj, true, err
		}
	}
	if !ok {
		if p.Style == "form" && p.Explode && schema.Type() == "object" {
			if obj, found, err := decodeExplodedForm(query, schema); found || err != nil {
				return obj, found, err
			}
		}
		return nil, false, nil
	}
	if p.ContentType != "" {
		v, err := decodeContent(values[0], p)
		return v, true, err
	}

	switch p.Style {
	case "spaceDelimited":
		v, err := decodeDelimited(values, " ", schema)
		return v, true, err
	case "pipeDelimited":
		v, err := decodeDelimited(values, "|", schema)
		return v, true, err
	default:
		v, err := decodeForm(values, schema, p.Explode)
		return v, true, err
	}
}

// isQueryKeyOf reports whether a raw query key belongs to parameter p.
func isQueryKeyOf(key string, p *definition.Parameter) bool {
	if key == p.Name {
		return true
	}
	if strings.HasPrefix(key, p.Name+"[") {
		return true
	}
	if p.Style == "form" && p.Explode && p.Schema.Type() == "object" {
		for _, name := range p.Schema.PropertyNames() {
			if key == name {
				return true
			}
		}
	}
	return false
}

// decodeBrackets collects "name[prop]" keys into an object. Keys are
// decoded in sorted order.
func decodeBrackets(query url.Values, name string, schema *definition.Schema) (map[string]any, bool, error) {
	prefix := name + "["
	var (
		result map[string]any
		errs   coercionErrors
	)
	for _, key := range sortedKeys(query) {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			continue
		}
		prop := rest[:end]
		if result == nil {
			result = make(map[string]any)
		}
		v, err := decodeProperty(query[key], schema.Property(prop))
		if err != nil {
			errs = appendWithin(errs, err, prop)
			continue
		}
		result[prop] = v
	}
	if len(errs) > 0 {
		return nil, true, errs.err()
	}
	return result, result != nil, nil
}

// decodeExplodedForm builds an object from separate property keys
// (role=admin&firstName=Alex).
func decodeExplodedForm(query url.Values, schema *definition.Schema) (map[string]any, bool, error) {
	var (
		result map[string]any
		errs   coercionErrors
	)
	for _, prop := range schema.PropertyNames() {
		values, ok := query[prop]
		if !ok {
			continue
		}
		if result == nil {
			result = make(map[string]any)
		}
		v, err := decodeProperty(values, schema.Property(prop))
		if err != nil {
			errs = appendWithin(errs, err, prop)
			continue
		}
		result[prop] = v
	}
	if len(errs) > 0 {
		return nil, true, errs.err()
	}
	return result, result != nil, nil
}

func sortedKeys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// decodeProperty decodes the values of one object property. Array
// properties take repeated keys and comma-separated lists.
func decodeProperty(values []string, schema *definition.Schema) (any, error) {
	if schema == nil {
		if len(values) == 1 {
			return values[0], nil
		}
		raw := make([]any, len(values))
		for i, v := range values {
			raw[i] = v
		}
		return raw, nil
	}
	if schema.Type() == "array" {
		var parts []string
		for _, v := range values {
			parts = append(parts, strings.Split(v, ",")...)
		}
		return coerceArray(parts, schema.Items())
	}
	value, err := single(values)
	if err != nil {
		return nil, err
	}
	return coerceValue(value, schema)
}

// decodeSimple handles the "simple" style (comma-separated).
func decodeSimple(value string, schema *definition.Schema, explode bool) (any, error) {
	switch schema.Type() {
	case "array":
		return coerceArray(strings.Split(value, ","), schema.Items())
	case "object":
		if explode {
			// key=value,key2=value2
			return decodeKeyValues(strings.Split(value, ","), "=", schema)
		}
		// key,value,key2,value2
		return decodePairs(strings.Split(value, ","), schema)
	default:
		return coerceValue(value, schema)
	}
}

// decodeLabel handles the "label" style (dot-prefixed).
func decodeLabel(value string, schema *definition.Schema, explode bool) (any, error) {
	rest, ok := strings.CutPrefix(value, ".")
	if !ok {
		return nil, &coercionError{Message: fmt.Sprintf("value %q is not label-style: it must start with '.'", value)}
	}
	switch schema.Type() {
	case "array":
		if explode {
			return coerceArray(strings.Split(rest, "."), schema.Items())
		}
		return coerceArray(strings.Split(rest, ","), schema.Items())
	case "object":
		if explode {
			return decodeKeyValues(strings.Split(rest, "."), "=", schema)
		}
		return decodePairs(strings.Split(rest, ","), schema)
	default:
		return coerceValue(rest, schema)
	}
}

// decodeMatrix handles the "matrix" style (semicolon-prefixed).
func decodeMatrix(value, name string, schema *definition.Schema, explode bool) (any, error) {
	rest, ok := strings.CutPrefix(value, ";")
	if !ok {
		return nil, &coercionError{Message: fmt.Sprintf("value %q is not matrix-style: it must start with ';'", value)}
	}
	prefix := name + "="

	switch schema.Type() {
	case "array":
		if explode {
			// ;id=3;id=4;id=5
			var parts []string
			for _, part := range strings.Split(rest, ";") {
				if v, ok := strings.CutPrefix(part, prefix); ok {
					parts = append(parts, v)
				}
			}
			return coerceArray(parts, schema.Items())
		}
		// ;id=3,4,5
		list, _ := strings.CutPrefix(rest, prefix)
		return coerceArray(strings.Split(list, ","), schema.Items())
	case "object":
		if explode {
			// ;role=admin;firstName=Alex
			return decodeKeyValues(strings.Split(rest, ";"), "=", schema)
		}
		// ;id=role,admin,firstName,Alex
		list, _ := strings.CutPrefix(rest, prefix)
		return decodePairs(strings.Split(list, ","), schema)
	default:
		v, _ := strings.CutPrefix(rest, prefix)
		return coerceValue(v, schema)
	}
}

// decodeForm handles the "form" style (standard query string format).
func decodeForm(values []string, schema *definition.Schema, explode bool) (any, error) {
	switch schema.Type() {
	case "array":
		if explode {
			// id=3&id=4&id=5
			return coerceArray(values, schema.Items())
		}
		// id=3,4,5
		var parts []string
		for _, v := range values {
			parts = append(parts, strings.Split(v, ",")...)
		}
		return coerceArray(parts, schema.Items())
	case "object":
		// id=role,admin,firstName,Alex
		value, err := single(values)
		if err != nil {
			return nil, err
		}
		return decodePairs(strings.Split(value, ","), schema)
	default:
		value, err := single(values)
		if err != nil {
			return nil, err
		}
		return coerceValue(value, schema)
	}
}

// decodeDelimited handles space and pipe delimited styles.
func decodeDelimited(values []string, delimiter string, schema *definition.Schema) (any, error) {
	parts := strings.Split(strings.Join(values, delimiter), delimiter)
	if schema.Type() == "array" {
		return coerceArray(parts, schema.Items())
	}
	return coerceValue(parts[0], schema)
}

// decodeContent decodes a parameter declared with "content" instead of
// "schema". Only JSON media types are structured; others stay strings.
func decodeContent(value string, p *definition.Parameter) (any, error) {
	if !httputil.IsJSONMediaType(p.ContentType) {
		return value, nil
	}
	v, err := jsonschema.UnmarshalJSON(strings.NewReader(value))
	if err != nil {
		return nil, &coercionError{Message: fmt.Sprintf("value %q is not valid JSON", value)}
	}
	return v, nil
}

// decodeKeyValues decodes "key<sep>value" parts into an object.
func decodeKeyValues(parts []string, sep string, schema *definition.Schema) (map[string]any, error) {
	result := make(map[string]any)
	var errs coercionErrors
	for _, part := range parts {
		key, val, ok := strings.Cut(part, sep)
		if !ok || key == "" {
			continue
		}
		v, err := coerceValue(val, schema.Property(key))
		if err != nil {
			errs = appendWithin(errs, err, key)
			continue
		}
		result[key] = v
	}
	if len(errs) > 0 {
		return nil, errs.err()
	}
	return result, nil
}

// decodePairs decodes alternating "key,value" parts into an object.
func decodePairs(parts []string, schema *definition.Schema) (map[string]any, error) {
	if len(parts)%2 != 0 {
		return nil, &coercionError{Message: fmt.Sprintf("value %q is not a list of key,value pairs", strings.Join(parts, ","))}
	}
	result := make(map[string]any, len(parts)/2)
	var errs coercionErrors
	for i := 0; i+1 < len(parts); i += 2 {
		v, err := coerceValue(parts[i+1], schema.Property(parts[i]))
		if err != nil {
			errs = appendWithin(errs, err, parts[i])
			continue
		}
		result[parts[i]] = v
	}
	if len(errs) > 0 {
		return nil, errs.err()
	}
	return result, nil
}

// coerceValue converts a string to the primitive type its schema declares.
// Schemas that also admit strings keep the raw value when conversion fails.
func coerceValue(value string, schema *definition.Schema) (any, error) {
	if schema == nil {
		return value, nil
	}
	if value == "null" && schema.Nullable() {
		return nil, nil
	}

	var (
		v   any
		err error
	)
	switch t := schema.Type(); t {
	case "integer":
		var i int64
		if i, err = strconv.ParseInt(value, 10, 64); err == nil {
			v = i
		} else if errors.Is(err, strconv.ErrRange) && isJSONNumber(value) {
			// Out of int64 range but still an integer; the engine
			// checks it exactly.
			v, err = json.Number(value), nil
		}
	case "number":
		var f float64
		if f, err = strconv.ParseFloat(value, 64); err == nil {
			v = f
		} else if errors.Is(err, strconv.ErrRange) && isJSONNumber(value) {
			v, err = json.Number(value), nil
		}
	case "boolean":
		switch value {
		case "true":
			v = true
		case "false":
			v = false
		default:
			err = strconv.ErrSyntax
		}
	case "array":
		return coerceArray(strings.Split(value, ","), schema.Items())
	default:
		return value, nil
	}
	if err != nil {
		if admitsString(schema) {
			return value, nil
		}
		return nil, newCoercionError(value, schema.Type())
	}
	return v, nil
}

// coerceArray converts string values to a slice of typed values.
func coerceArray(values []string, items *definition.Schema) ([]any, error) {
	result := make([]any, len(values))
	var errs coercionErrors
	for i, s := range values {
		v, err := coerceValue(s, items)
		if err != nil {
			errs = appendWithin(errs, err, strconv.Itoa(i))
			continue
		}
		result[i] = v
	}
	if len(errs) > 0 {
		return nil, errs.err()
	}
	return result, nil
}

// isJSONNumber reports whether s is a number in JSON syntax. ParseFloat
// also accepts forms such as "0x1p3" and "Inf" that the engine cannot.
func isJSONNumber(s string) bool {
	return json.Valid([]byte(s)) && s != "" && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9'))
}

func admitsString(schema *definition.Schema) bool {
	for _, t := range schema.Types() {
		if t == "string" {
			return true
		}
	}
	return false
}
