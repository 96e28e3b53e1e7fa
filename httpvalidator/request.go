package httpvalidator

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/internal/httputil"
	"github.com/erraggy/oasguard/schemaengine"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Request is the framework-neutral view of an HTTP request.
type Request struct {
	Method string

	// Path is the escaped request path, without the query string.
	Path string

	Query   url.Values
	Header  http.Header
	Cookies map[string]string

	Body        []byte
	ContentType string

	// oversize is set when the body exceeded the read limit.
	oversize bool
}

// RequestFromHTTP reads r into a Request. At most maxBody bytes of the
// body are read; r.Body is replaced so the application can still read
// the full body.
func RequestFromHTTP(r *http.Request, maxBody int64) (*Request, error) {
	req := &Request{
		Method:      r.Method,
		Path:        r.URL.EscapedPath(),
		Query:       r.URL.Query(),
		Header:      r.Header,
		Cookies:     make(map[string]string),
		ContentType: r.Header.Get("Content-Type"),
	}
	for _, c := range r.Cookies() {
		if _, dup := req.Cookies[c.Name]; !dup {
			req.Cookies[c.Name] = c.Value
		}
	}
	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}

	body, oversize, err := readBody(r.Body, maxBody)
	if err != nil {
		return nil, fmt.Errorf("httpvalidator: reading request body: %w", err)
	}
	if oversize {
		r.Body = readCloser{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
		req.oversize = true
		return req, nil
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	req.Body = body
	return req, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// readBody reads up to limit bytes. oversize reports whether more remained.
func readBody(r io.Reader, limit int64) (body []byte, oversize bool, err error) {
	body, err = io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body, true, nil
	}
	return body, false, nil
}

// validateParameters runs every parameter location in scan order.
func (v *Validator) validateParameters(op *definition.Operation, req *Request, pathParams map[string]string, result *RequestResult) {
	for _, loc := range definition.ParameterLocations {
		params := op.ParametersIn(loc)
		if len(params) == 0 {
			if loc == LocationQuery && v.cfg.strictQuery && len(req.Query) > 0 {
				v.validateComponent(op, loc, nil, req, pathParams, result)
			}
			continue
		}
		v.validateComponent(op, loc, params, req, pathParams, result)
	}
}

// validateComponent coerces the parameters of one location into an object
// and evaluates it against the location's component schema. Missing
// required parameters and coercion errors are reported at "/<name>"
// alongside the engine's errors in a single failure.
func (v *Validator) validateComponent(op *definition.Operation, loc Location, params []*definition.Parameter, req *Request, pathParams map[string]string, result *RequestResult) {
	data := result.Params(loc)
	var details []schemaengine.Detail
	coercion := false

	for _, p := range params {
		value, present, err := rawParam(loc, p, req, pathParams)
		if err == nil && present && value == nil && p.AllowEmptyValue {
			continue
		}
		ptr := definition.JoinPointer("", p.Name)
		switch {
		case err != nil:
			coercion = true
			details = append(details, coercionDetails(ptr, err)...)
		case !present:
			if p.Required {
				details = append(details, schemaengine.Detail{
					InstanceLocation: ptr,
					Message:          fmt.Sprintf("required %s parameter %q is missing", loc, p.Name),
				})
			}
		default:
			data[p.Name] = value
		}
	}

	if loc == LocationQuery && v.cfg.strictQuery {
		details = append(details, unknownQuery(req.Query, params)...)
	}

	schema := op.ComponentSchema(loc)
	res := v.engine.Evaluate(schema, data)
	if len(details) == 0 && res.Valid() {
		return
	}
	output := schemaengine.Output{Errors: details}.Merge(res.RawOutput())
	result.Failures = append(result.Failures, Failure{
		Kind:      KindFor(loc),
		Location:  loc,
		Operation: op,
		Result:    schemaengine.Invalid(schema, data, output),
		Coercion:  coercion,
	})
}

// rawParam extracts and coerces one parameter. For empty values that the
// parameter allows, value is nil and present is true.
func rawParam(loc Location, p *definition.Parameter, req *Request, pathParams map[string]string) (value any, present bool, err error) {
	var raw string
	switch loc {
	case LocationPath:
		raw, present = pathParams[p.Name]
		if !present {
			return nil, false, nil
		}
		value, err = decodePath(raw, p)
		return value, true, err
	case LocationQuery:
		if values := req.Query[p.Name]; len(values) == 1 && values[0] == "" && p.AllowEmptyValue {
			return nil, true, nil
		}
		return decodeQuery(req.Query, p)
	case LocationHeader:
		values := req.Header.Values(p.Name)
		if len(values) == 0 {
			return nil, false, nil
		}
		value, err = decodeHeader(strings.Join(values, ","), p)
		return value, true, err
	case LocationCookie:
		raw, present = req.Cookies[p.Name]
		if !present {
			return nil, false, nil
		}
		value, err = decodeCookie(raw, p)
		return value, true, err
	}
	return nil, false, nil
}

func unknownQuery(query url.Values, params []*definition.Parameter) []schemaengine.Detail {
	var unknown []string
	for key := range query {
		known := false
		for _, p := range params {
			if isQueryKeyOf(key, p) {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	details := make([]schemaengine.Detail, len(unknown))
	for i, key := range unknown {
		details[i] = schemaengine.Detail{
			InstanceLocation: definition.JoinPointer("", key),
			Message:          fmt.Sprintf("query parameter %q is not documented", key),
		}
	}
	return details
}

// validateBody parses and evaluates the request body.
func (v *Validator) validateBody(op *definition.Operation, req *Request, result *RequestResult) {
	rb := op.RequestBody
	if rb == nil {
		return
	}
	fail := func(schema *definition.Schema, data any, output schemaengine.Output, coercion bool) {
		result.Failures = append(result.Failures, Failure{
			Kind:      KindInvalidBody,
			Location:  LocationBody,
			Operation: op,
			Result:    schemaengine.Invalid(schema, data, output),
			Coercion:  coercion,
		})
	}

	if req.oversize {
		fail(nil, nil, schemaengine.Output{Message: fmt.Sprintf("request body exceeds %d bytes", v.cfg.maxBodySize)}, false)
		return
	}
	if len(req.Body) == 0 {
		if rb.Required {
			fail(nil, nil, schemaengine.Output{Message: "request body is required"}, false)
		}
		return
	}

	mediaType, _ := httputil.ParseMediaType(req.ContentType)
	mt := rb.MediaType(mediaType)
	if mt == nil {
		fail(nil, nil, schemaengine.Output{Message: fmt.Sprintf("content type %q is not documented for %s", req.ContentType, op)}, false)
		return
	}

	data, err := parseBody(req.Body, mediaType, mt.Schema)
	if err != nil {
		if isCoercion(err) {
			fail(mt.Schema, string(req.Body), schemaengine.Output{Errors: coercionDetails("", err)}, true)
			return
		}
		fail(mt.Schema, string(req.Body), schemaengine.Output{Message: err.Error()}, false)
		return
	}
	result.Body = data

	res := v.engine.Evaluate(mt.Schema, data)
	if !res.Valid() {
		fail(mt.Schema, data, res.RawOutput(), false)
	}
}

// parseBody decodes a body by media type: JSON into generic values with
// json.Number, URL-encoded forms through the schema's property types, and
// anything else as a string.
func parseBody(body []byte, mediaType string, schema *definition.Schema) (any, error) {
	switch {
	case httputil.IsJSONMediaType(mediaType):
		data, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("body is not valid JSON: %w", err)
		}
		return data, nil
	case mediaType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("body is not a valid form: %w", err)
		}
		data := make(map[string]any, len(form))
		var errs coercionErrors
		for _, key := range sortedKeys(form) {
			v, err := decodeProperty(form[key], schema.Property(key))
			if err != nil {
				errs = appendWithin(errs, err, key)
				continue
			}
			data[key] = v
		}
		if len(errs) > 0 {
			return nil, errs.err()
		}
		return data, nil
	default:
		return string(body), nil
	}
}
