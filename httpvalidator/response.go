package httpvalidator

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/internal/httputil"
	"github.com/erraggy/oasguard/schemaengine"
)

// ValidateResponse validates resp against the operation matched by req.
// resp.Body is read and replaced so the caller can still consume it.
//
// Returns an error if the request does not match a documented operation,
// if the body cannot be read, or, in raise mode, if the response is invalid.
func (v *Validator) ValidateResponse(req *http.Request, resp *http.Response) (*ResponseResult, error) {
	if req == nil || resp == nil {
		return nil, fmt.Errorf("httpvalidator: request and response cannot be nil")
	}
	m, err := v.router.Match(req.Method, req.URL.EscapedPath())
	if err != nil {
		return nil, err
	}

	var body []byte
	if resp.Body != nil && resp.Body != http.NoBody {
		var oversize bool
		body, oversize, err = readBody(resp.Body, v.cfg.maxBodySize)
		if err != nil {
			return nil, fmt.Errorf("httpvalidator: reading response body: %w", err)
		}
		if oversize {
			resp.Body = readCloser{io.MultiReader(bytes.NewReader(body), resp.Body), resp.Body}
			result := &ResponseResult{Operation: m.Operation, StatusCode: resp.StatusCode}
			result.Failures = append(result.Failures, responseFailure(m.Operation, LocationBody, nil, nil,
				schemaengine.Output{Message: fmt.Sprintf("response body exceeds %d bytes", v.cfg.maxBodySize)}))
			return v.finishResponse(result)
		}
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	return v.ValidateResponseData(m.Operation, resp.StatusCode, resp.Header, body)
}

// ValidateResponseData validates captured response parts against op.
// This is useful in middleware, where the status, headers and body were
// recorded from a ResponseWriter rather than read from an *http.Response.
func (v *Validator) ValidateResponseData(op *definition.Operation, status int, header http.Header, body []byte) (*ResponseResult, error) {
	if op == nil {
		return nil, fmt.Errorf("httpvalidator: operation cannot be nil")
	}
	result := &ResponseResult{Operation: op, StatusCode: status}

	resp, ok := op.Response(status)
	if !ok {
		result.Failures = append(result.Failures, responseFailure(op, LocationBody, nil, nil,
			schemaengine.Output{Message: fmt.Sprintf("status %d is not documented for %s", status, op)}))
		return v.finishResponse(result)
	}
	result.ResponseKey = resp.Status

	if !v.cfg.skipResponseHeaders {
		if f, failed := v.validateResponseHeaders(op, resp, header); failed {
			result.Failures = append(result.Failures, f)
		}
	}
	if f, failed := v.validateResponseBody(op, resp, header, body); failed {
		result.Failures = append(result.Failures, f)
	}
	return v.finishResponse(result)
}

func (v *Validator) finishResponse(result *ResponseResult) (*ResponseResult, error) {
	if len(result.Failures) == 0 {
		return result, nil
	}
	v.cfg.logger.Debug("response failed validation",
		"operation", result.Operation.ID,
		"status", result.StatusCode,
		"failures", len(result.Failures),
	)
	if v.cfg.raiseError {
		return result, &FailureError{Failures: result.Failures, Response: true}
	}
	return result, nil
}

func responseFailure(op *definition.Operation, loc Location, schema *definition.Schema, data any, output schemaengine.Output) Failure {
	return Failure{
		Kind:      KindInvalidResponse,
		Location:  loc,
		Operation: op,
		Result:    schemaengine.Invalid(schema, data, output),
	}
}

// validateResponseHeaders checks each documented header on its own and
// reports all header errors as one failure located at "/<name>".
func (v *Validator) validateResponseHeaders(op *definition.Operation, resp *definition.Response, header http.Header) (Failure, bool) {
	var output schemaengine.Output
	values := make(map[string]any)
	for _, h := range resp.Headers {
		ptr := definition.JoinPointer("", h.Name)
		raw := header.Values(h.Name)
		if len(raw) == 0 {
			if h.Required {
				output.Errors = append(output.Errors, schemaengine.Detail{
					InstanceLocation: ptr,
					Message:          fmt.Sprintf("required response header %q is missing", h.Name),
				})
			}
			continue
		}
		value, err := decodeSimple(strings.Join(raw, ","), h.Schema, false)
		if err != nil {
			output.Errors = append(output.Errors, coercionDetails(ptr, err)...)
			continue
		}
		values[h.Name] = value
		if res := v.engine.Evaluate(h.Schema, value); !res.Valid() {
			output = output.Merge(res.RawOutput().Prefixed(ptr))
		}
	}
	if len(output.Errors) == 0 && output.Message == "" {
		return Failure{}, false
	}
	return responseFailure(op, LocationHeader, nil, values, output), true
}

func (v *Validator) validateResponseBody(op *definition.Operation, resp *definition.Response, header http.Header, body []byte) (Failure, bool) {
	if len(resp.Content) == 0 {
		return Failure{}, false
	}
	if len(body) == 0 {
		return responseFailure(op, LocationBody, nil, nil, schemaengine.Output{
			Message: fmt.Sprintf("response body is empty but response %s of %s declares content", resp.Status, op),
		}), true
	}

	contentType := header.Get("Content-Type")
	mediaType, _ := httputil.ParseMediaType(contentType)
	mt := resp.MediaType(mediaType)
	if mt == nil {
		return responseFailure(op, LocationBody, nil, nil, schemaengine.Output{
			Message: fmt.Sprintf("content type %q is not documented for response %s of %s", contentType, resp.Status, op),
		}), true
	}

	data, err := parseBody(body, mediaType, mt.Schema)
	if err != nil {
		return responseFailure(op, LocationBody, mt.Schema, string(body), schemaengine.Output{Message: err.Error()}), true
	}
	if res := v.engine.Evaluate(mt.Schema, data); !res.Valid() {
		return responseFailure(op, LocationBody, mt.Schema, data, res.RawOutput()), true
	}
	return Failure{}, false
}
