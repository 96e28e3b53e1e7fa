package mcpserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/erraggy/oasguard/errorresponse"
	"github.com/erraggy/oasguard/httpvalidator"
	"github.com/erraggy/oasguard/middleware"
	"github.com/erraggy/oasguard/schemaengine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type validateRequestInput struct {
	Spec        specInput         `json:"spec"                   jsonschema:"The OpenAPI document to validate against"`
	Method      string            `json:"method"                 jsonschema:"HTTP method (get\\, post\\, put\\, delete\\, patch\\, etc.)"`
	Path        string            `json:"path"                   jsonschema:"Request path with optional query string, e.g. /pets/1?limit=10"`
	Headers     map[string]string `json:"headers,omitempty"      jsonschema:"Request headers by name; cookies go in the Cookie header"`
	ContentType string            `json:"content_type,omitempty" jsonschema:"Content-Type of the body (overrides headers)"`
	Body        string            `json:"body,omitempty"         jsonschema:"Raw request body"`
	Plugin      string            `json:"plugin,omitempty"       jsonschema:"Error body format: default or jsonapi"`
	BodyStatus  int               `json:"body_status,omitempty"  jsonschema:"Status for invalid bodies: 400 or 422"`
}

type failureOutput struct {
	Kind     string                `json:"kind"`
	Location string                `json:"location"`
	Message  string                `json:"message"`
	Coercion bool                  `json:"coercion,omitempty"`
	Errors   []schemaengine.Detail `json:"errors,omitempty"`
}

type errorResponseOutput struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

type validateRequestOutput struct {
	Valid       bool                      `json:"valid"`
	OperationID string                    `json:"operation_id,omitempty"`
	Failures    []failureOutput           `json:"failures,omitempty"`
	Params      map[string]map[string]any `json:"params,omitempty"`
	Body        any                       `json:"body,omitempty"`
	Response    *errorResponseOutput      `json:"response,omitempty"`
}

func handleValidateRequest(ctx context.Context, _ *mcp.CallToolRequest, input validateRequestInput) (*mcp.CallToolResult, validateRequestOutput, error) {
	plugin := cfg.Plugin
	if input.Plugin != "" {
		plugin = input.Plugin
	}
	bodyStatus := cfg.BodyStatus
	if input.BodyStatus != 0 {
		bodyStatus = input.BodyStatus
	}
	if bodyStatus != http.StatusBadRequest && bodyStatus != http.StatusUnprocessableEntity {
		return errResult(fmt.Errorf("body_status must be 400 or 422, got %d", bodyStatus)), validateRequestOutput{}, nil
	}
	formatter, err := errorresponse.NewRegistry().Lookup(plugin)
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}

	v, err := input.Spec.resolve()
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}
	req, err := buildRequest(ctx, input)
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}
	result, err := v.ValidateHTTPRequest(req)
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}

	output := validateRequestOutput{Valid: result.Valid()}
	if result.Operation != nil {
		output.OperationID = result.Operation.ID
	}
	if result.Valid() {
		output.Params = make(map[string]map[string]any)
		for _, loc := range []httpvalidator.Location{httpvalidator.LocationPath, httpvalidator.LocationQuery, httpvalidator.LocationHeader, httpvalidator.LocationCookie} {
			if params := result.Params(loc); len(params) > 0 {
				output.Params[loc.String()] = params
			}
		}
		output.Body = result.Body
		return nil, output, nil
	}

	output.Failures = failureOutputs(result.Failures)
	rendered, err := formatter.Render(middleware.StatusFor(result.Failures[0], bodyStatus), result.Failures)
	if err != nil {
		return errResult(err), validateRequestOutput{}, nil
	}
	output.Response = &errorResponseOutput{
		Status:      rendered.Status,
		ContentType: rendered.ContentType,
		Body:        string(rendered.Body),
	}
	return nil, output, nil
}

func buildRequest(ctx context.Context, input validateRequestInput) (*http.Request, error) {
	if input.Method == "" {
		return nil, fmt.Errorf("method is required")
	}
	if !strings.HasPrefix(input.Path, "/") {
		return nil, fmt.Errorf("path must start with '/', got %q", input.Path)
	}
	var body io.Reader
	if input.Body != "" {
		body = strings.NewReader(input.Body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(input.Method), "http://localhost"+input.Path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for name, value := range input.Headers {
		req.Header.Set(name, value)
	}
	if input.ContentType != "" {
		req.Header.Set("Content-Type", input.ContentType)
	}
	return req, nil
}

func failureOutputs(failures []httpvalidator.Failure) []failureOutput {
	out := makeSlice[failureOutput](len(failures))
	for _, f := range failures {
		fo := failureOutput{
			Kind:     f.Kind.String(),
			Location: f.Location.String(),
			Message:  f.Message(),
			Coercion: f.Coercion,
		}
		if f.Result != nil {
			fo.Errors = f.Result.Errors()
		}
		out = append(out, fo)
	}
	return out
}
