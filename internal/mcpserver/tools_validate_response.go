package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/httpvalidator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type validateResponseInput struct {
	Spec        specInput         `json:"spec"                   jsonschema:"The OpenAPI document to validate against"`
	OperationID string            `json:"operation_id,omitempty" jsonschema:"Operation the response answers; alternatively give method and path"`
	Method      string            `json:"method,omitempty"       jsonschema:"HTTP method of the request the response answers"`
	Path        string            `json:"path,omitempty"         jsonschema:"Request path of the request the response answers"`
	Status      int               `json:"status"                 jsonschema:"Response status code"`
	Headers     map[string]string `json:"headers,omitempty"      jsonschema:"Response headers by name"`
	ContentType string            `json:"content_type,omitempty" jsonschema:"Content-Type of the body (overrides headers)"`
	Body        string            `json:"body,omitempty"         jsonschema:"Raw response body"`
}

type validateResponseOutput struct {
	Valid       bool            `json:"valid"`
	OperationID string          `json:"operation_id"`
	ResponseKey string          `json:"response_key,omitempty"`
	Failures    []failureOutput `json:"failures,omitempty"`
}

func handleValidateResponse(_ context.Context, _ *mcp.CallToolRequest, input validateResponseInput) (*mcp.CallToolResult, validateResponseOutput, error) {
	if input.Status < 100 || input.Status > 599 {
		return errResult(fmt.Errorf("status must be between 100 and 599, got %d", input.Status)), validateResponseOutput{}, nil
	}
	v, err := input.Spec.resolve()
	if err != nil {
		return errResult(err), validateResponseOutput{}, nil
	}
	op, err := findOperation(v, input)
	if err != nil {
		return errResult(err), validateResponseOutput{}, nil
	}

	header := make(http.Header, len(input.Headers)+1)
	for name, value := range input.Headers {
		header.Set(name, value)
	}
	if input.ContentType != "" {
		header.Set("Content-Type", input.ContentType)
	}
	var body []byte
	if input.Body != "" {
		body = []byte(input.Body)
	}

	result, err := v.ValidateResponseData(op, input.Status, header, body)
	if err != nil {
		return errResult(err), validateResponseOutput{}, nil
	}
	return nil, validateResponseOutput{
		Valid:       result.Valid(),
		OperationID: op.ID,
		ResponseKey: result.ResponseKey,
		Failures:    failureOutputs(result.Failures),
	}, nil
}

func findOperation(v *httpvalidator.Validator, input validateResponseInput) (*definition.Operation, error) {
	if input.OperationID != "" {
		op, ok := v.Definition().Operation(input.OperationID)
		if !ok {
			return nil, fmt.Errorf("operation %q is not documented", input.OperationID)
		}
		return op, nil
	}
	if input.Method == "" || input.Path == "" {
		return nil, fmt.Errorf("either operation_id or both method and path must be provided")
	}
	path, _, _ := strings.Cut(input.Path, "?")
	m, err := v.Router().Match(strings.ToUpper(input.Method), path)
	if err != nil {
		return nil, err
	}
	return m.Operation, nil
}
