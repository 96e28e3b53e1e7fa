package mcpserver

import (
	"context"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type listOperationsInput struct {
	Spec   specInput `json:"spec"             jsonschema:"The OpenAPI document to list"`
	Method string    `json:"method,omitempty" jsonschema:"Filter by HTTP method"`
	Path   string    `json:"path,omitempty"   jsonschema:"Filter by substring of the path template"`
	Limit  int       `json:"limit,omitempty"  jsonschema:"Maximum number of results to return (default 100)"`
	Offset int       `json:"offset,omitempty" jsonschema:"Skip the first N results (for pagination)"`
}

type parameterSummary struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required,omitempty"`
	Style    string `json:"style"`
}

type operationSummary struct {
	OperationID  string             `json:"operation_id"`
	Method       string             `json:"method"`
	Path         string             `json:"path"`
	Parameters   []parameterSummary `json:"parameters,omitempty"`
	BodyTypes    []string           `json:"body_types,omitempty"`
	BodyRequired bool               `json:"body_required,omitempty"`
	Responses    []string           `json:"responses,omitempty"`
}

type listOperationsOutput struct {
	Version    string             `json:"version"`
	BasePath   string             `json:"base_path,omitempty"`
	Total      int                `json:"total"`
	Matched    int                `json:"matched"`
	Returned   int                `json:"returned"`
	Operations []operationSummary `json:"operations,omitempty"`
}

func handleListOperations(_ context.Context, _ *mcp.CallToolRequest, input listOperationsInput) (*mcp.CallToolResult, listOperationsOutput, error) {
	v, err := input.Spec.resolve()
	if err != nil {
		return errResult(err), listOperationsOutput{}, nil
	}
	def := v.Definition()

	// Router order is match order: fewer placeholders first.
	var all []*definition.Operation
	for _, tmpl := range v.Router().Templates() {
		for _, op := range def.Operations() {
			if op.Path == tmpl {
				all = append(all, op)
			}
		}
	}

	var matched []*definition.Operation
	for _, op := range all {
		if input.Method != "" && !strings.EqualFold(op.Method, input.Method) {
			continue
		}
		if input.Path != "" && !strings.Contains(op.Path, input.Path) {
			continue
		}
		matched = append(matched, op)
	}
	page := paginate(matched, input.Offset, input.Limit)

	output := listOperationsOutput{
		Version:    def.Version(),
		BasePath:   def.BasePath(),
		Total:      len(all),
		Matched:    len(matched),
		Returned:   len(page),
		Operations: makeSlice[operationSummary](len(page)),
	}
	for _, op := range page {
		output.Operations = append(output.Operations, summarizeOperation(op))
	}
	return nil, output, nil
}

func summarizeOperation(op *definition.Operation) operationSummary {
	s := operationSummary{
		OperationID: op.ID,
		Method:      op.Method,
		Path:        op.Path,
		Parameters:  makeSlice[parameterSummary](len(op.Parameters)),
		Responses:   makeSlice[string](len(op.Responses)),
	}
	for _, p := range op.Parameters {
		s.Parameters = append(s.Parameters, parameterSummary{
			Name:     p.Name,
			In:       p.In.String(),
			Required: p.Required,
			Style:    p.Style,
		})
	}
	if op.RequestBody != nil {
		s.BodyRequired = op.RequestBody.Required
		for _, mt := range op.RequestBody.Content {
			s.BodyTypes = append(s.BodyTypes, mt.Name)
		}
	}
	for _, r := range op.Responses {
		s.Responses = append(s.Responses, r.Status)
	}
	return s
}
