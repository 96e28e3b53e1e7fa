// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes oasguard validation as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/erraggy/oasguard"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `oasguard MCP server: checks HTTP requests and responses against an OpenAPI 3.x document.

Configuration: defaults are set through OASGUARD_* environment variables in your MCP client config.

Key settings:
- OASGUARD_PLUGIN (default: default): error body format for rejected requests, "default" or "jsonapi"
- OASGUARD_BODY_STATUS (default: 400): status for invalid bodies, 400 or 422
- OASGUARD_MAX_BODY_SIZE (default: 10485760): largest body that is validated
- OASGUARD_STRICT_QUERY (default: false): reject undocumented query parameters
- OASGUARD_LIST_LIMIT (default: 100): default page size for list_operations
- OASGUARD_CACHE_ENABLED (default: true), OASGUARD_CACHE_TTL (default: 15m)

Caching: compiled documents are cached per session. File entries are keyed by path and mtime, inline content by hash.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	if cfg.CacheEnabled {
		specCache.startSweeper(ctx, cfg.CacheSweepInterval)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasguard", Version: oasguard.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_request",
		Description: "Validate one HTTP request against an OpenAPI 3.x document. Matches the method and path to a documented operation, then checks path, query, header and cookie parameters and the body. Returns the failures by component, the coerced parameter values, and the error response a server running oasguard would send (status, content type, body). Plugin and body status default to OASGUARD_PLUGIN and OASGUARD_BODY_STATUS.",
	}, handleValidateRequest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_response",
		Description: "Validate one HTTP response against the operation it answers. Identify the operation by operation_id, or by method and path. Checks that the status is documented (exact code, then class such as 2XX, then default), the declared headers, and the body against the schema for its content type.",
	}, handleValidateResponse)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_operations",
		Description: "List the operations of an OpenAPI 3.x document in match order, with their parameters, request body media types and documented response statuses. Filter by method or path template substring. Use offset/limit to paginate; the default limit is configurable via OASGUARD_LIST_LIMIT.",
	}, handleListOperations)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ListLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ListLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// pathPattern matches absolute filesystem paths that must not leak to MCP
// clients through error messages.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
