package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erraggy/oasguard/internal/mcpserver"
)

// HandleMCP serves the MCP tools over stdio until the client disconnects
// or the process is interrupted.
func HandleMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oasguard mcp\n\n")
		Writef(fs.Output(), "Serve validate_request, validate_response and list_operations to an MCP client over stdio.\n")
		Writef(fs.Output(), "Defaults are read from OASGUARD_* environment variables:\n\n")
		Writef(fs.Output(), "  OASGUARD_PLUGIN         error body format (default: default)\n")
		Writef(fs.Output(), "  OASGUARD_BODY_STATUS    status for invalid bodies (default: 400)\n")
		Writef(fs.Output(), "  OASGUARD_MAX_BODY_SIZE  largest validated body in bytes (default: 10485760)\n")
		Writef(fs.Output(), "  OASGUARD_STRICT_QUERY   reject undocumented query parameters (default: false)\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("mcp command takes no arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.Run(ctx)
}
