package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/erraggy/oasguard/definition"
)

// RoutesFlags contains flags for the routes command
type RoutesFlags struct {
	Method  string
	Format  string
	Quiet   bool
	Verbose bool
}

// SetupRoutesFlags creates and configures a FlagSet for the routes command.
func SetupRoutesFlags() (*flag.FlagSet, *RoutesFlags) {
	fs := flag.NewFlagSet("routes", flag.ContinueOnError)
	flags := &RoutesFlags{}

	fs.StringVar(&flags.Method, "method", "", "only list operations with this HTTP method")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: tab-separated rows without headers")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: tab-separated rows without headers")
	fs.BoolVar(&flags.Verbose, "v", false, "log document loading at debug level")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oasguard routes [flags] <file|->\n\n")
		Writef(fs.Output(), "List the operations of an OpenAPI document in the order requests are matched:\n")
		Writef(fs.Output(), "templates with fewer parameters first, then declaration order.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oasguard routes openapi.yaml\n")
		Writef(fs.Output(), "  oasguard routes --method post --format json openapi.yaml\n")
		Writef(fs.Output(), "  cat openapi.yaml | oasguard routes -q -\n")
	}

	return fs, flags
}

// Route is one row of the routes output.
type Route struct {
	Method      string   `json:"method" yaml:"method"`
	Path        string   `json:"path" yaml:"path"`
	OperationID string   `json:"operationId" yaml:"operationId"`
	Parameters  int      `json:"parameters" yaml:"parameters"`
	Body        bool     `json:"body" yaml:"body"`
	Responses   []string `json:"responses" yaml:"responses"`
}

// HandleRoutes executes the routes command
func HandleRoutes(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, flags := SetupRoutesFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("routes command requires exactly one file path or '-' for stdin")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	logger := newLogger(flags.Verbose)
	def, err := loadDefinition(fs.Arg(0), stdin, logger)
	if err != nil {
		return err
	}
	v, err := newValidator(def, logger, false)
	if err != nil {
		return err
	}

	routes := CollectRoutes(def, v.Router().Templates(), flags.Method)
	if flags.Format != FormatText {
		return OutputStructured(stdout, routes, flags.Format)
	}

	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		body := ""
		if r.Body {
			body = "body"
		}
		rows = append(rows, []string{r.Method, r.Path, r.OperationID, body, strings.Join(r.Responses, ",")})
	}
	RenderTable(stdout, []string{"METHOD", "PATH", "OPERATION", "BODY", "RESPONSES"}, rows, flags.Quiet)
	return nil
}

// CollectRoutes lists the operations of def in the order of templates,
// keeping only method when it is set.
func CollectRoutes(def *definition.Definition, templates []string, method string) []Route {
	var routes []Route
	for _, tmpl := range templates {
		for _, op := range def.Operations() {
			if op.Path != tmpl || (method != "" && !strings.EqualFold(op.Method, method)) {
				continue
			}
			r := Route{
				Method:      op.Method,
				Path:        op.Path,
				OperationID: op.ID,
				Parameters:  len(op.Parameters),
				Body:        op.RequestBody != nil,
			}
			for _, resp := range op.Responses {
				r.Responses = append(r.Responses, resp.Status)
			}
			routes = append(routes, r)
		}
	}
	return routes
}
