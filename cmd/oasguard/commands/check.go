package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/erraggy/oasguard/errorresponse"
	"github.com/erraggy/oasguard/httpvalidator"
	"github.com/erraggy/oasguard/middleware"
	"github.com/erraggy/oasguard/schemaengine"
)

// CheckFlags contains flags for the check command
type CheckFlags struct {
	Method      string
	Headers     headerFlags
	Data        string
	ContentType string
	Plugin      string
	BodyStatus  int
	StrictQuery bool
	BasePath    bool
	Format      string
	Quiet       bool
	Verbose     bool
}

// SetupCheckFlags creates and configures a FlagSet for the check command.
func SetupCheckFlags() (*flag.FlagSet, *CheckFlags) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	flags := &CheckFlags{}

	fs.StringVar(&flags.Method, "X", http.MethodGet, "HTTP method")
	fs.Var(&flags.Headers, "H", "request header 'Name: value' (repeatable)")
	fs.StringVar(&flags.Data, "d", "", "request body, or @file to read it from a file")
	fs.StringVar(&flags.ContentType, "content-type", "", "Content-Type of the body (default application/json when -d is set)")
	fs.StringVar(&flags.Plugin, "plugin", errorresponse.KindDefault.String(), "error body format: default or jsonapi")
	fs.IntVar(&flags.BodyStatus, "body-status", http.StatusBadRequest, "status for invalid bodies: 400 or 422")
	fs.BoolVar(&flags.StrictQuery, "strict-query", false, "reject undocumented query parameters")
	fs.BoolVar(&flags.BasePath, "base-path", false, "expect paths prefixed with the first server URL's path")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only set the exit code")
	fs.BoolVar(&flags.Verbose, "v", false, "log matching and validation at debug level")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oasguard check [flags] <file|-> <path>\n\n")
		Writef(fs.Output(), "Check one HTTP request against an OpenAPI document and print the error\n")
		Writef(fs.Output(), "response a server guarded by oasguard would send.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oasguard check openapi.yaml '/pets/1'\n")
		Writef(fs.Output(), "  oasguard check -X POST -d '{\"name\":\"rex\"}' openapi.yaml /pets\n")
		Writef(fs.Output(), "  oasguard check -H 'X-Request-Id: 42' --plugin jsonapi openapi.yaml '/pets?limit=10'\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Request is valid\n")
		Writef(fs.Output(), "  1    Request is invalid, or the command failed\n")
	}

	return fs, flags
}

// CheckResult is the structured output of the check command.
type CheckResult struct {
	Valid       bool           `json:"valid" yaml:"valid"`
	Method      string         `json:"method" yaml:"method"`
	Path        string         `json:"path" yaml:"path"`
	OperationID string         `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Failures    []CheckFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Response    *CheckResponse `json:"response,omitempty" yaml:"response,omitempty"`
	Params      map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// CheckFailure is one failed component.
type CheckFailure struct {
	Kind    string                `json:"kind" yaml:"kind"`
	Message string                `json:"message" yaml:"message"`
	Errors  []schemaengine.Detail `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// CheckResponse is the rendered error response.
type CheckResponse struct {
	Status      int    `json:"status" yaml:"status"`
	ContentType string `json:"contentType" yaml:"contentType"`
	Body        string `json:"body" yaml:"body"`
}

// HandleCheck executes the check command. It returns ErrFailed when the
// request is invalid.
func HandleCheck(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, flags := SetupCheckFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("check command requires a file path (or '-') and a request path")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	specPath, target := fs.Arg(0), fs.Arg(1)
	if !strings.HasPrefix(target, "/") {
		return fmt.Errorf("request path must start with '/', got %q", target)
	}
	if specPath == StdinFilePath && strings.HasPrefix(flags.Data, "@-") {
		return fmt.Errorf("stdin cannot hold both the document and the body")
	}

	if _, err := errorresponse.NewRegistry().Lookup(flags.Plugin); err != nil {
		return err
	}

	body, err := readData(flags.Data, stdin)
	if err != nil {
		return err
	}

	logger := newLogger(flags.Verbose)
	def, err := loadDefinition(specPath, stdin, logger)
	if err != nil {
		return err
	}
	v, err := newValidator(def, logger, flags.BasePath, httpvalidator.WithStrictQuery(flags.StrictQuery))
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(strings.ToUpper(flags.Method), "http://localhost"+target, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	flags.Headers.apply(req.Header.Set)
	switch {
	case flags.ContentType != "":
		req.Header.Set("Content-Type", flags.ContentType)
	case body != "" && req.Header.Get("Content-Type") == "":
		req.Header.Set("Content-Type", "application/json")
	}

	result, err := runCheck(v, req, flags)
	if err != nil {
		return err
	}
	if err := printCheck(stdout, result, flags); err != nil {
		return err
	}
	if !result.Valid {
		return ErrFailed
	}
	return nil
}

// runCheck sends req through the validation middleware, so the rendered
// response is exactly what a guarded server answers.
func runCheck(v *httpvalidator.Validator, req *http.Request, flags *CheckFlags) (*CheckResult, error) {
	mw, err := middleware.New(v,
		middleware.WithPlugin(flags.Plugin),
		middleware.WithBodyStatus(flags.BodyStatus),
	)
	if err != nil {
		return nil, err
	}

	check := &CheckResult{Method: req.Method, Path: req.URL.RequestURI()}
	var validated *httpvalidator.RequestResult
	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validated, _ = httpvalidator.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	mw(app).ServeHTTP(rec, req)

	if validated != nil {
		check.Valid = true
		check.OperationID = validated.Operation.ID
		check.Params = make(map[string]any)
		for _, loc := range []httpvalidator.Location{httpvalidator.LocationPath, httpvalidator.LocationQuery, httpvalidator.LocationHeader, httpvalidator.LocationCookie} {
			if p := validated.Params(loc); len(p) > 0 {
				check.Params[loc.String()] = p
			}
		}
		return check, nil
	}

	// The middleware rejected the request; validate again for the failure
	// details it does not expose.
	result, err := v.ValidateHTTPRequest(req)
	if err != nil {
		return nil, err
	}
	if result.Operation != nil {
		check.OperationID = result.Operation.ID
	}
	for _, f := range result.Failures {
		cf := CheckFailure{Kind: f.Kind.String(), Message: f.Message()}
		if f.Result != nil {
			cf.Errors = f.Result.Errors()
		}
		check.Failures = append(check.Failures, cf)
	}
	check.Response = &CheckResponse{
		Status:      rec.Code,
		ContentType: rec.Header().Get("Content-Type"),
		Body:        rec.Body.String(),
	}
	return check, nil
}

func printCheck(w io.Writer, result *CheckResult, flags *CheckFlags) error {
	if flags.Quiet {
		return nil
	}
	if flags.Format != FormatText {
		return OutputStructured(w, result, flags.Format)
	}
	if result.Valid {
		Writef(w, "✓ %s %s matches %s\n", result.Method, result.Path, result.OperationID)
		return nil
	}
	Writef(w, "✗ %s %s", result.Method, result.Path)
	if result.OperationID != "" {
		Writef(w, " (%s)", result.OperationID)
	}
	Writef(w, ": %d failure(s)\n", len(result.Failures))
	for _, f := range result.Failures {
		Writef(w, "  %s: %s\n", f.Kind, f.Message)
	}
	Writef(w, "\nHTTP %d %s\nContent-Type: %s\n\n%s\n",
		result.Response.Status, http.StatusText(result.Response.Status),
		result.Response.ContentType, result.Response.Body)
	return nil
}

// readData resolves the -d flag: a literal body, @file, or @- for stdin.
func readData(data string, stdin io.Reader) (string, error) {
	name, ok := strings.CutPrefix(data, "@")
	if !ok {
		return data, nil
	}
	var b []byte
	var err error
	if name == StdinFilePath {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(name) //nolint:gosec // G304 - user-supplied CLI input
	}
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(b), nil
}
