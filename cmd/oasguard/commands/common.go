// Package commands provides CLI command handlers for oasguard.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/httpvalidator"
	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ErrFailed is returned when a command ran but its check did not pass.
// main exits with status 1 without printing it.
var ErrFailed = errors.New("check failed")

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data in the specified format (json or yaml).
func OutputStructured(w io.Writer, data any, format string) error {
	var b []byte
	var err error

	switch format {
	case FormatJSON:
		b, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		b, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	Writef(w, "%s\n", strings.TrimRight(string(b), "\n"))
	return nil
}

// FormatSpecPath returns a display-friendly path for the specification.
func FormatSpecPath(specPath string) string {
	if specPath == StdinFilePath {
		return "<stdin>"
	}
	return specPath
}

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr.
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil { //nolint:gosec // G705 - CLI tool, not a web server
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// RenderTable renders rows under headers as fixed-width columns.
// In quiet mode, headers are omitted and cells are tab-separated for piping.
func RenderTable(w io.Writer, headers []string, rows [][]string, quiet bool) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			switch {
			case quiet && i > 0:
				Writef(w, "\t%s", cell)
			case quiet:
				Writef(w, "%s", cell)
			case i == len(cells)-1:
				Writef(w, "%s%s", sep(i), cell)
			default:
				Writef(w, "%s%-*s", sep(i), widths[i], cell)
			}
		}
		Writef(w, "\n")
	}
	if !quiet {
		writeRow(headers)
	}
	for _, row := range rows {
		writeRow(row)
	}
}

func sep(i int) string {
	if i == 0 {
		return ""
	}
	return "  "
}

// headerFlags collects repeated -H "Name: value" flags.
type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(value string) error {
	name, _, ok := strings.Cut(value, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("header must be 'Name: value', got %q", value)
	}
	*h = append(*h, value)
	return nil
}

func (h headerFlags) apply(set func(name, value string)) {
	for _, raw := range h {
		name, value, _ := strings.Cut(raw, ":")
		set(strings.TrimSpace(name), strings.TrimSpace(value))
	}
}

// newLogger returns a text slog logger on stderr at debug level when
// verbose is set, warn level otherwise.
func newLogger(verbose bool) definition.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return definition.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadDefinition loads a document from a file or, for "-", from stdin.
func loadDefinition(specPath string, stdin io.Reader, logger definition.Logger) (*definition.Definition, error) {
	if specPath != StdinFilePath {
		def, err := definition.Load(specPath, definition.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", specPath, err)
		}
		return def, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	def, err := definition.Parse(data, definition.WithLogger(logger), definition.WithSourceName("stdin.yaml"))
	if err != nil {
		return nil, fmt.Errorf("parsing stdin: %w", err)
	}
	return def, nil
}

// newValidator compiles a validator for def, applying the document's
// server base path when useBasePath is set.
func newValidator(def *definition.Definition, logger definition.Logger, useBasePath bool, opts ...httpvalidator.Option) (*httpvalidator.Validator, error) {
	opts = append(opts, httpvalidator.WithLogger(logger))
	if base := def.BasePath(); useBasePath && base != "" {
		opts = append(opts, httpvalidator.WithBasePath(base))
	}
	return httpvalidator.New(def, nil, opts...)
}
