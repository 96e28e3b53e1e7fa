package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/erraggy/oasguard"
	"github.com/erraggy/oasguard/cmd/oasguard/commands"
)

var commandNames = []string{"routes", "check", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("oasguard %s\n", oasguard.Version())
		fmt.Printf("commit: %s\n", oasguard.Commit())
		fmt.Printf("built: %s\n", oasguard.BuildTime())
		fmt.Printf("go: %s\n", oasguard.GoVersion())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "routes":
		err = commands.HandleRoutes(args, os.Stdin, os.Stdout)
	case "check":
		err = commands.HandleCheck(args, os.Stdin, os.Stdout)
	case "mcp":
		err = commands.HandleMCP(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, commands.ErrFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// suggestCommand returns the known command closest to input, or "" when
// none is within an edit distance of 2.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func printUsage() {
	fmt.Println(`oasguard - OpenAPI request and response validation

Usage:
  oasguard <command> [options]

Commands:
  routes      List the operations of a document in match order
  check       Check one HTTP request against a document
  mcp         Serve validation tools to an MCP client over stdio
  version     Show version information
  help        Show this help message

Examples:
  oasguard routes openapi.yaml
  oasguard check -X POST -d '{"name":"rex"}' openapi.yaml /pets
  oasguard check --plugin jsonapi --body-status 422 openapi.yaml '/pets?limit=x'

Run 'oasguard <command> --help' for more information on a command.`)
}
