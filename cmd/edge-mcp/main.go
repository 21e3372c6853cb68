// Command edge-mcp serves the edge detection tools over MCP on stdin and
// stdout.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/edge-tools/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const logLevelEnv = "EDGE_MCP_LOG_LEVEL"

func main() {
	if len(os.Args) > 1 {
		os.Exit(handleArg(os.Args[1], os.Stdout, os.Stderr))
	}

	// stdout carries the protocol, so logs go to stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv(logLevelEnv) == "debug" {
		log.Printf("%s v%s (built %s, commit %s)", server.ServerName, Version, BuildTime, GitCommit)
	}

	srv := server.New(Version)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// handleArg answers the informational flags and returns the exit code.
// The server itself takes no arguments.
func handleArg(arg string, stdout, stderr io.Writer) int {
	switch arg {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "%s %s\n", server.ServerName, Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	case "--help", "-h", "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown argument %q (try --help)\n", arg)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s - MCP server for Gaussian smoothing, Sobel gradients and edge detection\n\n", server.ServerName)
	fmt.Fprintln(w, "Usage: edge-mcp [--version | --help]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n\n", logLevelEnv)

	fmt.Fprintln(w, "Tools:")
	for _, tool := range server.GetToolDefinitions() {
		fmt.Fprintf(w, "  %s\n", tool.Name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "The server speaks JSON-RPC over stdin/stdout. Register it with an MCP")
	fmt.Fprintln(w, "client by adding an entry to the client's server list, for example:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, `  "mcpServers": {`)
	fmt.Fprintln(w, `    "edge-tools": {"command": "/path/to/edge-mcp"}`)
	fmt.Fprintln(w, `  }`)
}
