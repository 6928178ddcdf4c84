package main

import (
	"fmt"
	"io"
	"os"

	"github.com/strogmv/apiblocks/compiler"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "blocks":
		err = runBlocks(args, os.Stdout)
	case "compile":
		err = runCompile(args, os.Stdout)
	case "hash":
		err = runHash(args, os.Stdout)
	case "run":
		err = runRun(args, os.Stdout)
	case "export":
		err = runExport(args, os.Stdout)
	case "serve":
		err = runServe(args)
	case "mcp":
		err = runMCP(args)
	case "watch":
		err = runWatch(args, os.Stdout)
	case "version":
		runVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage(os.Stdout)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "apiblocks: block-based API tests v%s\n", compiler.Version)
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  apiblocks blocks    List block kinds and their slots")
	fmt.Fprintln(w, "  apiblocks compile   Compile a workspace and print its instruction listing")
	fmt.Fprintln(w, "  apiblocks hash      Print the canonical hash of a workspace")
	fmt.Fprintln(w, "  apiblocks run       Compile and run a workspace against live endpoints")
	fmt.Fprintln(w, "  apiblocks export    Export a workspace as a standalone Go program")
	fmt.Fprintln(w, "  apiblocks serve     Start the HTTP and WebSocket API")
	fmt.Fprintln(w, "  apiblocks mcp       Serve the MCP tools over stdio")
	fmt.Fprintln(w, "  apiblocks watch     Print run events published on NATS")
	fmt.Fprintln(w, "  apiblocks version   Print the version")
}

func runVersion(w io.Writer) {
	fmt.Fprintf(w, "apiblocks %s\n", compiler.Version)
}
