// Package mcp exposes workspace compilation and runs as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/strogmv/apiblocks/compiler"
	"github.com/strogmv/apiblocks/compiler/blocksem"
	"github.com/strogmv/apiblocks/internal/service"
)

// Report is the JSON body of every tool result.
type Report struct {
	Status      string            `json:"status"`
	Summary     []string          `json:"summary"`
	Diagnostics []blocksem.Issue  `json:"diagnostics,omitempty"`
	Artifacts   map[string]any    `json:"artifacts,omitempty"`
	NextActions []string          `json:"next_actions,omitempty"`
	Codes       map[string]string `json:"codes,omitempty"`
}

func (r *Report) ToJSON() string {
	b, _ := json.MarshalIndent(r, "", "  ")
	return string(b)
}

func (r *Report) Result() *mcp.CallToolResult {
	res := mcp.NewToolResultText(r.ToJSON())
	res.IsError = r.Status == "error"
	return res
}

// NewServer registers the tools and prompts backed by runner.
func NewServer(runner *service.Runner) *server.MCPServer {
	s := server.NewMCPServer(
		"apiblocks",
		compiler.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	t := &tools{runner: runner}

	addTool := func(tool mcp.Tool, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) {
		s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return safeInvokeTool(tool.Name, func() (*mcp.CallToolResult, error) { return h(ctx, request) })
		})
	}

	addTool(mcp.NewTool("list_block_types",
		mcp.WithDescription("List every block type with its value slots, fields, options and defaults."),
	), t.listBlockTypes)

	addTool(mcp.NewTool("compile_workspace",
		mcp.WithDescription("Compile a block workspace into a program and return its listing, hash and canonical JSON."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Workspace source: editor JSON, plain JSON, YAML or CUE.")),
		mcp.WithString("format", mcp.Description("json (default), yaml or cue."), mcp.Enum("json", "yaml", "cue")),
		mcp.WithString("name", mcp.Description("Program name; defaults to the workspace name.")),
	), t.compileWorkspace)

	addTool(mcp.NewTool("run_workspace",
		mcp.WithDescription("Compile and run a workspace, returning every observation line and the outcome."),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Workspace source: editor JSON, plain JSON, YAML or CUE.")),
		mcp.WithString("format", mcp.Description("json (default), yaml or cue."), mcp.Enum("json", "yaml", "cue")),
		mcp.WithString("name", mcp.Description("Program name; defaults to the workspace name.")),
	), t.runWorkspace)

	addTool(mcp.NewTool("get_run",
		mcp.WithDescription("Fetch a previous run by id."),
		mcp.WithString("id", mcp.Required()),
	), t.getRun)

	addTool(mcp.NewTool("export_go",
		mcp.WithDescription("Export a compiled program as a standalone Go program that replays its calls and checks."),
		mcp.WithString("hash", mcp.Required(), mcp.Description("Program hash returned by compile_workspace.")),
	), t.exportGo)

	registerPrompts(s)
	return s
}

// Run serves the tools over stdio until the client disconnects.
func Run(runner *service.Runner) error {
	if err := server.ServeStdio(NewServer(runner)); err != nil {
		fmt.Fprintf(os.Stderr, "[apiblocks mcp] server error: %v\n", err)
		return err
	}
	return nil
}
