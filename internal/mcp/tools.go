package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/strogmv/apiblocks/compiler"
	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/service"
)

type tools struct {
	runner *service.Runner
}

func (t *tools) listBlockTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shapes := t.runner.Registry().Shapes()
	names := make([]string, 0, len(shapes))
	for _, s := range shapes {
		names = append(names, string(s.Kind))
	}
	return (&Report{
		Status:    "ok",
		Summary:   []string{fmt.Sprintf("%d block types: %s", len(shapes), strings.Join(names, ", "))},
		Artifacts: map[string]any{"blocks": shapes},
	}).Result(), nil
}

func (t *tools) compileWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, format, name, bad := workspaceArgs(request)
	if bad != nil {
		return bad.Result(), nil
	}
	res, err := t.runner.Compile(ctx, src, format, name)
	if err != nil {
		return compileFailure(err).Result(), nil
	}
	return (&Report{
		Status: "ok",
		Summary: []string{
			fmt.Sprintf("compiled %q: %d instructions", res.Program.Name, res.Program.Len()),
			"hash " + res.Hash,
		},
		Artifacts: map[string]any{
			"hash":    res.Hash,
			"listing": ir.Format(res.Program),
			"program": json.RawMessage(res.Canonical),
		},
		NextActions: []string{"run_workspace", "export_go"},
	}).Result(), nil
}

func (t *tools) runWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, format, name, bad := workspaceArgs(request)
	if bad != nil {
		return bad.Result(), nil
	}
	run, err := t.runner.RunWorkspace(ctx, src, format, name, service.RunOptions{})
	if err != nil {
		return compileFailure(err).Result(), nil
	}
	return runReport(run).Result(), nil
}

func (t *tools) getRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("id", ""))
	if id == "" {
		return (&Report{Status: "invalid", Summary: []string{"id is required"}}).Result(), nil
	}
	run, err := t.runner.Get(ctx, id)
	if err != nil {
		return (&Report{Status: "error", Summary: []string{err.Error()}}).Result(), nil
	}
	return runReport(run).Result(), nil
}

func (t *tools) exportGo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash := strings.TrimSpace(request.GetString("hash", ""))
	if hash == "" {
		return (&Report{Status: "invalid", Summary: []string{"hash is required"}}).Result(), nil
	}
	src, err := t.runner.ExportGo(ctx, hash)
	if err != nil {
		r := compileFailure(err)
		r.NextActions = []string{"compile_workspace"}
		return r.Result(), nil
	}
	return (&Report{
		Status:    "ok",
		Summary:   []string{fmt.Sprintf("exported program %s as main.go (%d bytes)", hash, len(src))},
		Artifacts: map[string]any{"main.go": string(src)},
	}).Result(), nil
}

func workspaceArgs(request mcp.CallToolRequest) ([]byte, string, string, *Report) {
	src := request.GetString("workspace", "")
	if strings.TrimSpace(src) == "" {
		return nil, "", "", &Report{Status: "invalid", Summary: []string{"workspace is required"}}
	}
	format := strings.ToLower(strings.TrimSpace(request.GetString("format", "json")))
	if format == "" {
		format = "json"
	}
	return []byte(src), format, request.GetString("name", ""), nil
}

func compileFailure(err error) *Report {
	r := &Report{Status: "error", Summary: []string{err.Error()}}
	var ce *compiler.ContractError
	if errors.As(err, &ce) {
		r.Codes = map[string]string{"stage": string(ce.Stage), "code": ce.Code}
	}
	var issues *compiler.IssuesError
	if errors.As(err, &issues) {
		r.Diagnostics = issues.Issues
	}
	r.NextActions = []string{"list_block_types"}
	return r
}

// runReport summarizes a run. A failing program is a result, not a tool
// error: status carries the outcome.
func runReport(run *domain.Run) *Report {
	lines := make([]string, 0, len(run.Lines))
	for _, l := range run.Lines {
		lines = append(lines, l.Text)
	}
	summary := []string{fmt.Sprintf("run %s %s in %s (%d steps)", run.ID, run.Status, run.Duration(), run.Steps)}
	if run.Failure != nil {
		summary = append(summary, fmt.Sprintf("%s at block %s: %s", run.Failure.Kind, run.Failure.BlockID, run.Failure.Message))
	}
	return &Report{
		Status:  string(run.Status),
		Summary: summary,
		Artifacts: map[string]any{
			"runId": run.ID,
			"lines": lines,
			"calls": run.Calls,
		},
	}
}
