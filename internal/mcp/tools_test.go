package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/strogmv/apiblocks/internal/adapter/cache/memory"
	repomem "github.com/strogmv/apiblocks/internal/adapter/repository/memory"
	"github.com/strogmv/apiblocks/internal/engine"
	"github.com/strogmv/apiblocks/internal/service"
)

func newTools(status int) *tools {
	tr := engine.TransportFunc(func(ctx context.Context, call engine.Call) (*engine.Reply, error) {
		return &engine.Reply{Status: status, Headers: http.Header{}, Body: []byte(`{"id":7}`)}, nil
	})
	return &tools{runner: service.NewRunner(service.Deps{
		Runs:      repomem.NewRunRepository(),
		Programs:  cachemem.NewProgramStore(),
		Transport: tr,
	})}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func decodeReport(t *testing.T, res *mcp.CallToolResult) Report {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var r Report
	require.NoError(t, json.Unmarshal([]byte(text.Text), &r))
	return r
}

const yamlWorkspace = `name: ids
blocks:
  - type: http_request
    values: {URL: "https://api.example.com/items/7"}
    statements:
      ASSERTIONS:
        - type: assert_status
          fields: {STATUS: "200"}
        - type: assert_json_path
          values: {PATH: id, VALUE: 7}
`

func TestListBlockTypes(t *testing.T) {
	t.Parallel()
	res, err := newTools(200).listBlockTypes(context.Background(), call(nil))
	require.NoError(t, err)
	r := decodeReport(t, res)
	assert.Equal(t, "ok", r.Status)
	assert.Contains(t, r.Summary[0], "http_request")
}

func TestCompileWorkspace(t *testing.T) {
	t.Parallel()
	tl := newTools(200)
	res, err := tl.compileWorkspace(context.Background(), call(map[string]any{"workspace": yamlWorkspace, "format": "yaml"}))
	require.NoError(t, err)
	r := decodeReport(t, res)
	assert.Equal(t, "ok", r.Status)
	assert.Contains(t, r.Artifacts["listing"], "assert_json_key")
	assert.Len(t, r.Artifacts["hash"], 64)

	res, err = tl.compileWorkspace(context.Background(), call(map[string]any{"workspace": `{"blocks":[{"type":"ftp_upload"}]}`}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	r = decodeReport(t, res)
	assert.Equal(t, "ASSEMBLY_UNKNOWN_BLOCK_TYPE", r.Codes["code"])

	res, err = tl.compileWorkspace(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.Equal(t, "invalid", decodeReport(t, res).Status)
}

func TestRunWorkspaceAndGetRun(t *testing.T) {
	t.Parallel()
	tl := newTools(200)
	res, err := tl.runWorkspace(context.Background(), call(map[string]any{"workspace": yamlWorkspace, "format": "yaml"}))
	require.NoError(t, err)
	r := decodeReport(t, res)
	assert.Equal(t, "passed", r.Status)
	assert.Contains(t, r.Artifacts["lines"], "JSON path vérifié: id = 7")

	id, _ := r.Artifacts["runId"].(string)
	res, err = tl.getRun(context.Background(), call(map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, "passed", decodeReport(t, res).Status)
}

func TestRunWorkspaceFailingAssertionIsNotAToolError(t *testing.T) {
	t.Parallel()
	res, err := newTools(500).runWorkspace(context.Background(), call(map[string]any{"workspace": yamlWorkspace, "format": "yaml"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	r := decodeReport(t, res)
	assert.Equal(t, "failed", r.Status)
	assert.Contains(t, r.Summary[1], "Status attendu: 200, reçu: 500")
}

func TestSafeInvokeToolRecoversPanics(t *testing.T) {
	t.Parallel()
	res, err := safeInvokeTool("boom", func() (*mcp.CallToolResult, error) { panic("kaboom") })
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, decodeReport(t, res).Summary[0], "kaboom")
}

func TestNewServerRegistersTools(t *testing.T) {
	t.Parallel()
	s := NewServer(newTools(200).runner)
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"list_block_types", "compile_workspace", "run_workspace", "get_run", "export_go"} {
		assert.Contains(t, string(raw), `"name":"`+name+`"`)
	}
}

func TestExportGo(t *testing.T) {
	t.Parallel()
	tl := newTools(200)
	res, err := tl.compileWorkspace(context.Background(), call(map[string]any{"workspace": yamlWorkspace, "format": "yaml"}))
	require.NoError(t, err)
	hash, _ := decodeReport(t, res).Artifacts["hash"].(string)

	res, err = tl.exportGo(context.Background(), call(map[string]any{"hash": hash}))
	require.NoError(t, err)
	r := decodeReport(t, res)
	assert.Equal(t, "ok", r.Status)
	assert.Contains(t, r.Artifacts["main.go"], "package main")

	res, err = tl.exportGo(context.Background(), call(map[string]any{"hash": "unknown"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, []string{"compile_workspace"}, decodeReport(t, res).NextActions)

	res, err = tl.exportGo(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Equal(t, "invalid", decodeReport(t, res).Status)
}
