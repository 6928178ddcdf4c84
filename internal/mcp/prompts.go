package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("apiblocks/smoke-test",
		mcp.WithPromptDescription("Guided flow to write and run a smoke test for one endpoint."),
		mcp.WithArgument("url", mcp.ArgumentDescription("Endpoint URL, e.g. https://api.example.com/users/1"), mcp.RequiredArgument()),
		mcp.WithArgument("method", mcp.ArgumentDescription("HTTP method, default GET")),
		mcp.WithArgument("expect_status", mcp.ArgumentDescription("Expected status code, default 200")),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		url := strings.TrimSpace(request.Params.Arguments["url"])
		if url == "" {
			return nil, fmt.Errorf("url is required")
		}
		method := strings.ToUpper(strings.TrimSpace(request.Params.Arguments["method"]))
		if method == "" {
			method = "GET"
		}
		status := strings.TrimSpace(request.Params.Arguments["expect_status"])
		if status == "" {
			status = "200"
		}
		text := fmt.Sprintf(
			"Write an API test as a YAML workspace and run it.\n"+
				"Target: %s %s, expected status %s.\n\n"+
				"Steps:\n"+
				"1) Call list_block_types to see the available blocks and their slots.\n"+
				"2) Build a workspace with one http_request block (fields.METHOD=%s, values.URL=%s)\n"+
				"   and an assert_status block (fields.STATUS=\"%s\") under statements.ASSERTIONS.\n"+
				"3) Call compile_workspace with format=yaml and fix any diagnostics.\n"+
				"4) Call run_workspace and report the status and the failing block, if any.\n",
			method, url, status, method, url, status,
		)
		return mcp.NewGetPromptResult(
			"apiblocks guided prompt: smoke test",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		), nil
	})
}
