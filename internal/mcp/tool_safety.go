package mcp

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
)

// safeInvokeTool turns a panicking handler into an error result so the
// stdio transport stays up.
func safeInvokeTool(name string, h func() (*mcp.CallToolResult, error)) (resp *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("tool %s panic: %v", name, r)
			fmt.Fprintln(os.Stderr, "[apiblocks mcp] "+msg)
			resp = (&Report{Status: "error", Summary: []string{msg}}).Result()
			err = nil
		}
	}()
	return h()
}
