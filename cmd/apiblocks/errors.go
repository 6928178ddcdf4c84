package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/strogmv/apiblocks/compiler"
	"github.com/strogmv/apiblocks/compiler/blocksem"
)

// errRunFailed marks a program that ran but did not pass.
var errRunFailed = errors.New("run did not pass")

// stageFailure prefixes err for the terminal and keeps its chain, so the
// exit code still sees the ContractError.
func stageFailure(prefix string, err error) error {
	return fmt.Errorf("%s: %w", prefix, err)
}

// exitCode is 1 for a failed run, 3 for a program that does not compile and
// 4 for anything else.
func exitCode(err error) int {
	var ce *compiler.ContractError
	switch {
	case errors.Is(err, errRunFailed):
		return 1
	case errors.As(err, &ce):
		return 3
	default:
		return 4
	}
}

// emitIssues prints validation issues and reports whether any is an error.
func emitIssues(w io.Writer, issues []blocksem.Issue) bool {
	hasErrors := false
	for _, it := range issues {
		severity := "WARN"
		if it.Severity != "" {
			severity = strings.ToUpper(it.Severity)
		}
		if severity == "ERROR" {
			hasErrors = true
		}
		fmt.Fprintf(w, "⚠️  %s [%s]: %s\n", severity, it.Code, it.Message)
		if it.BlockID != "" {
			fmt.Fprintf(w, "   at block %s (%s)\n", it.BlockID, it.Path)
		}
		if it.Hint != "" {
			fmt.Fprintf(w, "   💡 Hint: %s\n", it.Hint)
		}
	}
	return hasErrors
}

func compileIssues(err error) []blocksem.Issue {
	var ie *compiler.IssuesError
	if errors.As(err, &ie) {
		return ie.Issues
	}
	return nil
}
