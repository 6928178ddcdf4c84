package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/blocksem"
	"github.com/strogmv/apiblocks/compiler/ir"
)

func contractCode(t *testing.T, err error) (Stage, string) {
	t.Helper()
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContractError, got %T: %v", err, err)
	}
	return ce.Stage, ce.Code
}

func TestCompileFile_Fixtures(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"editor.json", "smoke.yaml", "smoke.cue"} {
		res, err := CompileFile(filepath.Join("workspace", "testdata", name), Options{})
		require.NoError(t, err, name)
		assert.Len(t, res.Hash, 64)
		assert.Equal(t, ir.HashCanonical(res.Canonical), res.Hash)

		again, err := CompileFile(filepath.Join("workspace", "testdata", name), Options{})
		require.NoError(t, err)
		assert.Equal(t, res.Hash, again.Hash, name)
	}
}

func TestCompileFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := CompileFile(filepath.Join(t.TempDir(), "nope.json"), Options{})
	stage, code := contractCode(t, err)
	assert.Equal(t, StageWorkspace, stage)
	assert.Equal(t, ErrCodeWorkspaceRead, code)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCompileBytes_Errors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		doc    string
		format string
		stage  Stage
		code   string
	}{
		{"format", `{}`, "xml", StageWorkspace, ErrCodeWorkspaceFormat},
		{"decode", `{"blocks":[`, "json", StageWorkspace, ErrCodeWorkspaceDecode},
		{"unknown type", `{"blocks":[{"type":"soap_call"}]}`, "json", StageAssembly, ErrCodeAssemblyUnknownBlockType},
		{"shape", `{"blocks":[{"type":"assert_status","fields":{"STATUS":"302"}}]}`, "json", StageValidate, ErrCodeValidateShape},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileBytes([]byte(tc.doc), tc.format, "t", Options{})
			stage, code := contractCode(t, err)
			assert.Equal(t, tc.stage, stage)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestCompile_UnknownTypeIsSentinel(t *testing.T) {
	t.Parallel()
	var seen []blocksem.Issue
	_, err := CompileBytes([]byte(`{"blocks":[{"type":"log_message"},{"type":"ftp"}]}`), "json", "t", Options{
		IssueSink: func(it blocksem.Issue) { seen = append(seen, it) },
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, blocks.ErrUnknownBlockType))
	require.Len(t, seen, 1)
	assert.Equal(t, "b2", seen[0].BlockID)
}

func TestCompile_ShapeIssuesAreReported(t *testing.T) {
	t.Parallel()
	_, err := CompileBytes([]byte(`{"blocks":[{"type":"wait","values":{"DURATION":{"type":"log_message"}}}]}`), "json", "t", Options{})
	var issues *IssuesError
	require.True(t, errors.As(err, &issues))
	require.Len(t, issues.Issues, 1)
	assert.Equal(t, blocksem.CodeNotAnExpression, issues.Issues[0].Code)
	assert.Contains(t, err.Error(), "b1.DURATION")
}

func TestCompileBytes_NameFallback(t *testing.T) {
	t.Parallel()
	res, err := CompileBytes([]byte(`{"blocks":[{"type":"log_message","values":{"MESSAGE":"hi"}}]}`), "json", "named", Options{})
	require.NoError(t, err)
	assert.Equal(t, "named", res.Program.Name)
}

func TestCompileBytes_JoinItemCountIsBounded(t *testing.T) {
	t.Parallel()
	join := func(extra string) string {
		return `{"blocks":{"blocks":[{"type":"log_message","inputs":{"MESSAGE":{"block":` +
			`{"type":"text_join",` + extra + `}}}}]}}`
	}
	cases := map[string]string{
		"overflow":   join(`"extraState":{"itemCount":1e19}`),
		"huge":       join(`"extraState":{"itemCount":1000000000}`),
		"negative":   join(`"extraState":{"itemCount":-1}`),
		"fraction":   join(`"extraState":{"itemCount":2.5}`),
		"text":       join(`"extraState":{"itemCount":"3"}`),
		"far input":  join(`"inputs":{"ADD5000":{"block":{"type":"text","fields":{"TEXT":"x"}}}}`),
		"wide input": join(`"inputs":{"ADD99999999999999999999":{"block":{"type":"text","fields":{"TEXT":"x"}}}}`),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := CompileBytes([]byte(doc), "json", "t", Options{})
			stage, code := contractCode(t, err)
			assert.Equal(t, StageValidate, stage)
			assert.Equal(t, ErrCodeValidateShape, code)
			var issues *IssuesError
			require.True(t, errors.As(err, &issues))
			assert.Equal(t, blocksem.CodeInvalidField, issues.Issues[0].Code)
		})
	}

	res, err := CompileBytes([]byte(join(`"extraState":{"itemCount":2}`)), "json", "t", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Program.Len())
}
