package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strogmv/apiblocks/compiler/assembler"
	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/blocksem"
	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/compiler/workspace"
)

const Version = "0.3.2"

type Options struct {
	// Registry defaults to blocks.Builtin().
	Registry *blocks.Registry
	// IssueSink receives every validation issue before the build fails.
	IssueSink func(blocksem.Issue)
}

// Result is a compiled program together with its canonical form.
type Result struct {
	Workspace *workspace.Program
	Program   *ir.Program
	Canonical []byte
	Hash      string
}

// IssuesError carries every shape issue found in a workspace.
type IssuesError struct {
	Issues []blocksem.Issue
}

func (e *IssuesError) Error() string {
	if len(e.Issues) == 0 {
		return "workspace has issues"
	}
	first := e.Issues[0]
	msg := first.Message
	if first.BlockID != "" {
		msg = "block " + first.BlockID + ": " + msg
	}
	if len(e.Issues) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Issues)-1)
	}
	return msg
}

// CompileFile loads the workspace at path and compiles it.
func CompileFile(path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapContractError(StageWorkspace, ErrCodeWorkspaceRead, "read "+path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return CompileBytes(data, workspace.FormatOf(path), name, opts)
}

// CompileBytes decodes data in format (json, yaml or cue) and compiles it.
// name is used when the document does not carry its own.
func CompileBytes(data []byte, format, name string, opts Options) (*Result, error) {
	dec := workspace.NewDecoder(opts.Registry)
	p, err := dec.Parse(data, format, name+"."+format)
	if err != nil {
		if errors.Is(err, workspace.ErrUnsupportedFormat) {
			return nil, WrapContractError(StageWorkspace, ErrCodeWorkspaceFormat, "detect format", err)
		}
		return nil, WrapContractError(StageWorkspace, ErrCodeWorkspaceDecode, "decode "+format, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	return Compile(p, opts)
}

// Compile validates, assembles and canonicalizes p.
func Compile(p *workspace.Program, opts Options) (*Result, error) {
	reg := opts.Registry
	if reg == nil {
		reg = blocks.Builtin()
	}

	issues := blocksem.Validate(reg, p)
	if opts.IssueSink != nil {
		for _, it := range issues {
			opts.IssueSink(it)
		}
	}
	for _, it := range issues {
		if it.Code == blocksem.CodeUnknownBlockType {
			return nil, WrapContractError(StageAssembly, ErrCodeAssemblyUnknownBlockType, "lookup block types",
				fmt.Errorf("block %s: %w: %q", it.BlockID, blocks.ErrUnknownBlockType, it.Kind))
		}
	}
	if len(issues) > 0 {
		return nil, WrapContractError(StageValidate, ErrCodeValidateShape, "validate shapes", &IssuesError{Issues: issues})
	}

	prog, err := assembler.Assemble(p, reg)
	if err != nil {
		if errors.Is(err, blocks.ErrUnknownBlockType) {
			return nil, WrapContractError(StageAssembly, ErrCodeAssemblyUnknownBlockType, "assemble", err)
		}
		return nil, WrapContractError(StageAssembly, ErrCodeAssemblyGenerate, "assemble", err)
	}

	canonical, err := ir.ToCanonicalJSON(prog)
	if err != nil {
		return nil, WrapContractError(StageEmit, ErrCodeEmitCanonical, "canonical json", err)
	}
	return &Result{
		Workspace: p,
		Program:   prog,
		Canonical: canonical,
		Hash:      ir.HashCanonical(canonical),
	}, nil
}
