package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/strogmv/apiblocks/compiler"
	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/emitter"
	"github.com/strogmv/apiblocks/compiler/ir"
)

func runBlocks(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("blocks", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print shapes as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	shapes := blocks.Builtin().Shapes()
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shapes)
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tROLE\tSLOTS")
	for _, s := range shapes {
		var slots []string
		for _, v := range s.Values {
			slots = append(slots, v.Name)
		}
		for _, f := range s.Fields {
			if len(f.Options) > 0 {
				slots = append(slots, f.Name+"="+strings.Join(f.Options, "|"))
				continue
			}
			slots = append(slots, f.Name)
		}
		for _, st := range s.Statements {
			slots = append(slots, st+"{}")
		}
		if s.VariadicPrefix != "" {
			slots = append(slots, s.VariadicPrefix+"N")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Kind, s.Role, strings.Join(slots, " "))
	}
	return tw.Flush()
}

// compileArg compiles the single workspace path left after flag parsing.
func compileArg(fs *flag.FlagSet) (*compiler.Result, error) {
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("usage: apiblocks %s [flags] <workspace.json|yaml|cue>", fs.Name())
	}
	res, err := compiler.CompileFile(fs.Arg(0), compiler.Options{})
	if err != nil {
		emitIssues(os.Stderr, compileIssues(err))
		return nil, stageFailure("Compile FAILED", err)
	}
	return res, nil
}

func runCompile(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	format := fs.String("format", "listing", "output: listing or json")
	out := fs.String("o", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := compileArg(fs)
	if err != nil {
		return err
	}

	var data []byte
	switch *format {
	case "listing":
		data = []byte(ir.Format(res.Program) + "# hash " + res.Hash + "\n")
	case "json":
		data = append(res.Canonical, '\n')
	default:
		return fmt.Errorf("unknown -format %q (listing, json)", *format)
	}
	return writeOutput(*out, data, stdout)
}

func runHash(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := compileArg(fs)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Version:      %s\n", compiler.Version)
	fmt.Fprintf(stdout, "IR Version:   %s\n", res.Program.IRVersion)
	fmt.Fprintf(stdout, "Program Hash: %s\n", res.Hash)
	return nil
}

func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "write to file instead of stdout")
	templatesDir := fs.String("templates", "templates", "directory for templates missing from the binary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := compileArg(fs)
	if err != nil {
		return err
	}
	src, err := emitter.New(*templatesDir, compiler.Version).GoSource(res.Program, res.Hash)
	if err != nil {
		return stageFailure("Export FAILED",
			compiler.WrapContractError(compiler.StageEmit, compiler.ErrCodeEmitGoSource, "render go source", err))
	}
	return writeOutput(*out, src, stdout)
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
