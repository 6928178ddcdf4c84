package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/strogmv/apiblocks/compiler/workspace"
	"github.com/strogmv/apiblocks/internal/config"
	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/pkg/logger"
	"github.com/strogmv/apiblocks/internal/runtime"
	"github.com/strogmv/apiblocks/internal/service"
)

var levelMarks = map[runtime.Level]string{
	runtime.LevelInfo:    "  ",
	runtime.LevelSuccess: "✅",
	runtime.LevelWait:    "⏳",
	runtime.LevelMessage: "💬",
	runtime.LevelError:   "❌",
}

func runRun(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML or JSON config file")
	verbose := fs.Bool("v", false, "log every call at debug level")
	asJSON := fs.Bool("json", false, "print the run record as JSON instead of the live log")
	reportFormat := fs.String("report", "", "also write a report: pdf or xlsx")
	reportOut := fs.String("report-out", "", "report path (default <run id>.<format>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: apiblocks run [flags] <workspace.json|yaml|cue>")
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.InitTo(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	opts := service.RunOptions{}
	if !*asJSON {
		opts.Sink = runtime.SinkFunc(func(l runtime.Line) {
			fmt.Fprintf(stdout, "%s [%s] %s\n", levelMarks[l.Level], l.BlockID, l.Text)
		})
	}
	run, err := st.runner.RunWorkspace(ctx, data, workspace.FormatOf(path), name, opts)
	if err != nil {
		emitIssues(os.Stderr, compileIssues(err))
		return stageFailure("Run FAILED", err)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return err
		}
	} else {
		printSummary(stdout, run)
	}

	if *reportFormat != "" {
		doc, _, err := st.runner.Report(ctx, run.ID, *reportFormat)
		if err != nil {
			return err
		}
		out := *reportOut
		if out == "" {
			out = run.ID + "." + *reportFormat
		}
		if err := os.WriteFile(out, doc, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "report written to %s\n", out)
	}

	if run.Status != domain.RunPassed {
		return fmt.Errorf("%w: %s", errRunFailed, run.Status)
	}
	return nil
}

func printSummary(w io.Writer, run *domain.Run) {
	fmt.Fprintf(w, "\n%s %s in %s (%d steps, %d calls)\n",
		strings.ToUpper(string(run.Status)), run.ProgramName, run.Duration().Round(time.Millisecond), run.Steps, len(run.Calls))
	if f := run.Failure; f != nil {
		fmt.Fprintf(w, "  %s at %s: %s\n", f.Kind, f.BlockID, f.Message)
	}
}
