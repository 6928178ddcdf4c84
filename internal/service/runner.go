// Package service compiles workspaces, runs programs and keeps their history.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strogmv/apiblocks/compiler"
	"github.com/strogmv/apiblocks/compiler/blocks"
	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/internal/adapter/events/noop"
	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/engine"
	"github.com/strogmv/apiblocks/internal/pkg/logger"
	"github.com/strogmv/apiblocks/internal/pkg/report"
	"github.com/strogmv/apiblocks/internal/port"
	"github.com/strogmv/apiblocks/internal/runtime"
)

// ErrNoStorage is returned when archiving without a FileStorage.
var ErrNoStorage = errors.New("no report storage configured")

type Deps struct {
	Registry  *blocks.Registry
	Runs      port.RunRepository
	Programs  port.ProgramStore
	Publisher port.Publisher
	// Storage is optional; without it reports are only rendered on demand.
	Storage   port.FileStorage
	Reports   *report.Generator
	Transport engine.Transport
	Logger    *slog.Logger
	// Sleep overrides how Wait blocks suspend; nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
	NewID func() string
}

type Runner struct {
	d Deps
}

func NewRunner(d Deps) *Runner {
	if d.Registry == nil {
		d.Registry = blocks.Builtin()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Reports == nil {
		d.Reports = report.NewGenerator(nil)
	}
	if d.Publisher == nil {
		d.Publisher = noop.Publisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return &Runner{d: d}
}

// Registry is the block catalogue the runner compiles against.
func (s *Runner) Registry() *blocks.Registry { return s.d.Registry }

// Compile compiles a serialized workspace and stores the program by hash.
func (s *Runner) Compile(ctx context.Context, data []byte, format, name string) (*compiler.Result, error) {
	res, err := compiler.CompileBytes(data, format, name, compiler.Options{Registry: s.d.Registry})
	if err != nil {
		code := "UNKNOWN"
		var ce *compiler.ContractError
		if errors.As(err, &ce) {
			code = ce.Code
		}
		compilesTotal.WithLabelValues(code).Inc()
		return nil, err
	}
	compilesTotal.WithLabelValues("OK").Inc()
	if err := s.d.Programs.Put(ctx, res.Hash, res.Canonical); err != nil {
		return nil, fmt.Errorf("store program: %w", err)
	}
	return res, nil
}

// Program loads a stored program.
func (s *Runner) Program(ctx context.Context, hash string) (*ir.Program, error) {
	data, err := s.d.Programs.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	p, err := ir.FromCanonicalJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode program %s: %w", hash, err)
	}
	return p, nil
}

// RunOptions tune a single run.
type RunOptions struct {
	// Sink additionally receives every observation as it happens.
	Sink runtime.Sink
	// OnStart is called with the run id before the first statement.
	OnStart func(runID string)
}

// RunWorkspace compiles data and runs the result.
func (s *Runner) RunWorkspace(ctx context.Context, data []byte, format, name string, opts RunOptions) (*domain.Run, error) {
	res, err := s.Compile(ctx, data, format, name)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, res.Program, res.Hash, opts)
}

// RunStored runs a program previously stored by Compile.
func (s *Runner) RunStored(ctx context.Context, hash string, opts RunOptions) (*domain.Run, error) {
	p, err := s.Program(ctx, hash)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, p, hash, opts)
}

// Run executes p and persists the record. A failing program is not an
// error: its outcome is in the returned run.
func (s *Runner) Run(ctx context.Context, p *ir.Program, hash string, opts RunOptions) (*domain.Run, error) {
	// A program the engine refuses never gets a record.
	if err := ir.ValidateABI(p); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	if hash == "" {
		h, err := ir.Hash(p)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	run := &domain.Run{
		ID:          s.d.NewID(),
		ProgramHash: hash,
		ProgramName: p.Name,
		Status:      domain.RunRunning,
		StartedAt:   s.d.Now(),
	}
	log := logger.With(ctx, s.d.Logger).With(
		slog.String("run_id", run.ID),
		slog.String("program_hash", hash),
	)
	if err := s.d.Runs.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	s.publish(ctx, log, "started", s.d.Publisher.PublishRunStarted(ctx, domain.RunStarted{
		RunID: run.ID, ProgramHash: hash, ProgramName: p.Name, StartedAt: run.StartedAt,
	}))
	if opts.OnStart != nil {
		opts.OnStart(run.ID)
	}

	var lines runtime.Lines
	events := runtime.SinkFunc(func(l runtime.Line) {
		s.publish(ctx, log, "observed", s.d.Publisher.PublishRunObserved(ctx, domain.RunObserved{RunID: run.ID, Line: l}))
	})
	eng := engine.New(engine.Options{
		Transport: s.d.Transport,
		Sink:      runtime.Tee(&lines, runtime.LogSink(ctx, log), events, opts.Sink),
		Sleep:     s.d.Sleep,
		Logger:    log,
		Now:       s.d.Now,
	})
	result, runErr := eng.Run(ctx, p)
	if result == nil {
		result = &engine.Result{StartedAt: run.StartedAt, FinishedAt: s.d.Now()}
		if runErr == nil {
			runErr = errors.New("engine returned no result")
		}
	}

	kind := runtime.Classify(runErr)
	run.Status = domain.StatusFor(kind)
	run.Steps = result.Steps
	run.Lines = lines.All()
	run.StartedAt = result.StartedAt
	run.FinishedAt = result.FinishedAt
	for _, c := range result.Calls {
		summary := domain.CallSummary{
			BlockID:    c.BlockID,
			Method:     c.Call.Method,
			URL:        c.Call.URL,
			Status:     c.Status,
			DurationMS: c.Duration.Milliseconds(),
			Curl:       c.Call.Curl(),
		}
		if c.Err != nil {
			summary.Error = c.Err.Error()
		}
		run.Calls = append(run.Calls, summary)
		callsTotal.WithLabelValues(c.Call.Method, statusClass(c.Status, c.Err != nil)).Inc()
	}
	if runErr != nil {
		run.Failure = &domain.RunFailure{Kind: kind, Message: runErr.Error()}
		var f *engine.Failure
		if errors.As(runErr, &f) {
			run.Failure.Index = f.Index
			run.Failure.BlockID = f.BlockID
			run.Failure.Op = string(f.Op)
			run.Failure.Message = f.Err.Error()
		}
	}

	// The caller's context may be canceled; the record must still land.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.d.Runs.Save(saveCtx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	s.publish(saveCtx, log, "finished", s.d.Publisher.PublishRunFinished(saveCtx, domain.RunFinished{
		RunID:       run.ID,
		ProgramHash: hash,
		Status:      run.Status,
		FailureKind: kind,
		DurationMS:  run.Duration().Milliseconds(),
	}))
	runsTotal.WithLabelValues(string(run.Status), string(kind)).Inc()
	runDuration.WithLabelValues(string(run.Status)).Observe(run.Duration().Seconds())
	log.Info("run finished",
		slog.String("status", string(run.Status)),
		slog.Int("steps", run.Steps),
		slog.Duration("duration", run.Duration()),
	)
	return run, nil
}

func (s *Runner) publish(ctx context.Context, log *slog.Logger, event string, err error) {
	if err != nil {
		log.WarnContext(ctx, "publish run event failed", slog.String("event", event), slog.Any("error", err))
	}
}

func (s *Runner) Get(ctx context.Context, id string) (*domain.Run, error) {
	return s.d.Runs.FindByID(ctx, id)
}

func (s *Runner) List(ctx context.Context, offset, limit int) ([]domain.Run, error) {
	return s.d.Runs.List(ctx, offset, limit)
}

func (s *Runner) ListByProgram(ctx context.Context, hash string, limit int) ([]domain.Run, error) {
	return s.d.Runs.ListByProgram(ctx, hash, limit)
}

// Report formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Report renders the run in format and returns the bytes and content type.
func (s *Runner) Report(ctx context.Context, id, format string) ([]byte, string, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return s.render(run, format)
}

func (s *Runner) render(run *domain.Run, format string) ([]byte, string, error) {
	switch format {
	case FormatPDF:
		data, err := s.d.Reports.PDF(run)
		return data, report.ContentTypePDF, err
	case FormatXLSX:
		data, err := s.d.Reports.XLSX(run)
		return data, report.ContentTypeXLSX, err
	default:
		return nil, "", fmt.Errorf("unsupported report format %q", format)
	}
}

// Archive uploads both reports of a run and returns a download link per
// format, valid for expires. When any step fails the objects already
// uploaded are deleted.
func (s *Runner) Archive(ctx context.Context, id string, expires time.Duration) (map[string]string, error) {
	if s.d.Storage == nil {
		return nil, ErrNoStorage
	}
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var uploaded []string
	links := map[string]string{}
	for _, format := range []string{FormatPDF, FormatXLSX} {
		url, key, err := s.archiveOne(ctx, run, format, expires)
		if key != "" {
			uploaded = append(uploaded, key)
		}
		if err != nil {
			s.discard(ctx, uploaded)
			return nil, err
		}
		links[format] = url
	}
	return links, nil
}

func (s *Runner) archiveOne(ctx context.Context, run *domain.Run, format string, expires time.Duration) (url, key string, err error) {
	data, contentType, err := s.render(run, format)
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", format, err)
	}
	key, err = s.d.Storage.Upload(ctx, archiveKey(run.ID, format), bytes.NewReader(data), contentType)
	if err != nil {
		return "", "", err
	}
	url, err = s.d.Storage.PresignGet(ctx, key, expires)
	if err != nil {
		return "", key, err
	}
	return url, key, nil
}

func (s *Runner) discard(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.d.Storage.Delete(ctx, key); err != nil {
			logger.With(ctx, s.d.Logger).WarnContext(ctx, "delete archived report failed",
				slog.String("key", key), slog.Any("error", err))
		}
	}
}

func archiveKey(id, format string) string {
	return "runs/" + id + "." + format
}

// File streams an archived report by its storage key. Only keys under
// runs/ are served.
func (s *Runner) File(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if s.d.Storage == nil {
		return nil, "", ErrNoStorage
	}
	name, ok := strings.CutPrefix(key, "runs/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return nil, "", fmt.Errorf("file %s: %w", key, port.ErrNotFound)
	}
	var contentType string
	switch path.Ext(name) {
	case "." + FormatPDF:
		contentType = report.ContentTypePDF
	case "." + FormatXLSX:
		contentType = report.ContentTypeXLSX
	default:
		return nil, "", fmt.Errorf("file %s: %w", key, port.ErrNotFound)
	}
	rc, err := s.d.Storage.Download(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return rc, contentType, nil
}
