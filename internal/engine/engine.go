// Package engine runs assembled programs. A run is a single logical thread:
// statements execute in program order and only the HTTP call and Wait
// suspend. The first failure ends the run; nothing is retried or undone.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/internal/runtime"
)

const tracerName = "github.com/strogmv/apiblocks/internal/engine"

// Phase marks where in a statement a StepEvent was emitted.
type Phase string

const (
	PhaseStart  Phase = "start"
	PhaseFinish Phase = "finish"
)

// StepEvent is reported before and after every statement.
type StepEvent struct {
	Index    int
	Depth    int
	BlockID  string
	Op       ir.Op
	Phase    Phase
	Err      error
	Duration time.Duration
}

// CallRecord is one call the run made, with the status it got.
type CallRecord struct {
	BlockID  string
	Call     Call
	Status   int
	Duration time.Duration
	Err      error
}

type Options struct {
	Transport Transport
	// Sink receives observations. Nil discards them.
	Sink runtime.Sink
	// Sleep suspends for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Hook is called synchronously around every statement.
	Hook   func(StepEvent)
	Logger *slog.Logger
	Tracer trace.Tracer
	Now    func() time.Time
}

type Engine struct {
	transport Transport
	sink      runtime.Sink
	sleep     func(ctx context.Context, d time.Duration) error
	hook      func(StepEvent)
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func New(opts Options) *Engine {
	e := &Engine{
		transport: opts.Transport,
		sink:      opts.Sink,
		sleep:     opts.Sleep,
		hook:      opts.Hook,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
		now:       opts.Now,
	}
	if e.sink == nil {
		e.sink = runtime.SinkFunc(func(runtime.Line) {})
	}
	if e.sleep == nil {
		e.sleep = Sleep
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Sleep waits for d unless ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Failure is the first failing statement of a run.
type Failure struct {
	Index   int
	BlockID string
	Op      ir.Op
	Err     error
}

func (f *Failure) Error() string {
	if f.BlockID == "" {
		return fmt.Sprintf("step %d (%s): %v", f.Index, f.Op, f.Err)
	}
	return fmt.Sprintf("step %d (%s, block %s): %v", f.Index, f.Op, f.BlockID, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result describes a finished or aborted run.
type Result struct {
	Steps      int
	Calls      []CallRecord
	Context    *runtime.Context
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run executes p against a fresh Context. On failure the partial Result is
// returned together with a *Failure.
func (e *Engine) Run(ctx context.Context, p *ir.Program) (*Result, error) {
	if e.transport == nil {
		return nil, errors.New("engine: no transport configured")
	}
	if err := ir.ValidateABI(p); err != nil {
		return nil, fmt.Errorf("engine: invalid program: %w", err)
	}

	ctx, span := e.tracer.Start(ctx, "apiblocks.run", trace.WithAttributes(
		attribute.String("program.name", p.Name),
		attribute.Int("program.instructions", p.Len()),
	))
	defer span.End()

	r := &run{
		engine: e,
		rc:     runtime.NewContext(),
		result: &Result{StartedAt: e.now()},
	}
	r.result.Context = r.rc
	err := r.exec(ctx, p.Instrs, 0)
	r.result.FinishedAt = e.now()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(runtime.Classify(err)))
		return r.result, err
	}
	return r.result, nil
}

// run is the state of one execution.
type run struct {
	engine *Engine
	rc     *runtime.Context
	result *Result
}

func (r *run) exec(ctx context.Context, list []ir.Instr, depth int) error {
	for _, in := range list {
		r.result.Steps++
		index := r.result.Steps
		ev := StepEvent{Index: index, Depth: depth, BlockID: in.Block(), Op: in.Op()}
		r.emit(ev, PhaseStart, nil, 0)

		sctx, span := r.engine.tracer.Start(ctx, "apiblocks."+string(in.Op()), trace.WithAttributes(
			attribute.String("block.id", in.Block()),
			attribute.Int("step.index", index),
		))
		started := r.engine.now()
		err := r.step(sctx, in, depth)
		elapsed := r.engine.now().Sub(started)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		r.emit(ev, PhaseFinish, err, elapsed)
		if err != nil {
			var f *Failure
			if errors.As(err, &f) {
				// Already attributed to a nested statement.
				return err
			}
			return &Failure{Index: index, BlockID: in.Block(), Op: in.Op(), Err: err}
		}
	}
	return nil
}

func (r *run) emit(ev StepEvent, phase Phase, err error, d time.Duration) {
	if r.engine.hook == nil {
		return
	}
	ev.Phase = phase
	ev.Err = err
	ev.Duration = d
	r.engine.hook(ev)
}

func (r *run) observe(level runtime.Level, blockID, text string) {
	r.engine.sink.Observe(runtime.Line{
		Time:    r.engine.now(),
		Level:   level,
		BlockID: blockID,
		Text:    text,
	})
}
