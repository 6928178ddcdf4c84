package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	program_hash TEXT NOT NULL,
	program_name TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	failure      JSONB,
	steps        INTEGER NOT NULL DEFAULT 0,
	lines        JSONB NOT NULL DEFAULT '[]',
	calls        JSONB NOT NULL DEFAULT '[]',
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS runs_program_hash_started_at ON runs (program_hash, started_at DESC);
`

const selectRun = `SELECT id, program_hash, program_name, status, failure, steps, lines, calls, started_at, finished_at FROM runs`

// RunRepository stores runs in Postgres; lines and calls are JSONB.
type RunRepository struct {
	DB *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{DB: pool}
}

// Connect opens a pool and makes sure the schema exists.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run with id is required")
	}
	var failure []byte
	if run.Failure != nil {
		b, err := json.Marshal(run.Failure)
		if err != nil {
			return err
		}
		failure = b
	}
	lines, err := json.Marshal(nonNil(run.Lines))
	if err != nil {
		return err
	}
	calls, err := json.Marshal(nonNil(run.Calls))
	if err != nil {
		return err
	}
	var finished *time.Time
	if !run.FinishedAt.IsZero() {
		finished = &run.FinishedAt
	}
	_, err = r.DB.Exec(ctx, `
INSERT INTO runs (id, program_hash, program_name, status, failure, steps, lines, calls, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status, failure = EXCLUDED.failure, steps = EXCLUDED.steps,
	lines = EXCLUDED.lines, calls = EXCLUDED.calls, finished_at = EXCLUDED.finished_at`,
		run.ID, run.ProgramHash, run.ProgramName, string(run.Status), failure, run.Steps,
		lines, calls, run.StartedAt, finished)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunRepository) FindByID(ctx context.Context, id string) (*domain.Run, error) {
	run, err := scanRun(r.DB.QueryRow(ctx, selectRun+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, port.ErrNotFound)
		}
		return nil, err
	}
	return run, nil
}

func (r *RunRepository) List(ctx context.Context, offset, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.query(ctx, selectRun+` ORDER BY started_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *RunRepository) ListByProgram(ctx context.Context, hash string, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.query(ctx, selectRun+` WHERE program_hash = $1 ORDER BY started_at DESC, id LIMIT $2`, hash, limit)
}

func (r *RunRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Run, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *run)
	}
	return items, rows.Err()
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var (
		run                   domain.Run
		status                string
		failure, lines, calls []byte
		finished              *time.Time
	)
	if err := row.Scan(&run.ID, &run.ProgramHash, &run.ProgramName, &status, &failure,
		&run.Steps, &lines, &calls, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if finished != nil {
		run.FinishedAt = *finished
	}
	if len(failure) > 0 {
		run.Failure = &domain.RunFailure{}
		if err := json.Unmarshal(failure, run.Failure); err != nil {
			return nil, fmt.Errorf("decode failure of run %s: %w", run.ID, err)
		}
	}
	if err := json.Unmarshal(lines, &run.Lines); err != nil {
		return nil, fmt.Errorf("decode lines of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal(calls, &run.Calls); err != nil {
		return nil, fmt.Errorf("decode calls of run %s: %w", run.ID, err)
	}
	return &run, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Compile-time interface check.
var _ port.RunRepository = (*RunRepository)(nil)
