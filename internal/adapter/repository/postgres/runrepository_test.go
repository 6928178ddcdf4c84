package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/port"
	"github.com/strogmv/apiblocks/internal/runtime"
)

// Runs against a real database when APIBLOCKS_TEST_DATABASE_URL is set.
func TestRunRepository_RoundTrip(t *testing.T) {
	dsn := os.Getenv("APIBLOCKS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("APIBLOCKS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	repo := NewRunRepository(pool)

	hash := uuid.NewString()
	started := time.Now().UTC().Truncate(time.Millisecond)
	run := &domain.Run{
		ID:          uuid.NewString(),
		ProgramHash: hash,
		ProgramName: "smoke",
		Status:      domain.RunFailed,
		Failure:     &domain.RunFailure{Kind: runtime.KindAssertionFailure, Index: 1, BlockID: "b2", Message: "Status attendu: 200, reçu: 404"},
		Steps:       2,
		Lines:       []runtime.Line{{Time: started, Level: runtime.LevelInfo, BlockID: "b1", Text: "Response Status: 404"}},
		Calls:       []domain.CallSummary{{BlockID: "b1", Method: "GET", URL: "http://x", Status: 404}},
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
	}
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Failure, got.Failure)
	assert.Equal(t, "Response Status: 404", got.Lines[0].Text)
	assert.Equal(t, 404, got.Calls[0].Status)
	assert.True(t, run.FinishedAt.Equal(got.FinishedAt))

	list, err := repo.ListByProgram(ctx, hash, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, port.ErrNotFound))
}

func TestNonNil(t *testing.T) {
	t.Parallel()
	var lines []runtime.Line
	if got := nonNil(lines); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice")
	}
}
