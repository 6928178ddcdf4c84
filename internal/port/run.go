package port

import (
	"context"
	"errors"

	"github.com/strogmv/apiblocks/internal/domain"
)

// ErrNotFound is returned by stores for a missing key.
var ErrNotFound = errors.New("not found")

// RunRepository persists run records.
type RunRepository interface {
	Save(ctx context.Context, run *domain.Run) error
	FindByID(ctx context.Context, id string) (*domain.Run, error)
	// List returns runs newest first.
	List(ctx context.Context, offset, limit int) ([]domain.Run, error)
	ListByProgram(ctx context.Context, hash string, limit int) ([]domain.Run, error)
}
