// Package memory provides an in-memory implementation of the repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/port"
)

type RunRepository struct {
	mu   sync.RWMutex
	data map[string]domain.Run
}

func NewRunRepository() *RunRepository {
	return &RunRepository{
		data: make(map[string]domain.Run),
	}
}

var _ port.RunRepository = (*RunRepository)(nil)

func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run with id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[run.ID] = *run
	return nil
}

func (r *RunRepository) FindByID(ctx context.Context, id string) (*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.data[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, port.ErrNotFound)
	}
	return &run, nil
}

func (r *RunRepository) List(ctx context.Context, offset, limit int) ([]domain.Run, error) {
	r.mu.RLock()
	items := make([]domain.Run, 0, len(r.data))
	for _, item := range r.data {
		items = append(items, item)
	}
	r.mu.RUnlock()
	sortNewestFirst(items)
	// Apply pagination
	if offset >= len(items) {
		return []domain.Run{}, nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end], nil
}

func (r *RunRepository) ListByProgram(ctx context.Context, hash string, limit int) ([]domain.Run, error) {
	r.mu.RLock()
	var items []domain.Run
	for _, item := range r.data {
		if item.ProgramHash == hash {
			items = append(items, item)
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func sortNewestFirst(items []domain.Run) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].StartedAt.Equal(items[j].StartedAt) {
			return items[i].StartedAt.After(items[j].StartedAt)
		}
		return items[i].ID < items[j].ID
	})
}
