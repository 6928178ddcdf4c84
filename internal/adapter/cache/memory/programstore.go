// Package memory keeps compiled programs in process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/strogmv/apiblocks/internal/port"
)

type ProgramStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewProgramStore() *ProgramStore {
	return &ProgramStore{data: make(map[string][]byte)}
}

var _ port.ProgramStore = (*ProgramStore)(nil)

func (s *ProgramStore) Put(ctx context.Context, hash string, canonical []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[hash] = append([]byte(nil), canonical...)
	return nil
}

func (s *ProgramStore) Get(ctx context.Context, hash string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[hash]
	if !ok {
		return nil, fmt.Errorf("program %s: %w", hash, port.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}
