// Package memory is a process-local FileStorage for tests and single-node use.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/strogmv/apiblocks/internal/port"
)

type Storage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// New serves downloads under baseURL, e.g. "/api/files".
func New(baseURL string) *Storage {
	return &Storage{objects: map[string][]byte{}, baseURL: baseURL}
}

var _ port.FileStorage = (*Storage)(nil)

func (s *Storage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return key, nil
}

func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, port.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// PresignGet returns a plain local URL; links do not expire.
func (s *Storage) PresignGet(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("object %s: %w", key, port.ErrNotFound)
	}
	return s.baseURL + "/" + key, nil
}
