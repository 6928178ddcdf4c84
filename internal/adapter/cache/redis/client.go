package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strogmv/apiblocks/internal/port"
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

const keyPrefix = "apiblocks:program:"

// ProgramStore keeps canonical programs under apiblocks:program:<hash>.
type ProgramStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgramStore stores entries for ttl; zero keeps them forever.
func NewProgramStore(client *redis.Client, ttl time.Duration) *ProgramStore {
	return &ProgramStore{client: client, ttl: ttl}
}

var _ port.ProgramStore = (*ProgramStore)(nil)

func (s *ProgramStore) Put(ctx context.Context, hash string, canonical []byte) error {
	if err := s.client.Set(ctx, keyPrefix+hash, canonical, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set program %s: %w", hash, err)
	}
	return nil
}

func (s *ProgramStore) Get(ctx context.Context, hash string) ([]byte, error) {
	data, err := s.client.Get(ctx, keyPrefix+hash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("program %s: %w", hash, port.ErrNotFound)
		}
		return nil, fmt.Errorf("redis get program %s: %w", hash, err)
	}
	return data, nil
}

// Ping reports whether the server is reachable.
func (s *ProgramStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
