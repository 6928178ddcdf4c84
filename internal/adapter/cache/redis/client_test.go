package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/apiblocks/internal/port"
)

// Runs against a real server when APIBLOCKS_TEST_REDIS_ADDR is set.
func TestProgramStore_PutGet(t *testing.T) {
	addr := os.Getenv("APIBLOCKS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("APIBLOCKS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := NewClient(addr)
	defer client.Close()
	store := NewProgramStore(client, time.Minute)
	require.NoError(t, store.Ping(ctx))

	hash := uuid.NewString()
	require.NoError(t, store.Put(ctx, hash, []byte(`{"irVersion":"1"}`)))
	got, err := store.Get(ctx, hash)
	require.NoError(t, err)
	assert.JSONEq(t, `{"irVersion":"1"}`, string(got))

	ttl, err := client.TTL(ctx, keyPrefix+hash).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = store.Get(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, port.ErrNotFound))
}
