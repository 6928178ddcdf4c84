package nats

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/apiblocks/internal/domain"
)

func TestSubject(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "apiblocks.runs.started", Subject("", "started"))
	assert.Equal(t, "ci.finished", Subject("ci", "finished"))
}

// Runs against a real server when APIBLOCKS_TEST_NATS_URL is set.
func TestClient_PublishSubscribe(t *testing.T) {
	url := os.Getenv("APIBLOCKS_TEST_NATS_URL")
	if url == "" {
		t.Skip("APIBLOCKS_TEST_NATS_URL not set")
	}
	c, err := NewClient(url, "apiblocks.test")
	require.NoError(t, err)
	defer c.Close()

	got := make(chan string, 1)
	sub, err := c.Subscribe(func(subject string, data []byte) error {
		var ev domain.RunFinished
		if err := json.Unmarshal(data, &ev); err == nil {
			got <- subject + " " + ev.RunID
		}
		return nil
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, c.Flush())

	require.NoError(t, c.PublishRunFinished(context.Background(), domain.RunFinished{RunID: "r1", Status: domain.RunPassed}))
	select {
	case msg := <-got:
		assert.Equal(t, "apiblocks.test.finished r1", msg)
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
	}
}
