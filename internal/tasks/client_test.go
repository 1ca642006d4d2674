package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
)

func TestDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "librarian-tasks.db"), DBPath(filepath.Join("data", "librarian.db")))
	assert.Equal(t, "library-tasks", DBPath("library"))
}

func newTestClient(t *testing.T, queues ...backlite.Queue) (*Client, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "librarian.db")
	client, err := NewClient(dbPath, DefaultConfig(), queues...)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, dbPath
}

func TestNewClient_CreatesQueueDatabase(t *testing.T) {
	_, dbPath := newTestClient(t)

	_, err := os.Stat(DBPath(dbPath))
	assert.NoError(t, err)
}

func TestClient_Lifecycle(t *testing.T) {
	t.Run("stop without start", func(t *testing.T) {
		client, _ := newTestClient(t)
		assert.True(t, client.Stop(context.Background()))
	})

	t.Run("start then stop", func(t *testing.T) {
		client, _ := newTestClient(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go client.Start(ctx)
		time.Sleep(50 * time.Millisecond)

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		assert.True(t, client.Stop(stopCtx))
		assert.True(t, client.Stop(stopCtx))
	})
}

type echoTask struct {
	Value string `json:"value"`
}

func (t echoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "echo",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestClient_EnqueueRunsRegisteredQueue(t *testing.T) {
	executed := make(chan string, 1)
	client, _ := newTestClient(t, backlite.NewQueue(func(ctx context.Context, task echoTask) error {
		executed <- task.Value
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(echoTask{Value: "dune"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case val := <-executed:
		assert.Equal(t, "dune", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Tasks{Workers: 4, ReleaseAfter: time.Minute})

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
