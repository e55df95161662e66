package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
)

const configV1 = `
userShards:
  query:
    - description: user-shard-0
      address: http://user0.internal:8080
`

const configV2 = `
userShards:
  query:
    - description: user-shard-0
      address: http://user0.internal:8080
    - description: user-shard-1
      address: http://user1.internal:8080
`

type recordingDirectory struct {
	mu    sync.Mutex
	count int
	last  directory.Config
}

func (d *recordingDirectory) RefreshConfiguration(ctx context.Context, cfg directory.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	d.last = cfg
	return nil
}

func (d *recordingDirectory) snapshot() (int, directory.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count, d.last
}

func TestWatcher_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configV1), 0o644))

	dir := &recordingDirectory{}
	w, err := NewWatcher(path, dir)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.Load(context.Background()))

	count, cfg := dir.snapshot()
	require.Equal(t, 1, count)
	require.Len(t, cfg.UserShards.Query, 1)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configV1), 0o644))

	dir := &recordingDirectory{}
	w, err := NewWatcher(path, dir)
	require.NoError(t, err)
	defer w.Stop()
	require.NoError(t, w.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte(configV2), 0o644))

	require.Eventually(t, func() bool {
		_, cfg := dir.snapshot()
		return len(cfg.UserShards.Query) == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configV1), 0o644))

	dir := &recordingDirectory{}
	w, err := NewWatcher(path, dir)
	require.NoError(t, err)

	ctx := context.Background()
	go w.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Stop())
}
