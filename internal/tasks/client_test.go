package tasks

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliotech/internal/catalog"
)

type fakeSynchronizer struct {
	calls   atomic.Int64
	outcome catalog.Outcome
}

func (f *fakeSynchronizer) Synchronize(ctx context.Context) (catalog.Outcome, error) {
	f.calls.Add(1)
	return f.outcome, nil
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestSynchronizeCatalogTaskRuns(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	client, err := NewClient(dbPath, DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	synchronizer := &fakeSynchronizer{outcome: catalog.OutcomeSynchronized}
	client.Register(NewSynchronizeCatalogQueue(synchronizer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	_, err = client.Add(SynchronizeCatalogTask{}).Save()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return synchronizer.calls.Load() == 1
	}, 5*time.Second, 50*time.Millisecond, "the queued task should invoke the synchronizer")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx))
}
