package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"bibliotech/internal/catalog"
)

// CatalogSynchronizer runs one full catalog synchronization.
type CatalogSynchronizer interface {
	Synchronize(ctx context.Context) (catalog.Outcome, error)
}

// SynchronizeCatalogTask triggers a catalog synchronization run. The queue
// itself carries no payload; the synchronizer owns all pipeline state.
type SynchronizeCatalogTask struct{}

// Config returns the queue configuration for synchronization tasks.
func (t SynchronizeCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "synchronize_catalog",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     2 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SynchronizeCatalogProcessor creates a processor function for
// SynchronizeCatalogTask. The synchronizer resolves stage and record
// failures internally; an error here means the status store itself failed.
func SynchronizeCatalogProcessor(synchronizer CatalogSynchronizer) backlite.QueueProcessor[SynchronizeCatalogTask] {
	return func(ctx context.Context, task SynchronizeCatalogTask) error {
		if synchronizer == nil {
			return fmt.Errorf("catalog synchronizer not configured")
		}

		outcome, err := synchronizer.Synchronize(ctx)
		if err != nil {
			return fmt.Errorf("synchronize catalog: %w", err)
		}

		log.Printf("[TASK] Catalog synchronization finished: %s", outcome)
		return nil
	}
}

// NewSynchronizeCatalogQueue creates a backlite queue for catalog
// synchronization tasks.
func NewSynchronizeCatalogQueue(synchronizer CatalogSynchronizer) backlite.Queue {
	return backlite.NewQueue(SynchronizeCatalogProcessor(synchronizer))
}
