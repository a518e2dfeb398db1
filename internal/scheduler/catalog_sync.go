package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bibliotech/internal/tasks"
)

// CatalogSyncScheduler triggers periodic catalog synchronization by
// enqueueing a task on every tick. The queue, not the scheduler, guarantees
// that at most one run is in flight.
type CatalogSyncScheduler struct {
	taskClient *tasks.Client
	schedule   string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCatalogSyncScheduler creates a new scheduler instance.
func NewCatalogSyncScheduler(taskClient *tasks.Client, schedule string) *CatalogSyncScheduler {
	return &CatalogSyncScheduler{
		taskClient: taskClient,
		schedule:   schedule,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *CatalogSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.enqueueSync()
	})
	if err != nil {
		return fmt.Errorf("invalid catalog sync schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Catalog sync scheduler: started with schedule '%s'. Next run: %v",
		s.schedule, s.nextRunLocked())

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *CatalogSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	// Release the context monitor started in Start
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Catalog sync scheduler: stopped")
}

// RunNow enqueues an immediate synchronization.
func (s *CatalogSyncScheduler) RunNow() {
	s.enqueueSync()
}

// IsRunning returns whether the scheduler is active.
func (s *CatalogSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next synchronization will be enqueued.
func (s *CatalogSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	return s.nextRunLocked()
}

func (s *CatalogSyncScheduler) nextRunLocked() *time.Time {
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *CatalogSyncScheduler) enqueueSync() {
	log.Printf("Catalog sync scheduler: enqueueing synchronization task")
	if _, err := s.taskClient.Add(tasks.SynchronizeCatalogTask{}).Save(); err != nil {
		log.Printf("Catalog sync scheduler: failed to enqueue task: %v", err)
	}
}
