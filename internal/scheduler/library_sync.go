// Package scheduler runs the periodic library sync on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/kindle-sync/internal/config"
	"github.com/mrlokans/kindle-sync/internal/sync"
)

// SyncRunner runs a library sync. Satisfied by sync.Service.
type SyncRunner interface {
	Sync(ctx context.Context, full bool) (*sync.SyncResult, error)
}

// syncTimeout bounds a scheduled run; a large library over a slow
// connection still finishes well within it.
const syncTimeout = 30 * time.Minute

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks that a schedule is a valid five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// LibrarySyncScheduler manages periodic incremental syncs of the Kindle library.
type LibrarySyncScheduler struct {
	runner   SyncRunner
	schedule string
	enabled  bool

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         gosync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewLibrarySyncScheduler creates a new scheduler instance.
func NewLibrarySyncScheduler(runner SyncRunner, cfg config.SyncSchedule) *LibrarySyncScheduler {
	return &LibrarySyncScheduler{
		runner:   runner,
		schedule: cfg.Schedule,
		enabled:  cfg.Enabled,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler if scheduled sync is enabled.
func (s *LibrarySyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.enabled {
		log.Printf("Library sync scheduler: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Library sync scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to complete.
func (s *LibrarySyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Library sync scheduler: stopped")
}

// RunNow triggers an immediate sync outside the schedule.
func (s *LibrarySyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active.
func (s *LibrarySyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a scheduled sync is currently in progress.
func (s *LibrarySyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next sync will occur, or nil when stopped.
func (s *LibrarySyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync performs a single incremental sync run.
func (s *LibrarySyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Library sync: skipped (already syncing)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	log.Printf("Library sync: starting scheduled incremental sync")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	result, err := s.runner.Sync(ctx, false)
	if err != nil {
		log.Printf("Library sync: failed: %v", err)
		return
	}

	log.Printf("Library sync: %s in %v", result.Message, time.Since(startTime).Round(time.Millisecond))
}
