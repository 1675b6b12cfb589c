package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/kindle-sync/internal/sync"
)

// LibrarySyncTask runs a library sync in the background. Full forces every
// book to be re-scraped regardless of its last-annotated date.
type LibrarySyncTask struct {
	Full bool `json:"full"`
}

// Config returns the queue configuration for library sync tasks.
// MaxAttempts is 1: the sync service has its own retry policy per request,
// and a rerun is cheap to enqueue manually.
func (t LibrarySyncTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "library_sync",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     60 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// LibrarySyncProcessor creates a processor function for LibrarySyncTask.
func LibrarySyncProcessor(service *sync.Service) backlite.QueueProcessor[LibrarySyncTask] {
	return func(ctx context.Context, task LibrarySyncTask) error {
		if service == nil {
			return fmt.Errorf("sync service not configured")
		}

		result, err := service.Sync(ctx, task.Full)
		if err != nil {
			return fmt.Errorf("library sync: %w", err)
		}

		log.Printf("[TASK] %s", result.Message)
		return nil
	}
}

// NewLibrarySyncQueue creates a backlite queue for library sync tasks.
func NewLibrarySyncQueue(service *sync.Service) backlite.Queue {
	return backlite.NewQueue(LibrarySyncProcessor(service))
}
