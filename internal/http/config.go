package http

import (
	"github.com/mrlokans/kindle-sync/internal/covers"
	"github.com/mrlokans/kindle-sync/internal/database"
	"github.com/mrlokans/kindle-sync/internal/database/books"
	"github.com/mrlokans/kindle-sync/internal/database/progress"
	"github.com/mrlokans/kindle-sync/internal/sync"
	"github.com/mrlokans/kindle-sync/internal/tasks"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Database *database.Database
	Books    *books.Repository
	Progress *progress.Repository

	// SyncService runs syncs inline when no task queue is configured.
	SyncService *sync.Service

	// TaskClient enqueues syncs as background tasks when available.
	TaskClient *tasks.Client

	// CoverCache serves locally cached cover images. Optional.
	CoverCache *covers.Cache

	// ExportDir is the default destination for POST /api/export.
	ExportDir string

	Version string
}
