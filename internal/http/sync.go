package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/sync"
	"github.com/mrlokans/kindle-sync/internal/tasks"
)

// SyncRunner runs a library sync inline. Satisfied by sync.Service.
type SyncRunner interface {
	Sync(ctx context.Context, full bool) (*sync.SyncResult, error)
}

// ProgressStore reads the current sync progress row.
type ProgressStore interface {
	Get() (*entities.SyncProgress, error)
	IsRunning() (bool, error)
}

// inlineSyncTimeout bounds syncs started without a task queue.
const inlineSyncTimeout = 30 * time.Minute

type SyncController struct {
	runner     SyncRunner
	progress   ProgressStore
	taskClient *tasks.Client
}

func NewSyncController(runner SyncRunner, progress ProgressStore, taskClient *tasks.Client) *SyncController {
	return &SyncController{
		runner:     runner,
		progress:   progress,
		taskClient: taskClient,
	}
}

type TriggerSyncRequest struct {
	// Full forces every book to be re-scraped regardless of its
	// last-annotated date.
	Full bool `json:"full"`
}

// TriggerSync handles POST /api/sync. The sync runs in the background: as a
// queued task when the task queue is configured, otherwise in a goroutine.
// Progress is available from GET /api/sync/status either way.
func (controller *SyncController) TriggerSync(c *gin.Context) {
	var req TriggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	running, err := controller.progress.IsRunning()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if running {
		c.JSON(http.StatusConflict, gin.H{"error": "a sync is already in progress"})
		return
	}

	if controller.taskClient != nil {
		ids, err := controller.taskClient.Add(tasks.LibrarySyncTask{Full: req.Full}).Save()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"message": "sync enqueued",
			"task_id": ids[0],
			"full":    req.Full,
		})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), inlineSyncTimeout)
		defer cancel()

		result, err := controller.runner.Sync(ctx, req.Full)
		if err != nil {
			log.Printf("Sync failed: %v", err)
			return
		}
		log.Printf("Sync finished: %s", result.Message)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "sync started",
		"full":    req.Full,
	})
}

// GetStatus handles GET /api/sync/status.
func (controller *SyncController) GetStatus(c *gin.Context) {
	progress, err := controller.progress.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, progress)
}
