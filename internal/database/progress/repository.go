// Package progress provides database operations for sync progress tracking.
// The table holds a single row that the API polls while a sync runs.
package progress

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

// staleThreshold is how long a running sync may go without an update before
// it is assumed interrupted (crashed process, killed container).
const staleThreshold = 10 * time.Minute

// Repository handles all sync progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves the current sync progress. When no sync ever ran an idle
// record is returned instead of an error.
func (r *Repository) Get() (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.SyncProgress{Status: entities.SyncStatusIdle}, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Start creates or resets the progress record and marks the sync running.
func (r *Repository) Start(booksTotal int) error {
	var progress entities.SyncProgress
	result := r.db.First(&progress)

	now := time.Now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		progress = entities.SyncProgress{
			Status:     entities.SyncStatusRunning,
			BooksTotal: booksTotal,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return r.db.Create(&progress).Error
	} else if result.Error != nil {
		return result.Error
	}

	progress.Status = entities.SyncStatusRunning
	progress.BooksTotal = booksTotal
	progress.BooksProcessed = 0
	progress.BooksFailed = 0
	progress.NewHighlights = 0
	progress.DeletedHighlights = 0
	progress.CurrentBook = ""
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return r.db.Save(&progress).Error
}

// SetTotal records the book count once the library listing is known.
func (r *Repository) SetTotal(booksTotal int) error {
	return r.db.Model(&entities.SyncProgress{}).
		Where("status = ?", entities.SyncStatusRunning).
		Updates(map[string]any{
			"books_total": booksTotal,
			"updated_at":  time.Now(),
		}).Error
}

// Update records the progress of an ongoing sync.
func (r *Repository) Update(processed, failed, newHighlights, deletedHighlights int, currentBook string) error {
	return r.db.Model(&entities.SyncProgress{}).
		Where("status = ?", entities.SyncStatusRunning).
		Updates(map[string]any{
			"books_processed":    processed,
			"books_failed":       failed,
			"new_highlights":     newHighlights,
			"deleted_highlights": deletedHighlights,
			"current_book":       currentBook,
			"updated_at":         time.Now(),
		}).Error
}

// Complete marks the sync as completed or failed.
func (r *Repository) Complete(succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.SyncStatusCompleted
	if !succeeded {
		status = entities.SyncStatusFailed
	}

	updates := map[string]any{
		"status":       status,
		"current_book": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.db.Model(&entities.SyncProgress{}).
		Where("status = ?", entities.SyncStatusRunning).
		Updates(updates).Error
}

// IsRunning checks whether a sync is currently in progress. A running record
// that has not been updated within the stale threshold is marked failed and
// reported as not running.
func (r *Repository) IsRunning() (bool, error) {
	var progress entities.SyncProgress
	err := r.db.Where("status = ?", entities.SyncStatusRunning).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-staleThreshold)) {
		_ = r.Complete(false, "sync was interrupted")
		return false, nil
	}

	return true, nil
}
