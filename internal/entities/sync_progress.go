package entities

import "time"

type SyncStatus string

const (
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress is a single-row record the UI polls while a sync runs.
type SyncProgress struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Status            SyncStatus `gorm:"size:20" json:"status"`
	BooksTotal        int        `json:"books_total"`
	BooksProcessed    int        `json:"books_processed"`
	BooksFailed       int        `json:"books_failed"`
	NewHighlights     int        `json:"new_highlights"`
	DeletedHighlights int        `json:"deleted_highlights"`
	CurrentBook       string     `gorm:"size:512" json:"current_book,omitempty"`
	Error             string     `gorm:"size:1024" json:"error,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}
