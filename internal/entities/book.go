package entities

import "time"

// Book represents one title in the user's Kindle library, keyed by its ASIN.
// Scraped fields are refreshed on every sync; user-entered fields are only
// ever written through the API and survive re-syncs. Books are never deleted
// automatically - a book that disappears from the remote library keeps its
// local record, only its highlights get reconciled.
type Book struct {
	ASIN          string     `gorm:"primaryKey;size:20" json:"asin"`
	Title         string     `gorm:"index;size:512" json:"title"`
	Author        string     `gorm:"index;size:256" json:"author"`
	URL           string     `gorm:"size:2048" json:"url,omitempty"`
	ImageURL      string     `gorm:"size:2048" json:"image_url,omitempty"`
	LastAnnotated *time.Time `json:"last_annotated,omitempty"`

	// Enrichment fields, best-effort (see internal/metadata).
	ISBN          string `gorm:"index;size:20" json:"isbn,omitempty"`
	Genres        string `gorm:"size:512" json:"genres,omitempty"` // comma-joined
	PageCount     int    `json:"page_count,omitempty"`
	GoodreadsLink string `gorm:"size:2048" json:"goodreads_link,omitempty"`

	// User-entered fields, never touched by sync.
	PurchaseDate  *time.Time `json:"purchase_date,omitempty"`
	Status        string     `gorm:"size:32" json:"status,omitempty"` // Done, Started, Not Started, Abandoned
	Format        string     `gorm:"size:32" json:"format,omitempty"` // Paperback, eBook, Hardcover, Audiobook
	PersonalNotes string     `gorm:"type:text" json:"personal_notes,omitempty"`
	Review        string     `gorm:"type:text" json:"review,omitempty"`
	StarRating    float64    `json:"star_rating,omitempty"`

	Highlights []Highlight `gorm:"foreignKey:BookASIN;references:ASIN" json:"highlights,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
