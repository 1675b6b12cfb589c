package entities

import "time"

type HighlightColor string

const (
	HighlightColorYellow HighlightColor = "yellow"
	HighlightColorBlue   HighlightColor = "blue"
	HighlightColorPink   HighlightColor = "pink"
	HighlightColorOrange HighlightColor = "orange"
)

// ParseHighlightColor maps a color name onto the known enum. Unrecognized
// values yield the empty color rather than an error - Amazon occasionally
// ships markers we don't know about.
func ParseHighlightColor(name string) HighlightColor {
	switch HighlightColor(name) {
	case HighlightColorYellow, HighlightColorBlue, HighlightColorPink, HighlightColorOrange:
		return HighlightColor(name)
	}
	return ""
}

// Highlight represents one annotation the user made in a book. The ID is
// derived from the highlight text (see internal/identity), not assigned by
// the server, so it is only unique within a book - hence the composite key.
type Highlight struct {
	ID       string `gorm:"primaryKey;size:16" json:"id"`
	BookASIN string `gorm:"primaryKey;size:20;index" json:"book_asin"`

	Text     string         `gorm:"type:text" json:"text"`
	Location string         `gorm:"size:32" json:"location,omitempty"` // e.g. "254-267"
	Page     string         `gorm:"size:16" json:"page,omitempty"`
	Note     string         `gorm:"type:text" json:"note,omitempty"`
	Color    HighlightColor `gorm:"size:10" json:"color,omitempty"`

	// LocationValue is the numeric prefix of Location, used for ordering.
	// Zero means "no location"; those sort last. Safe as a sentinel because
	// Kindle locations are 1-based.
	LocationValue int `gorm:"index" json:"-"`

	HighlightedAt *time.Time `json:"highlighted_at,omitempty"`

	// Hidden is user-toggleable and independent of sync.
	Hidden bool `gorm:"default:false" json:"hidden"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Highlight) TableName() string {
	return "highlights"
}
