package books

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

// GetHighlightIDs returns the identity set currently stored for a book.
func (r *Repository) GetHighlightIDs(asin string) ([]string, error) {
	var ids []string
	err := r.db.Model(&entities.Highlight{}).Where("book_asin = ?", asin).Pluck("id", &ids).Error
	return ids, err
}

// GetHighlightsForBook retrieves a book's highlights in reading order.
func (r *Repository) GetHighlightsForBook(asin string) ([]entities.Highlight, error) {
	var highlights []entities.Highlight
	err := highlightOrder(r.db.Where("book_asin = ?", asin)).Find(&highlights).Error
	return highlights, err
}

// GetHighlight retrieves one highlight by its composite key.
func (r *Repository) GetHighlight(asin, id string) (*entities.Highlight, error) {
	var highlight entities.Highlight
	err := r.db.First(&highlight, "book_asin = ? AND id = ?", asin, id).Error
	if err != nil {
		return nil, err
	}
	return &highlight, nil
}

// SetHighlightHidden toggles a highlight's visibility. Hidden is a user flag,
// not scraped state, so reconciliation upserts leave it alone.
func (r *Repository) SetHighlightHidden(asin, id string, hidden bool) error {
	result := r.db.Model(&entities.Highlight{}).
		Where("book_asin = ? AND id = ?", asin, id).
		Update("hidden", hidden)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApplyHighlightChanges applies one book's reconciliation plan in a single
// transaction: either the whole plan commits or none of it does. Upserts
// replace the scraped columns but keep created_at and the hidden flag of
// records that already exist.
func (r *Repository) ApplyHighlightChanges(asin string, upserts []entities.Highlight, deleteIDs []string) error {
	if len(upserts) == 0 && len(deleteIDs) == 0 {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(upserts) > 0 {
			for i := range upserts {
				upserts[i].BookASIN = asin
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}, {Name: "book_asin"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"text", "location", "page", "note", "color", "location_value", "highlighted_at", "updated_at",
				}),
			}).Create(&upserts).Error
			if err != nil {
				return fmt.Errorf("upsert highlights for %s: %w", asin, err)
			}
		}

		if len(deleteIDs) > 0 {
			err := tx.Where("book_asin = ? AND id IN ?", asin, deleteIDs).
				Delete(&entities.Highlight{}).Error
			if err != nil {
				return fmt.Errorf("delete highlights for %s: %w", asin, err)
			}
		}

		return nil
	})
}
