// Package books provides database operations for the synced library: book
// records, their highlights, and the atomic per-book writes the
// reconciliation engine applies.
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/metadata"
)

// Repository handles all book and highlight database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// highlightOrder sorts highlights by the numeric prefix of their location,
// pushing records without a location to the end.
func highlightOrder(db *gorm.DB) *gorm.DB {
	return db.Order("CASE WHEN location_value > 0 THEN 0 ELSE 1 END, location_value ASC, created_at ASC")
}

// GetBook retrieves a book by ASIN with its highlights in reading order.
func (r *Repository) GetBook(asin string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Highlights", highlightOrder).First(&book, "asin = ?", asin).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks retrieves all books with their highlights, most recently
// annotated first.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Highlights", highlightOrder).
		Order("last_annotated DESC").Find(&books).Error
	return books, err
}

// SearchBooks searches books by title or author (case-insensitive partial match).
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	searchPattern := "%" + query + "%"
	err := r.db.Preload("Highlights", highlightOrder).
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", searchPattern, searchPattern).
		Find(&books).Error
	return books, err
}

// UpsertBook writes the scraped fields of a book, creating the record when it
// is new. Enrichment and user-entered fields are never touched here, so a
// re-sync cannot clobber them. The cover is only overwritten by a non-empty
// scrape so an enrichment-sourced cover survives scrapes that carry none.
func (r *Repository) UpsertBook(book *entities.Book) error {
	var existing entities.Book
	result := r.db.First(&existing, "asin = ?", book.ASIN)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return r.db.Omit("Highlights").Create(book).Error
	}
	if result.Error != nil {
		return result.Error
	}

	updates := map[string]any{
		"title":  book.Title,
		"author": book.Author,
		"url":    book.URL,
	}
	if book.ImageURL != "" {
		updates["image_url"] = book.ImageURL
	}
	if book.LastAnnotated != nil {
		updates["last_annotated"] = book.LastAnnotated
	}

	return r.db.Model(&entities.Book{}).Where("asin = ?", book.ASIN).Updates(updates).Error
}

// UpdateBookUserFields updates the user-entered fields of a book. Callers are
// responsible for whitelisting the keys.
func (r *Repository) UpdateBookUserFields(asin string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.Model(&entities.Book{}).Where("asin = ?", asin).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateBookMetadata applies the fields an enrichment pass produced.
// Implements metadata.BookStore.
func (r *Repository) UpdateBookMetadata(asin string, fields metadata.BookUpdateFields) error {
	updates := make(map[string]any)
	if fields.ISBN != nil {
		updates["isbn"] = *fields.ISBN
	}
	if fields.Genres != nil {
		updates["genres"] = *fields.Genres
	}
	if fields.PageCount != nil {
		updates["page_count"] = *fields.PageCount
	}
	if fields.GoodreadsLink != nil {
		updates["goodreads_link"] = *fields.GoodreadsLink
	}
	if fields.ImageURL != nil {
		updates["image_url"] = *fields.ImageURL
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&entities.Book{}).Where("asin = ?", asin).Updates(updates).Error
}

// GetBooksMissingMetadata returns books that have not been enriched yet.
func (r *Repository) GetBooksMissingMetadata() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where(
		"isbn = '' OR isbn IS NULL OR genres = '' OR genres IS NULL OR page_count = 0 OR page_count IS NULL",
	).Find(&books).Error
	return books, err
}

// GetStats returns total book and highlight counts.
func (r *Repository) GetStats() (totalBooks int64, totalHighlights int64, err error) {
	err = r.db.Model(&entities.Book{}).Count(&totalBooks).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Highlight{}).Count(&totalHighlights).Error
	return
}
