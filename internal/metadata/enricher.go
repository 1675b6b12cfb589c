package metadata

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mrlokans/kindle-sync/internal/amazon"
	"github.com/mrlokans/kindle-sync/internal/entities"
)

// ProductSource fetches pages through the authenticated Amazon session.
type ProductSource interface {
	Get(ctx context.Context, url string) (*amazon.Response, error)
}

// CatalogProvider looks up catalog data for an ISBN.
type CatalogProvider interface {
	LookupISBN(ctx context.Context, isbn string) (*CatalogEntry, error)
}

// BookStore is the slice of the books repository enrichment needs.
type BookStore interface {
	GetBook(asin string) (*entities.Book, error)
	UpdateBookMetadata(asin string, fields BookUpdateFields) error
}

// CoverInvalidator prunes cached cover files for a book. Satisfied by
// covers.Cache.
type CoverInvalidator interface {
	InvalidateCover(asin string) error
}

// BookUpdateFields contains the fields enrichment may update. Nil means leave
// the stored value alone.
type BookUpdateFields struct {
	ISBN          *string
	Genres        *string
	PageCount     *int
	GoodreadsLink *string
	ImageURL      *string
}

// EnrichmentResult contains the outcome of enriching one book.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
}

// Enricher fills in the metadata fields a library scrape cannot provide. It
// is a decorator over the sync flow: callers log its errors and move on, a
// book with no ISBN is skipped, and existing values are never overwritten.
type Enricher struct {
	products         ProductSource
	catalog          CatalogProvider
	store            BookStore
	coverInvalidator CoverInvalidator
}

// SetCoverInvalidator attaches the cover cache so a cover written by
// enrichment drops any file cached for the book's previous URL. Optional.
func (e *Enricher) SetCoverInvalidator(invalidator CoverInvalidator) {
	e.coverInvalidator = invalidator
}

func NewEnricher(products ProductSource, catalog CatalogProvider, store BookStore) *Enricher {
	return &Enricher{
		products: products,
		catalog:  catalog,
		store:    store,
	}
}

// EnrichBook resolves the book's ISBN (stored value first, then the product
// page) and fills genres, page count, cover and the catalog link from a
// catalog lookup. A book whose ISBN cannot be determined is skipped with an
// empty FieldsUpdated, not an error.
func (e *Enricher) EnrichBook(ctx context.Context, asin string) (*EnrichmentResult, error) {
	book, err := e.store.GetBook(asin)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	isbn := book.ISBN
	if isbn == "" {
		isbn, err = e.isbnFromProductPage(ctx, book)
		if err != nil {
			return nil, fmt.Errorf("product page for %s: %w", asin, err)
		}
	}
	if isbn == "" {
		log.Printf("Warning: no ISBN found for %q (%s), skipping enrichment", book.Title, asin)
		return &EnrichmentResult{Book: book}, nil
	}

	entry, err := e.catalog.LookupISBN(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup for %s: %w", isbn, err)
	}

	updates, fieldsUpdated := buildUpdates(book, isbn, entry)
	if len(fieldsUpdated) > 0 {
		if updates.ImageURL != nil && e.coverInvalidator != nil {
			_ = e.coverInvalidator.InvalidateCover(asin)
		}
		if err := e.store.UpdateBookMetadata(asin, updates); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}
		book, err = e.store.GetBook(asin)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: fieldsUpdated,
	}, nil
}

func (e *Enricher) isbnFromProductPage(ctx context.Context, book *entities.Book) (string, error) {
	if book.URL == "" {
		return "", nil
	}

	resp, err := e.products.Get(ctx, book.URL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return "", fmt.Errorf("parse product page: %w", err)
	}

	return ExtractISBN(doc), nil
}

// buildUpdates fills only fields the book does not already have. The cover is
// the one exception to never touching scraped data: it is only set when the
// library scrape produced no image at all.
func buildUpdates(book *entities.Book, isbn string, entry *CatalogEntry) (BookUpdateFields, []string) {
	var updates BookUpdateFields
	var fieldsUpdated []string

	if book.ISBN == "" && isbn != "" {
		updates.ISBN = &isbn
		fieldsUpdated = append(fieldsUpdated, "isbn")
	}

	if book.Genres == "" && len(entry.Genres) > 0 {
		genres := strings.Join(entry.Genres, ", ")
		updates.Genres = &genres
		fieldsUpdated = append(fieldsUpdated, "genres")
	}

	if book.PageCount == 0 && entry.PageCount > 0 {
		updates.PageCount = &entry.PageCount
		fieldsUpdated = append(fieldsUpdated, "page_count")
	}

	if book.GoodreadsLink == "" && entry.Link != "" {
		updates.GoodreadsLink = &entry.Link
		fieldsUpdated = append(fieldsUpdated, "goodreads_link")
	}

	if book.ImageURL == "" && entry.CoverURL != "" {
		updates.ImageURL = &entry.CoverURL
		fieldsUpdated = append(fieldsUpdated, "image_url")
	}

	return updates, fieldsUpdated
}
