package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

// BookStore is the database access the books controller needs.
type BookStore interface {
	GetBook(asin string) (*entities.Book, error)
	GetAllBooks() ([]entities.Book, error)
	SearchBooks(query string) ([]entities.Book, error)
	UpdateBookUserFields(asin string, fields map[string]any) error
	GetHighlightsForBook(asin string) ([]entities.Highlight, error)
	GetStats() (totalBooks, totalHighlights int64, err error)
}

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{
		store: store,
	}
}

// GetAllBooks handles GET /api/books. An optional q parameter filters by
// title or author substring.
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	var (
		books []entities.Book
		err   error
	)

	if query := c.Query("q"); query != "" {
		books, err = controller.store.SearchBooks(query)
	} else {
		books, err = controller.store.GetAllBooks()
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook handles GET /api/books/:asin.
func (controller *BooksController) GetBook(c *gin.Context) {
	book, err := controller.store.GetBook(c.Param("asin"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, book)
}

// UpdateBookRequest carries the user-entered fields of a book. Only fields
// present in the request body are written; scraped fields cannot be changed
// through this endpoint.
type UpdateBookRequest struct {
	Status        *string    `json:"status"`
	Format        *string    `json:"format"`
	PersonalNotes *string    `json:"personal_notes"`
	Review        *string    `json:"review"`
	StarRating    *float64   `json:"star_rating"`
	PurchaseDate  *time.Time `json:"purchase_date"`
}

// UpdateBook handles PATCH /api/books/:asin.
func (controller *BooksController) UpdateBook(c *gin.Context) {
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	fields := make(map[string]any)
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Format != nil {
		fields["format"] = *req.Format
	}
	if req.PersonalNotes != nil {
		fields["personal_notes"] = *req.PersonalNotes
	}
	if req.Review != nil {
		fields["review"] = *req.Review
	}
	if req.StarRating != nil {
		fields["star_rating"] = *req.StarRating
	}
	if req.PurchaseDate != nil {
		fields["purchase_date"] = *req.PurchaseDate
	}

	if len(fields) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "no updatable fields in request"})
		return
	}

	asin := c.Param("asin")
	if err := controller.store.UpdateBookUserFields(asin, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	book, err := controller.store.GetBook(asin)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, book)
}

// GetBookHighlights handles GET /api/books/:asin/highlights. Highlights come
// back in reading order; hidden ones are included and flagged.
func (controller *BooksController) GetBookHighlights(c *gin.Context) {
	asin := c.Param("asin")

	if _, err := controller.store.GetBook(asin); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	highlights, err := controller.store.GetHighlightsForBook(asin)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"highlights": highlights, "count": len(highlights)})
}

// GetStats handles GET /api/stats.
func (controller *BooksController) GetStats(c *gin.Context) {
	totalBooks, totalHighlights, err := controller.store.GetStats()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"total_books":      totalBooks,
		"total_highlights": totalHighlights,
	})
}
