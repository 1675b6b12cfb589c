package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/covers"
	"github.com/mrlokans/kindle-sync/internal/entities"
)

// CoverBookReader loads books for cover lookups.
type CoverBookReader interface {
	GetBook(asin string) (*entities.Book, error)
}

type CoversController struct {
	cache  *covers.Cache
	reader CoverBookReader
}

func NewCoversController(cache *covers.Cache, reader CoverBookReader) *CoversController {
	return &CoversController{
		cache:  cache,
		reader: reader,
	}
}

// GetCover handles GET /api/books/:asin/cover. The image is downloaded on
// first request and served from the local cache afterwards.
func (controller *CoversController) GetCover(c *gin.Context) {
	asin := c.Param("asin")

	book, err := controller.reader.GetBook(asin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if book.ImageURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "book has no cover"})
		return
	}

	path, err := controller.cache.GetCover(asin, book.ImageURL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch cover: " + err.Error()})
		return
	}

	c.File(path)
}
