package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HighlightStore is the database access the highlights controller needs.
type HighlightStore interface {
	SetHighlightHidden(asin, id string, hidden bool) error
}

type HighlightsController struct {
	store HighlightStore
}

func NewHighlightsController(store HighlightStore) *HighlightsController {
	return &HighlightsController{store: store}
}

// SetHiddenRequest targets a highlight by its owning book. Highlight IDs are
// derived from text, so the same ID can exist under several books.
type SetHiddenRequest struct {
	ASIN   string `json:"asin" binding:"required"`
	Hidden *bool  `json:"hidden" binding:"required"`
}

// SetHidden handles PATCH /api/highlights/:id. Hidden highlights stay in the
// database and survive re-syncs, they are only excluded from exports.
func (controller *HighlightsController) SetHidden(c *gin.Context) {
	var req SetHiddenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asin and hidden fields are required"})
		return
	}

	id := c.Param("id")
	if err := controller.store.SetHighlightHidden(req.ASIN, id, *req.Hidden); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "highlight not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     id,
		"asin":   req.ASIN,
		"hidden": *req.Hidden,
	})
}
