package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kindle-sync/internal/database"
	"github.com/mrlokans/kindle-sync/internal/database/books"
	"github.com/mrlokans/kindle-sync/internal/entities"
)

func setupHighlightsTest(t *testing.T) (*books.Repository, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := books.NewRepository(db.DB)
	controller := NewHighlightsController(repo)

	router := gin.New()
	router.PATCH("/api/highlights/:id", controller.SetHidden)
	return repo, router
}

func TestHighlightsController_SetHidden(t *testing.T) {
	t.Run("hides and unhides a highlight", func(t *testing.T) {
		repo, router := setupHighlightsTest(t)
		require.NoError(t, repo.UpsertBook(&entities.Book{ASIN: "B0001", Title: "Book"}))
		require.NoError(t, repo.ApplyHighlightChanges("B0001", []entities.Highlight{
			{ID: "aaaaaaaa", Text: "some text"},
		}, nil))

		body := bytes.NewBufferString(`{"asin": "B0001", "hidden": true}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/highlights/aaaaaaaa", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		highlight, err := repo.GetHighlight("B0001", "aaaaaaaa")
		require.NoError(t, err)
		assert.True(t, highlight.Hidden)

		body = bytes.NewBufferString(`{"asin": "B0001", "hidden": false}`)
		w = httptest.NewRecorder()
		req, _ = http.NewRequest("PATCH", "/api/highlights/aaaaaaaa", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		highlight, err = repo.GetHighlight("B0001", "aaaaaaaa")
		require.NoError(t, err)
		assert.False(t, highlight.Hidden)
	})

	t.Run("requires asin and hidden", func(t *testing.T) {
		_, router := setupHighlightsTest(t)

		body := bytes.NewBufferString(`{"asin": "B0001"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/highlights/aaaaaaaa", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for unknown highlight", func(t *testing.T) {
		repo, router := setupHighlightsTest(t)
		require.NoError(t, repo.UpsertBook(&entities.Book{ASIN: "B0001", Title: "Book"}))

		body := bytes.NewBufferString(`{"asin": "B0001", "hidden": true}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/highlights/ffffffff", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
