package http

import (
	"bytes"
	"encoding/json"
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

func setupBooksTest(t *testing.T) (*books.Repository, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := books.NewRepository(db.DB)
	controller := NewBooksController(repo)

	router := gin.New()
	router.GET("/api/books", controller.GetAllBooks)
	router.GET("/api/books/:asin", controller.GetBook)
	router.PATCH("/api/books/:asin", controller.UpdateBook)
	router.GET("/api/books/:asin/highlights", controller.GetBookHighlights)
	router.GET("/api/stats", controller.GetStats)

	return repo, router
}

func seedBook(t *testing.T, repo *books.Repository, asin, title, author string) {
	t.Helper()
	require.NoError(t, repo.UpsertBook(&entities.Book{ASIN: asin, Title: title, Author: author}))
}

func TestBooksController_GetAllBooks(t *testing.T) {
	t.Run("returns empty list when no books", func(t *testing.T) {
		_, router := setupBooksTest(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(0), response["count"])
		assert.Empty(t, response["books"])
	})

	t.Run("returns books with count", func(t *testing.T) {
		repo, router := setupBooksTest(t)
		seedBook(t, repo, "B0001", "Book 1", "Author 1")
		seedBook(t, repo, "B0002", "Book 2", "Author 2")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(2), response["count"])
	})

	t.Run("filters by query", func(t *testing.T) {
		repo, router := setupBooksTest(t)
		seedBook(t, repo, "B0001", "Atomic Habits", "James Clear")
		seedBook(t, repo, "B0002", "Deep Work", "Cal Newport")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books?q=atomic", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, float64(1), response["count"])
	})
}

func TestBooksController_GetBook(t *testing.T) {
	t.Run("returns 404 for unknown book", func(t *testing.T) {
		_, router := setupBooksTest(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/B9999", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "book not found")
	})

	t.Run("returns book when found", func(t *testing.T) {
		repo, router := setupBooksTest(t)
		seedBook(t, repo, "B0001", "Found Book", "Known Author")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/B0001", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var book entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
		assert.Equal(t, "Found Book", book.Title)
	})
}

func TestBooksController_UpdateBook(t *testing.T) {
	t.Run("updates user fields", func(t *testing.T) {
		repo, router := setupBooksTest(t)
		seedBook(t, repo, "B0001", "Book", "Author")

		body := bytes.NewBufferString(`{"status": "Done", "star_rating": 4.5}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/books/B0001", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		book, err := repo.GetBook("B0001")
		require.NoError(t, err)
		assert.Equal(t, "Done", book.Status)
		assert.Equal(t, 4.5, book.StarRating)
	})

	t.Run("rejects empty update", func(t *testing.T) {
		repo, router := setupBooksTest(t)
		seedBook(t, repo, "B0001", "Book", "Author")

		body := bytes.NewBufferString(`{}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/books/B0001", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no updatable fields")
	})

	t.Run("returns 404 for unknown book", func(t *testing.T) {
		_, router := setupBooksTest(t)

		body := bytes.NewBufferString(`{"status": "Done"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/books/B9999", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksController_GetBookHighlights(t *testing.T) {
	t.Run("returns highlights including hidden ones", func(t *testing.T) {
		repo, router := setupBooksTest(t)
		seedBook(t, repo, "B0001", "Book", "Author")
		require.NoError(t, repo.ApplyHighlightChanges("B0001", []entities.Highlight{
			{ID: "aaaaaaaa", Text: "first", LocationValue: 10},
			{ID: "bbbbbbbb", Text: "second", LocationValue: 20},
		}, nil))
		require.NoError(t, repo.SetHighlightHidden("B0001", "bbbbbbbb", true))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/B0001/highlights", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Highlights []entities.Highlight `json:"highlights"`
			Count      int                  `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "aaaaaaaa", response.Highlights[0].ID)
		assert.True(t, response.Highlights[1].Hidden)
	})

	t.Run("returns 404 for unknown book", func(t *testing.T) {
		_, router := setupBooksTest(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/B9999/highlights", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksController_GetStats(t *testing.T) {
	repo, router := setupBooksTest(t)
	seedBook(t, repo, "B0001", "Book", "Author")
	require.NoError(t, repo.ApplyHighlightChanges("B0001", []entities.Highlight{
		{ID: "aaaaaaaa", Text: "first"},
	}, nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["total_books"])
	assert.Equal(t, float64(1), response["total_highlights"])
}
