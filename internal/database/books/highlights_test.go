package books

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

func seedBook(t *testing.T, repo *Repository, asin string) {
	t.Helper()
	require.NoError(t, repo.UpsertBook(&entities.Book{ASIN: asin, Title: "Test Book", Author: "Author"}))
}

func TestApplyHighlightChanges_UpsertAndDelete(t *testing.T) {
	repo := setupTestDB(t)
	seedBook(t, repo, "B0001")

	require.NoError(t, repo.ApplyHighlightChanges("B0001", []entities.Highlight{
		{ID: "aaaaaaaa", Text: "kept", Location: "10", LocationValue: 10},
		{ID: "bbbbbbbb", Text: "removed later", Location: "20", LocationValue: 20},
	}, nil))

	// Hide the kept highlight between syncs.
	require.NoError(t, repo.SetHighlightHidden("B0001", "aaaaaaaa", true))

	// Next sync: "aaaaaaaa" re-scraped, "cccccccc" new, "bbbbbbbb" gone.
	require.NoError(t, repo.ApplyHighlightChanges("B0001", []entities.Highlight{
		{ID: "aaaaaaaa", Text: "kept", Location: "10", LocationValue: 10},
		{ID: "cccccccc", Text: "brand new", Location: "30", LocationValue: 30},
	}, []string{"bbbbbbbb"}))

	ids, err := repo.GetHighlightIDs("B0001")
	require.NoError(t, err)
	sort.Strings(ids)
	assert.Equal(t, []string{"aaaaaaaa", "cccccccc"}, ids)

	kept, err := repo.GetHighlight("B0001", "aaaaaaaa")
	require.NoError(t, err)
	assert.True(t, kept.Hidden, "hidden flag must survive a re-sync upsert")
}

func TestApplyHighlightChanges_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	seedBook(t, repo, "B0001")

	highlights := []entities.Highlight{
		{ID: "aaaaaaaa", Text: "one"},
		{ID: "bbbbbbbb", Text: "two"},
	}
	require.NoError(t, repo.ApplyHighlightChanges("B0001", highlights, nil))
	require.NoError(t, repo.ApplyHighlightChanges("B0001", highlights, nil))

	ids, err := repo.GetHighlightIDs("B0001")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestGetHighlightsForBook_ReadingOrder(t *testing.T) {
	repo := setupTestDB(t)
	seedBook(t, repo, "B0001")

	require.NoError(t, repo.ApplyHighlightChanges("B0001", []entities.Highlight{
		{ID: "aaaaaaaa", Text: "late", Location: "300-310", LocationValue: 300},
		{ID: "bbbbbbbb", Text: "no location"},
		{ID: "cccccccc", Text: "early", Location: "10", LocationValue: 10},
	}, nil))

	highlights, err := repo.GetHighlightsForBook("B0001")
	require.NoError(t, err)
	require.Len(t, highlights, 3)
	assert.Equal(t, "early", highlights[0].Text)
	assert.Equal(t, "late", highlights[1].Text)
	assert.Equal(t, "no location", highlights[2].Text, "highlights without a location sort last")
}

func TestSetHighlightHidden_NotFound(t *testing.T) {
	repo := setupTestDB(t)
	seedBook(t, repo, "B0001")

	err := repo.SetHighlightHidden("B0001", "missing1", true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSameTextAcrossBooks(t *testing.T) {
	repo := setupTestDB(t)
	seedBook(t, repo, "B0001")
	seedBook(t, repo, "B0002")

	// Identical text yields identical IDs; the composite key keeps the
	// records distinct per book.
	require.NoError(t, repo.ApplyHighlightChanges("B0001", []entities.Highlight{{ID: "aaaaaaaa", Text: "same"}}, nil))
	require.NoError(t, repo.ApplyHighlightChanges("B0002", []entities.Highlight{{ID: "aaaaaaaa", Text: "same"}}, nil))

	first, err := repo.GetHighlightIDs("B0001")
	require.NoError(t, err)
	second, err := repo.GetHighlightIDs("B0002")
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)

	// Deleting from one book must not touch the other.
	require.NoError(t, repo.ApplyHighlightChanges("B0001", nil, []string{"aaaaaaaa"}))
	first, err = repo.GetHighlightIDs("B0001")
	require.NoError(t, err)
	second, err = repo.GetHighlightIDs("B0002")
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.Len(t, second, 1)
}
