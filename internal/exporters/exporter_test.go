package exporters

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

func sampleBooks() []entities.Book {
	highlightedAt := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	return []entities.Book{
		{
			ASIN:   "B0001",
			Title:  "Atomic Habits",
			Author: "James Clear",
			ISBN:   "9780735211292",
			Genres: "Self Help, Nonfiction",
			Highlights: []entities.Highlight{
				{
					ID:            "aaaaaaaa",
					BookASIN:      "B0001",
					Text:          "You do not rise to the level of your goals.\nYou fall to the level of your systems.",
					Location:      "254-267",
					Page:          "27",
					Note:          "core idea",
					Color:         entities.HighlightColorYellow,
					HighlightedAt: &highlightedAt,
				},
				{
					ID:       "bbbbbbbb",
					BookASIN: "B0001",
					Text:     "embarrassing highlight",
					Hidden:   true,
				},
			},
		},
		{
			ASIN:   "B0002",
			Title:  "What If?/Serious: *Scientific* Answers",
			Author: "Randall Munroe",
		},
	}
}

func TestGenerateMarkdown(t *testing.T) {
	t.Run("renders frontmatter and highlights", func(t *testing.T) {
		books := sampleBooks()
		markdown, count := GenerateMarkdown(&books[0])

		assert.Contains(t, markdown, "content_type: kindle_highlights")
		assert.Contains(t, markdown, `title: "Atomic Habits"`)
		assert.Contains(t, markdown, `author: "James Clear"`)
		assert.Contains(t, markdown, "isbn: 9780735211292")
		assert.Contains(t, markdown, "## Highlights")
		assert.Contains(t, markdown, "### Location 254-267, Page 27, 2024-06-15")
		assert.Contains(t, markdown, "> You do not rise to the level of your goals.\n> You fall to the level of your systems.")
		assert.Contains(t, markdown, "**Note:** core idea")
		assert.Equal(t, 1, count)
	})

	t.Run("excludes hidden highlights", func(t *testing.T) {
		books := sampleBooks()
		markdown, count := GenerateMarkdown(&books[0])

		assert.NotContains(t, markdown, "embarrassing highlight")
		assert.Equal(t, 1, count)
	})

	t.Run("escapes quotes in frontmatter", func(t *testing.T) {
		book := entities.Book{Title: `The "Best" Book`, Author: "A"}
		markdown, _ := GenerateMarkdown(&book)
		assert.Contains(t, markdown, `title: "The \"Best\" Book"`)
	})
}

func TestMarkdownExporter(t *testing.T) {
	dir := t.TempDir()
	exporter := &MarkdownExporter{OutputDir: filepath.Join(dir, "notes")}

	result, err := exporter.Export(sampleBooks())
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksProcessed)
	assert.Equal(t, 1, result.HighlightsProcessed)

	entries, err := os.ReadDir(filepath.Join(dir, "notes"))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, entry := range entries {
		assert.False(t, strings.ContainsAny(entry.Name(), `/\:*?"<>|`),
			"file name %q should be sanitized", entry.Name())
	}
}

func TestJSONExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	exporter := &JSONExporter{OutputPath: path}

	result, err := exporter.Export(sampleBooks())
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksProcessed)
	assert.Equal(t, 1, result.HighlightsProcessed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var dump struct {
		Books []entities.Book `json:"books"`
	}
	require.NoError(t, json.Unmarshal(data, &dump))
	require.Len(t, dump.Books, 2)
	require.Len(t, dump.Books[0].Highlights, 1, "hidden highlight excluded")
	assert.Equal(t, "aaaaaaaa", dump.Books[0].Highlights[0].ID)
}

func TestCSVExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highlights.csv")
	exporter := &CSVExporter{OutputPath: path}

	result, err := exporter.Export(sampleBooks())
	require.NoError(t, err)
	assert.Equal(t, 1, result.HighlightsProcessed)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one visible highlight")
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "B0001", rows[1][0])
	assert.Equal(t, "254-267", rows[1][3])
	assert.Equal(t, "yellow", rows[1][5])
}

func TestNewExporter(t *testing.T) {
	for _, format := range []string{FormatMarkdown, FormatJSON, FormatCSV} {
		exporter, err := NewExporter(format, "out")
		require.NoError(t, err)
		assert.NotNil(t, exporter)
	}

	_, err := NewExporter("xml", "out")
	assert.Error(t, err)
}
