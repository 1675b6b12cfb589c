package exporters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

// MarkdownExporter writes one note per book into OutputDir.
type MarkdownExporter struct {
	OutputDir string
}

func (e *MarkdownExporter) Export(books []entities.Book) (ExportResult, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	var result ExportResult
	for _, book := range books {
		outputPath := filepath.Join(e.OutputDir, sanitizeFilename(book.Title)+".md")
		content, count := GenerateMarkdown(&book)
		if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
			return result, fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		result.BooksProcessed++
		result.HighlightsProcessed += count
	}

	return result, nil
}

// GenerateMarkdown renders one book's note and returns it with the number of
// highlights included.
func GenerateMarkdown(book *entities.Book) (string, int) {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: kindle_highlights\n")
	fmt.Fprintf(&builder, "created_at: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&builder, "asin: %s\n", book.ASIN)
	fmt.Fprintf(&builder, "title: \"%s\"\n", strings.ReplaceAll(book.Title, "\"", "\\\""))
	fmt.Fprintf(&builder, "author: \"%s\"\n", strings.ReplaceAll(book.Author, "\"", "\\\""))
	if book.ISBN != "" {
		fmt.Fprintf(&builder, "isbn: %s\n", book.ISBN)
	}
	if book.Genres != "" {
		fmt.Fprintf(&builder, "genres: %s\n", book.Genres)
	}
	fmt.Fprintf(&builder, "tags: highlights, books\n")
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "## Highlights\n\n")

	visible := visibleHighlights(*book)
	for _, highlight := range visible {
		header := highlightHeader(highlight)
		if header != "" {
			fmt.Fprintf(&builder, "### %s\n\n", header)
		}
		fmt.Fprintf(&builder, "> %s\n\n", strings.ReplaceAll(highlight.Text, "\n", "\n> "))
		if highlight.Note != "" {
			fmt.Fprintf(&builder, "**Note:** %s\n\n", highlight.Note)
		}
	}

	return builder.String(), len(visible)
}

func highlightHeader(h entities.Highlight) string {
	var parts []string
	if h.Location != "" {
		parts = append(parts, "Location "+h.Location)
	}
	if h.Page != "" {
		parts = append(parts, "Page "+h.Page)
	}
	if h.HighlightedAt != nil {
		parts = append(parts, h.HighlightedAt.Format("2006-01-02"))
	}
	return strings.Join(parts, ", ")
}
