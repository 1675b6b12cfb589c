// Package exporters renders the synced library into files: one Markdown note
// per book, a single JSON dump, or a flat CSV of highlights. Hidden
// highlights never appear in exports.
package exporters

import (
	"fmt"
	"strings"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

type BookExporter interface {
	Export(books []entities.Book) (ExportResult, error)
}

type ExportResult struct {
	BooksProcessed      int `json:"books_processed"`
	HighlightsProcessed int `json:"highlights_processed"`
}

// Format names accepted by NewExporter.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatCSV      = "csv"
)

// NewExporter picks an exporter by format name. Markdown writes into outputPath
// as a directory; json and csv treat it as a single file.
func NewExporter(format, outputPath string) (BookExporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{OutputDir: outputPath}, nil
	case FormatJSON:
		return &JSONExporter{OutputPath: outputPath}, nil
	case FormatCSV:
		return &CSVExporter{OutputPath: outputPath}, nil
	default:
		return nil, fmt.Errorf("unknown export format: %q", format)
	}
}

// visibleHighlights filters out the highlights the user hid.
func visibleHighlights(book entities.Book) []entities.Highlight {
	visible := make([]entities.Highlight, 0, len(book.Highlights))
	for _, h := range book.Highlights {
		if h.Hidden {
			continue
		}
		visible = append(visible, h)
	}
	return visible
}

// sanitizeFilename makes a book title safe to use as a file name.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "", "?", "",
		"\"", "", "<", "", ">", "", "|", "-",
	)
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		cleaned = "untitled"
	}
	return cleaned
}
