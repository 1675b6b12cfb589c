package exporters

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

// CSVExporter writes one row per highlight, flat, for spreadsheet use.
type CSVExporter struct {
	OutputPath string
}

var csvHeader = []string{"asin", "title", "author", "location", "page", "color", "text", "note", "highlighted_at"}

func (e *CSVExporter) Export(books []entities.Book) (ExportResult, error) {
	file, err := os.Create(e.OutputPath)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create %s: %w", e.OutputPath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return ExportResult{}, err
	}

	var result ExportResult
	for _, book := range books {
		result.BooksProcessed++
		for _, h := range visibleHighlights(book) {
			highlightedAt := ""
			if h.HighlightedAt != nil {
				highlightedAt = h.HighlightedAt.Format("2006-01-02")
			}
			row := []string{
				book.ASIN, book.Title, book.Author,
				h.Location, h.Page, string(h.Color), h.Text, h.Note, highlightedAt,
			}
			if err := writer.Write(row); err != nil {
				return result, err
			}
			result.HighlightsProcessed++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return result, err
	}

	return result, nil
}
