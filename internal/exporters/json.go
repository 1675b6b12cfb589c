package exporters

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/kindle-sync/internal/entities"
)

// JSONExporter writes the whole library into a single JSON document.
type JSONExporter struct {
	OutputPath string
}

type jsonDump struct {
	ExportedAt time.Time       `json:"exported_at"`
	Books      []entities.Book `json:"books"`
}

func (e *JSONExporter) Export(books []entities.Book) (ExportResult, error) {
	var result ExportResult

	dump := jsonDump{ExportedAt: time.Now().UTC()}
	for _, book := range books {
		book.Highlights = visibleHighlights(book)
		dump.Books = append(dump.Books, book)
		result.BooksProcessed++
		result.HighlightsProcessed += len(book.Highlights)
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to marshal export: %w", err)
	}

	if err := os.WriteFile(e.OutputPath, data, 0644); err != nil {
		return ExportResult{}, fmt.Errorf("failed to write %s: %w", e.OutputPath, err)
	}

	return result, nil
}
