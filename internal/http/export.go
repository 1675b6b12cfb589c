package http

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/exporters"
)

// ExportBookReader loads the books to export.
type ExportBookReader interface {
	GetAllBooks() ([]entities.Book, error)
}

type ExportController struct {
	reader     ExportBookReader
	defaultDir string
}

func NewExportController(reader ExportBookReader, defaultDir string) *ExportController {
	return &ExportController{
		reader:     reader,
		defaultDir: defaultDir,
	}
}

type ExportRequest struct {
	// Format is one of markdown, json or csv. Defaults to markdown.
	Format string `json:"format"`
	// Output overrides the configured export destination. Markdown treats
	// it as a directory, json and csv as a file path.
	Output string `json:"output"`
}

// Export handles POST /api/export.
func (controller *ExportController) Export(c *gin.Context) {
	var req ExportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	format := req.Format
	if format == "" {
		format = exporters.FormatMarkdown
	}

	output := req.Output
	if output == "" {
		output = controller.defaultOutput(format)
	}

	exporter, err := exporters.NewExporter(format, output)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	books, err := controller.reader.GetAllBooks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := exporter.Export(books)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format":               format,
		"output":               output,
		"books_processed":      result.BooksProcessed,
		"highlights_processed": result.HighlightsProcessed,
	})
}

func (controller *ExportController) defaultOutput(format string) string {
	switch format {
	case exporters.FormatJSON:
		return filepath.Join(controller.defaultDir, "library.json")
	case exporters.FormatCSV:
		return filepath.Join(controller.defaultDir, "highlights.csv")
	default:
		return controller.defaultDir
	}
}
