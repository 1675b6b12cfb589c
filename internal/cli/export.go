package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/kindle-sync/internal/config"
	"github.com/mrlokans/kindle-sync/internal/database"
	"github.com/mrlokans/kindle-sync/internal/database/books"
	"github.com/mrlokans/kindle-sync/internal/exporters"
)

// ExportCommand renders the local library into files.
type ExportCommand struct {
	Format       string
	Output       string
	DatabasePath string
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.Format, "format", exporters.FormatMarkdown, "Export format: markdown, json or csv")
	fs.StringVar(&cmd.Output, "output", "", "Output directory (markdown) or file path (json, csv)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export the local library. Hidden highlights are never exported.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # One markdown note per book:\n")
		fmt.Fprintf(os.Stderr, "  %s export -output ~/notes/books\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Whole library as JSON:\n")
		fmt.Fprintf(os.Stderr, "  %s export -format json -output library.json\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *ExportCommand) Run() error {
	cfg := config.NewConfig()

	output := cmd.Output
	if output == "" {
		switch cmd.Format {
		case exporters.FormatJSON:
			output = filepath.Join(cfg.Export.Dir, "library.json")
		case exporters.FormatCSV:
			output = filepath.Join(cfg.Export.Dir, "highlights.csv")
		default:
			output = cfg.Export.Dir
		}
	}

	exporter, err := exporters.NewExporter(cmd.Format, output)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	allBooks, err := books.NewRepository(db.DB).GetAllBooks()
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}

	if len(allBooks) == 0 {
		fmt.Println("No books to export")
		return nil
	}

	result, err := exporter.Export(allBooks)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("Exported %d books with %d highlights to %s\n",
		result.BooksProcessed, result.HighlightsProcessed, output)
	return nil
}
