// Package cli implements the flag-based commands reachable from main.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/amazon"
	"github.com/mrlokans/kindle-sync/internal/config"
	"github.com/mrlokans/kindle-sync/internal/database"
	"github.com/mrlokans/kindle-sync/internal/database/books"
	"github.com/mrlokans/kindle-sync/internal/database/progress"
	"github.com/mrlokans/kindle-sync/internal/database/settings"
	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/metadata"
	"github.com/mrlokans/kindle-sync/internal/regions"
	"github.com/mrlokans/kindle-sync/internal/retry"
	"github.com/mrlokans/kindle-sync/internal/sync"
)

// SyncCommand scrapes the Kindle library and reconciles highlights into the
// local database.
type SyncCommand struct {
	Full         bool
	ASIN         string
	DatabasePath string
	CookieFile   string
	Verbose      bool
}

func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.BoolVar(&cmd.Full, "full", false, "Re-scrape every book, ignoring last-annotated dates")
	fs.StringVar(&cmd.ASIN, "asin", "", "Sync a single book by its ASIN")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.CookieFile, "cookies", "", "Path to the exported Amazon cookie file (overrides the stored setting)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print a per-book report")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Scrape the Amazon Kindle notebook and reconcile highlights into the\n")
		fmt.Fprintf(os.Stderr, "local database. By default only books annotated since the last\n")
		fmt.Fprintf(os.Stderr, "successful sync are re-scraped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Incremental sync:\n")
		fmt.Fprintf(os.Stderr, "  %s sync\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Full re-sync of the whole library:\n")
		fmt.Fprintf(os.Stderr, "  %s sync -full\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Re-sync one book:\n")
		fmt.Fprintf(os.Stderr, "  %s sync -asin B00ABCD123\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *SyncCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	booksRepo := books.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	scraper, session, err := buildScraper(cfg, settingsRepo, cmd.CookieFile)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if cmd.ASIN != "" {
		return cmd.syncSingleBook(ctx, scraper, booksRepo)
	}

	var enricher sync.Enricher
	if cfg.Catalog.Enabled {
		goodreads := metadata.NewGoodreadsClient(metadata.GoodreadsConfig{
			UserAgent:  cfg.Amazon.UserAgent,
			MaxRetries: cfg.Catalog.MaxRetries,
			RetryDelay: cfg.Catalog.RetryDelay,
		})
		enricher = metadata.NewEnricher(session, goodreads, booksRepo)
	}

	service := sync.NewService(sync.ServiceConfig{
		Scraper:  scraper,
		Books:    booksRepo,
		Progress: progressRepo,
		Settings: settingsRepo,
		Enricher: enricher,
		Workers:  cfg.Scrape.Workers,
	})

	fmt.Println("Kindle Sync")
	fmt.Println("===========")
	if cmd.Full {
		fmt.Println("Full sync: re-scraping every book")
	}

	result, err := service.Sync(ctx, cmd.Full)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", result.Message)
	if result.BooksFailed > 0 {
		fmt.Printf("%d books failed:\n", result.BooksFailed)
		for _, book := range result.Books {
			if book.Error != "" {
				fmt.Printf("  [ERROR] %s: %s\n", book.Title, book.Error)
			}
		}
	}

	if cmd.Verbose {
		fmt.Println("\n=== Books ===")
		for i, book := range result.Books {
			fmt.Printf("%d. \"%s\" by %s: %d new, %d deleted, %d total\n",
				i+1, book.Title, book.Author, book.New, book.Deleted, book.Total)
		}
	}

	return nil
}

// syncSingleBook re-scrapes one book. The library listing is still fetched
// so the book record itself gets refreshed too.
func (cmd *SyncCommand) syncSingleBook(ctx context.Context, scraper *amazon.Scraper, booksRepo *books.Repository) error {
	fmt.Printf("Syncing book %s\n", cmd.ASIN)

	listing, err := scraper.ScrapeBooks(ctx)
	if err != nil {
		return fmt.Errorf("scrape library: %w", err)
	}

	var book *entities.Book
	for i := range listing {
		if listing[i].ASIN == cmd.ASIN {
			book = &listing[i]
			break
		}
	}
	if book == nil {
		return fmt.Errorf("book %s not found in the remote library", cmd.ASIN)
	}

	if err := booksRepo.UpsertBook(book); err != nil {
		return fmt.Errorf("save book: %w", err)
	}

	highlights, err := scraper.ScrapeHighlights(ctx, *book)
	if err != nil {
		return fmt.Errorf("scrape highlights: %w", err)
	}

	tally, err := sync.ReconcileHighlights(booksRepo, cmd.ASIN, highlights)
	if err != nil {
		return fmt.Errorf("reconcile highlights: %w", err)
	}

	fmt.Printf("\"%s\": %d new, %d deleted, %d total\n", book.Title, tally.New, tally.Deleted, tally.Total)
	return nil
}

// buildScraper wires an authenticated scraper from config and stored
// settings. The database settings win over environment defaults; an explicit
// -cookies flag wins over both.
func buildScraper(cfg *config.Config, settingsRepo *settings.Repository, cookieOverride string) (*amazon.Scraper, *amazon.Session, error) {
	region := regions.Region(cfg.Amazon.Region)
	if setting, err := settingsRepo.GetSetting(entities.SettingRegion); err == nil && setting.Value != "" {
		region = regions.Region(setting.Value)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	cookieFile := cookieOverride
	if cookieFile == "" {
		cookieFile = cfg.Amazon.CookieFile
		if setting, err := settingsRepo.GetSetting(entities.SettingCookieFile); err == nil && setting.Value != "" {
			cookieFile = setting.Value
		}
	}

	session, err := amazon.NewSession(amazon.SessionConfig{
		CookieFile:     cookieFile,
		UserAgent:      cfg.Amazon.UserAgent,
		RequestTimeout: cfg.Scrape.RequestTimeout,
		RatePerSecond:  cfg.Scrape.RatePerSecond,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	scraper, err := amazon.NewScraper(session, amazon.ScraperConfig{
		Region: region,
		Retry: retry.Policy{
			MaxAttempts: cfg.Scrape.MaxRetries,
			Delay:       cfg.Scrape.RetryDelay,
			Backoff:     cfg.Scrape.RetryBackoff,
		},
		MaxPages: cfg.Scrape.MaxPages,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create scraper: %w", err)
	}

	return scraper, session, nil
}
