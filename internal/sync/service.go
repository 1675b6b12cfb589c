package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/kindle-sync/internal/amazon"
	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/metadata"
)

// ErrSyncRunning is returned when a sync is requested while one is already in
// progress.
var ErrSyncRunning = errors.New("a sync is already running")

// DefaultWorkers bounds how many books are scraped concurrently. The
// pagination loop inside one book stays strictly sequential; only distinct
// books run in parallel.
const DefaultWorkers = 4

// Scraper is the extraction side of the pipeline.
type Scraper interface {
	ScrapeBooks(ctx context.Context) ([]entities.Book, error)
	ScrapeHighlights(ctx context.Context, book entities.Book) ([]entities.Highlight, error)
}

// BookStore is the storage side of the pipeline.
type BookStore interface {
	HighlightStore
	UpsertBook(book *entities.Book) error
	GetBooksMissingMetadata() ([]entities.Book, error)
}

// ProgressReporter records sync progress for the UI to poll.
type ProgressReporter interface {
	Start(booksTotal int) error
	SetTotal(booksTotal int) error
	Update(processed, failed, newHighlights, deletedHighlights int, currentBook string) error
	Complete(succeeded bool, errorMsg string) error
	IsRunning() (bool, error)
}

// SettingsStore tracks the last successful sync for incremental runs.
type SettingsStore interface {
	LastSync() (*time.Time, error)
	SetLastSync(t time.Time) error
}

// Enricher fills metadata for books that are missing it. Optional; enrichment
// failures are logged, never propagated.
type Enricher interface {
	EnrichBook(ctx context.Context, asin string) (*metadata.EnrichmentResult, error)
}

// BookSyncDetail is one book's line in the sync report.
type BookSyncDetail struct {
	ASIN    string `json:"asin"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	New     int    `json:"new"`
	Deleted int    `json:"deleted"`
	Total   int    `json:"total"`
	Error   string `json:"error,omitempty"`
}

// SyncResult is the best-effort summary of one run. A run with failed books
// still reports Success: individual failures are itemized in Books, not
// escalated to the whole run.
type SyncResult struct {
	Success           bool             `json:"success"`
	Message           string           `json:"message"`
	BooksSynced       int              `json:"books_synced"`
	BooksFailed       int              `json:"books_failed"`
	NewHighlights     int              `json:"new_highlights"`
	DeletedHighlights int              `json:"deleted_highlights"`
	Error             string           `json:"error,omitempty"`
	Books             []BookSyncDetail `json:"books,omitempty"`
}

// ServiceConfig wires the sync service's collaborators.
type ServiceConfig struct {
	Scraper  Scraper
	Books    BookStore
	Progress ProgressReporter
	Settings SettingsStore
	Enricher Enricher // optional
	Workers  int
}

// Service orchestrates a full scrape-and-reconcile pass over the library.
type Service struct {
	scraper  Scraper
	books    BookStore
	progress ProgressReporter
	settings SettingsStore
	enricher Enricher
	workers  int
}

func NewService(cfg ServiceConfig) *Service {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{
		scraper:  cfg.Scraper,
		books:    cfg.Books,
		progress: cfg.Progress,
		settings: cfg.Settings,
		enricher: cfg.Enricher,
		workers:  workers,
	}
}

// Sync runs one scrape-and-reconcile pass. When full is false, books whose
// last-annotated date predates the previous successful sync skip the
// highlight scrape (their library record is still refreshed). Books without
// a known last-annotated date are always scraped.
func (s *Service) Sync(ctx context.Context, full bool) (*SyncResult, error) {
	running, err := s.progress.IsRunning()
	if err != nil {
		return nil, fmt.Errorf("check sync status: %w", err)
	}
	if running {
		return nil, ErrSyncRunning
	}

	if err := s.progress.Start(0); err != nil {
		return nil, fmt.Errorf("start sync progress: %w", err)
	}

	result, err := s.run(ctx, full)
	if err != nil {
		_ = s.progress.Complete(false, err.Error())
		return &SyncResult{Success: false, Error: err.Error()}, err
	}

	completeMsg := ""
	if result.BooksFailed > 0 {
		completeMsg = fmt.Sprintf("%d books failed", result.BooksFailed)
	}
	_ = s.progress.Complete(true, completeMsg)

	if result.BooksFailed == 0 {
		if err := s.settings.SetLastSync(time.Now()); err != nil {
			log.Printf("Warning: failed to record last sync time: %v", err)
		}
	}

	return result, nil
}

func (s *Service) run(ctx context.Context, full bool) (*SyncResult, error) {
	books, err := s.scraper.ScrapeBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape library: %w", err)
	}
	log.Printf("Found %d books in the library", len(books))

	// The library record of every listed book is refreshed, even ones the
	// incremental filter will skip below.
	for i := range books {
		if err := s.books.UpsertBook(&books[i]); err != nil {
			return nil, fmt.Errorf("upsert book %s: %w", books[i].ASIN, err)
		}
	}

	candidates := books
	if !full {
		candidates = s.filterSince(books)
	}
	if err := s.progress.SetTotal(len(candidates)); err != nil {
		log.Printf("Warning: failed to update sync progress: %v", err)
	}

	needEnrichment := s.missingMetadataSet()

	var (
		mu        sync.Mutex
		processed int
		failed    int
		newTotal  int
		delTotal  int
		details   []BookSyncDetail
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range candidates {
		book := candidates[i]
		g.Go(func() error {
			// Abort between books, never mid-book.
			if gctx.Err() != nil {
				return gctx.Err()
			}

			detail := BookSyncDetail{ASIN: book.ASIN, Title: book.Title, Author: book.Author}

			highlights, err := s.scraper.ScrapeHighlights(gctx, book)
			if err != nil {
				// An auth failure will sink every remaining book too;
				// stop the run instead of collecting N copies of it.
				if errors.Is(err, amazon.ErrAuthRequired) {
					return err
				}
				log.Printf("Warning: failed to scrape highlights for %q: %v", book.Title, err)
				s.recordFailure(&mu, &details, detail, err, &processed, &failed, &newTotal, &delTotal)
				return nil
			}

			tally, err := ReconcileHighlights(s.books, book.ASIN, highlights)
			if err != nil {
				log.Printf("Warning: failed to reconcile highlights for %q: %v", book.Title, err)
				s.recordFailure(&mu, &details, detail, err, &processed, &failed, &newTotal, &delTotal)
				return nil
			}

			detail.New = tally.New
			detail.Deleted = tally.Deleted
			detail.Total = tally.Total

			mu.Lock()
			processed++
			newTotal += tally.New
			delTotal += tally.Deleted
			details = append(details, detail)
			_ = s.progress.Update(processed, failed, newTotal, delTotal, book.Title)
			mu.Unlock()

			if s.enricher != nil && needEnrichment[book.ASIN] {
				if _, err := s.enricher.EnrichBook(gctx, book.ASIN); err != nil {
					log.Printf("Warning: enrichment failed for %q: %v", book.Title, err)
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(details, func(i, j int) bool { return details[i].Title < details[j].Title })

	synced := processed - failed
	return &SyncResult{
		Success:           true,
		Message:           fmt.Sprintf("Synced %d books: %d new highlights, %d deleted", synced, newTotal, delTotal),
		BooksSynced:       synced,
		BooksFailed:       failed,
		NewHighlights:     newTotal,
		DeletedHighlights: delTotal,
		Books:             details,
	}, nil
}

// filterSince drops books whose last annotation predates the previous
// successful sync. Books without a date are kept - the listing strategy that
// produced them may simply not carry dates.
func (s *Service) filterSince(books []entities.Book) []entities.Book {
	lastSync, err := s.settings.LastSync()
	if err != nil {
		log.Printf("Warning: failed to read last sync time, running full sync: %v", err)
		return books
	}
	if lastSync == nil {
		return books
	}

	var candidates []entities.Book
	for _, book := range books {
		if book.LastAnnotated != nil && !book.LastAnnotated.After(*lastSync) {
			continue
		}
		candidates = append(candidates, book)
	}
	log.Printf("Incremental sync: %d of %d books annotated since %s", len(candidates), len(books), lastSync.Format(time.RFC3339))
	return candidates
}

func (s *Service) missingMetadataSet() map[string]bool {
	set := make(map[string]bool)
	if s.enricher == nil {
		return set
	}
	missing, err := s.books.GetBooksMissingMetadata()
	if err != nil {
		log.Printf("Warning: failed to list books missing metadata: %v", err)
		return set
	}
	for _, book := range missing {
		set[book.ASIN] = true
	}
	return set
}

// recordFailure books one failed book into the shared tallies. Every counter
// is read and written inside the lock; the success path mutates the same
// variables from concurrent workers.
func (s *Service) recordFailure(mu *sync.Mutex, details *[]BookSyncDetail, detail BookSyncDetail, err error, processed, failed, newTotal, delTotal *int) {
	detail.Error = err.Error()
	mu.Lock()
	*processed++
	*failed++
	*details = append(*details, detail)
	_ = s.progress.Update(*processed, *failed, *newTotal, *delTotal, detail.Title)
	mu.Unlock()
}
