// Package metadata enriches books with data the notebook site does not carry:
// the ISBN scraped from the product page and genres, page count, cover and a
// cross-reference link from the Goodreads catalog. Everything here is
// best-effort; a failed enrichment never fails a sync.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/mrlokans/kindle-sync/internal/amazon"
	"github.com/mrlokans/kindle-sync/internal/retry"
)

// CatalogEntry is what a catalog lookup yields for one book.
type CatalogEntry struct {
	Genres    []string
	PageCount int
	Link      string // canonical book page, i.e. the final redirected URL
	CoverURL  string
}

// GoodreadsClient looks up books on Goodreads by ISBN. Goodreads is a
// separate failure domain from Amazon, so the client carries its own retry
// budget and rate limiter instead of inheriting the scraper's.
type GoodreadsClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	policy     retry.Policy
}

// GoodreadsConfig carries the optional knobs; zero values pick defaults.
type GoodreadsConfig struct {
	UserAgent  string
	MaxRetries int
	RetryDelay time.Duration
}

func NewGoodreadsClient(cfg GoodreadsConfig) *GoodreadsClient {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &GoodreadsClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://www.goodreads.com",
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(1), 1), // 1 request per second
		policy: retry.Policy{
			MaxAttempts: maxRetries,
			Delay:       retryDelay,
			Backoff:     2,
		},
	}
}

// LookupISBN searches the catalog by ISBN and parses the canonical book page
// the search redirects to.
func (c *GoodreadsClient) LookupISBN(ctx context.Context, isbn string) (*CatalogEntry, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	var entry *CatalogEntry
	err := retry.Do(ctx, c.policy, func() error {
		var ferr error
		entry, ferr = c.fetchBookPage(ctx, isbn)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (c *GoodreadsClient) fetchBookPage(ctx context.Context, isbn string) (*CatalogEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// An ISBN query redirects straight to the book page.
	searchURL := fmt.Sprintf("%s/search?q=%s", c.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse book page: %w", err)
	}

	return parseBookPage(doc, resp.Request.URL.String()), nil
}

var pagesPattern = regexp.MustCompile(`(\d+)\s+pages`)

func parseBookPage(doc *goquery.Document, finalURL string) *CatalogEntry {
	entry := &CatalogEntry{
		Link:      finalURL,
		Genres:    extractGenres(doc),
		PageCount: extractPageCount(doc),
	}
	if cover := extractCoverURL(doc); cover != "" {
		entry.CoverURL = amazon.StripImageSizeDirectives(cover)
	}
	return entry
}

// extractGenres collects the genre labels in page order, de-duplicated.
// "Audiobook" is a format tag Goodreads mixes into the genre list, not a
// genre, so it is dropped.
func extractGenres(doc *goquery.Document) []string {
	var genres []string
	seen := make(map[string]bool)
	doc.Find(`[data-testid="genresList"] .Button__labelItem, a.bookPageGenreLink`).Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Text())
		if label == "" || label == "Audiobook" || strings.HasPrefix(label, "...") {
			return
		}
		if seen[label] {
			return
		}
		seen[label] = true
		genres = append(genres, label)
	})
	return genres
}

func extractPageCount(doc *goquery.Document) int {
	text := doc.Find(`p[data-testid="pagesFormat"], span[itemprop="numberOfPages"]`).First().Text()
	m := pagesPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	pages, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return pages
}

func extractCoverURL(doc *goquery.Document) string {
	src, _ := doc.Find(`.BookCover__image img.ResponsiveImage, img#coverImage`).First().Attr("src")
	return src
}
