// Package amazon scrapes the Kindle notebook site: the library listing, the
// per-book highlight pages, and the product pages used for enrichment. The
// markup is versioned and unstable; parsing degrades per record instead of
// failing whole scrapes wherever possible.
package amazon

import (
	"context"
	"errors"
	"log"
	"regexp"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/regions"
	"github.com/mrlokans/kindle-sync/internal/retry"
)

// BookSource is one strategy for extracting the library listing. Two
// implementations exist: the paginated JSON search endpoint and the notebook
// HTML page. They are composed by explicit fallback, not selection flags.
type BookSource interface {
	Name() string
	FetchBooks(ctx context.Context) ([]entities.Book, error)
}

// ScraperConfig carries the per-site knobs.
type ScraperConfig struct {
	Region   regions.Region
	Retry    retry.Policy
	MaxPages int // highlight pagination safety cap; 0 means DefaultMaxPages
}

// DefaultMaxPages bounds the highlight pagination loop. The remote protocol
// is token-driven with no page count, so a response that never clears its
// token would otherwise loop forever.
const DefaultMaxPages = 500

type Scraper struct {
	session  *Session
	region   regions.Region
	cfg      regions.Config
	policy   retry.Policy
	maxPages int
	sources  []BookSource
}

func NewScraper(session *Session, cfg ScraperConfig) (*Scraper, error) {
	regionCfg, err := regions.Resolve(cfg.Region)
	if err != nil {
		return nil, err
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	// Auth failures skip the retry budget entirely.
	policy.Permanent = func(err error) bool { return errors.Is(err, ErrAuthRequired) }

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	s := &Scraper{
		session:  session,
		region:   cfg.Region,
		cfg:      regionCfg,
		policy:   policy,
		maxPages: maxPages,
	}
	s.sources = []BookSource{
		&apiBookSource{session: session, cfg: regionCfg, maxPages: maxPages},
		&htmlBookSource{session: session, cfg: regionCfg, region: cfg.Region},
	}
	return s, nil
}

// ScrapeBooks extracts the library listing, trying each source in order and
// falling back on request or parse errors. Only when every source fails is
// the last error returned.
func (s *Scraper) ScrapeBooks(ctx context.Context) ([]entities.Book, error) {
	var lastErr error
	for _, source := range s.sources {
		var books []entities.Book
		err := retry.Do(ctx, s.policy, func() error {
			var ferr error
			books, ferr = source.FetchBooks(ctx)
			return ferr
		})
		if err == nil {
			return books, nil
		}
		if errors.Is(err, ErrAuthRequired) {
			return nil, err
		}
		log.Printf("Warning: book source %s failed, trying next: %v", source.Name(), err)
		lastErr = err
	}
	return nil, lastErr
}

// sizeDirective matches the scaling segments Amazon embeds in image URLs,
// e.g. "._SY160." in ".../81abc._SY160_.jpg". Stripping them yields the
// canonical unscaled URL.
var sizeDirective = regexp.MustCompile(`\._[A-Za-z0-9,_]+_\.`)

// StripImageSizeDirectives returns the canonical unscaled image URL.
func StripImageSizeDirectives(u string) string {
	return sizeDirective.ReplaceAllString(u, ".")
}
