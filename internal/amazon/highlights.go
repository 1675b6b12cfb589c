package amazon

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/identity"
	"github.com/mrlokans/kindle-sync/internal/retry"
)

// Cursor carries the two cooperating pagination tokens the notebook page
// echoes back via hidden form fields. Both are opaque; an empty Token means
// the listing is exhausted.
type Cursor struct {
	ContentLimitState string
	Token             string
}

// highlightPage is one fetched page of a book's annotation listing.
type highlightPage struct {
	Highlights []entities.Highlight
	Next       Cursor
}

// ScrapeHighlights pages through a book's annotation listing, cursor by
// cursor, until the next-page token clears. The loop is strictly sequential:
// each request needs the tokens from the previous response. Each page fetch
// is individually retried.
func (s *Scraper) ScrapeHighlights(ctx context.Context, book entities.Book) ([]entities.Highlight, error) {
	var highlights []entities.Highlight
	var cursor Cursor

	for page := 0; page < s.maxPages; page++ {
		var fetched *highlightPage
		err := retry.Do(ctx, s.policy, func() error {
			var ferr error
			fetched, ferr = s.fetchHighlightPage(ctx, book.ASIN, cursor)
			return ferr
		})
		if err != nil {
			return nil, err
		}

		highlights = append(highlights, fetched.Highlights...)
		if fetched.Next.Token == "" {
			return highlights, nil
		}
		cursor = fetched.Next
	}

	return nil, fmt.Errorf("%w: book %s exceeded %d pages", ErrPaginationStuck, book.ASIN, s.maxPages)
}

func (s *Scraper) fetchHighlightPage(ctx context.Context, asin string, cursor Cursor) (*highlightPage, error) {
	q := url.Values{}
	q.Set("asin", asin)
	q.Set("contentLimitState", cursor.ContentLimitState)
	q.Set("token", cursor.Token)
	pageURL := s.cfg.NotebookURL + "?" + q.Encode()

	resp, err := s.session.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, scrapeErr("parse highlights page", pageURL, err)
	}

	return parseHighlightsDocument(doc, asin), nil
}

// parseHighlightsDocument extracts the highlight records and the next cursor
// from one notebook response. Individual malformed records are skipped with
// a warning; only wholesale parse failure is an error (handled by caller).
func parseHighlightsDocument(doc *goquery.Document, asin string) *highlightPage {
	page := &highlightPage{}

	doc.Find(".a-row.a-spacing-base").Each(func(_ int, sel *goquery.Selection) {
		if sel.Find("#highlight").Length() == 0 {
			return
		}
		h, err := parseHighlightElement(sel, asin)
		if err != nil {
			log.Printf("Warning: failed to parse highlight in %s: %v", asin, err)
			return
		}
		page.Highlights = append(page.Highlights, h)
	})

	if input := doc.Find(".kp-notebook-content-limit-state").First(); input.Length() > 0 {
		page.Next.ContentLimitState, _ = input.Attr("value")
	}
	if input := doc.Find(".kp-notebook-annotations-next-page-start").First(); input.Length() > 0 {
		page.Next.Token, _ = input.Attr("value")
	}

	return page
}

var (
	colorClassPrefix = "kp-notebook-highlight-"
	trailingDigits   = regexp.MustCompile(`\d+$`)
	brTag            = regexp.MustCompile(`(?i)<br\s*/?>`)
	leadingLocation  = regexp.MustCompile(`^\d+`)
)

func parseHighlightElement(sel *goquery.Selection, asin string) (entities.Highlight, error) {
	text := strings.TrimSpace(sel.Find("#highlight").First().Text())
	if text == "" {
		return entities.Highlight{}, fmt.Errorf("highlight has no text")
	}

	h := entities.Highlight{
		ID:       identity.HighlightID(text),
		BookASIN: asin,
		Text:     text,
	}

	// Color rides on a CSS class suffix; unknown suffixes degrade to empty.
	if div := sel.Find(".kp-notebook-highlight").First(); div.Length() > 0 {
		if classes, ok := div.Attr("class"); ok {
			for _, cls := range strings.Fields(classes) {
				if strings.HasPrefix(cls, colorClassPrefix) {
					h.Color = entities.ParseHighlightColor(strings.TrimPrefix(cls, colorClassPrefix))
				}
			}
		}
	}

	if input := sel.Find("#kp-annotation-location").First(); input.Length() > 0 {
		h.Location, _ = input.Attr("value")
		h.LocationValue = locationValue(h.Location)
	}

	// "Highlight on page 42" style header; only the trailing number is the page.
	if header := sel.Find("#annotationNoteHeader").First(); header.Length() > 0 {
		h.Page = trailingDigits.FindString(strings.TrimSpace(header.Text()))
	}

	h.Note = extractNote(sel)

	return h, nil
}

// extractNote pulls the user note, converting embedded <br> markers into
// literal newlines. Absent notes stay empty rather than whitespace.
func extractNote(sel *goquery.Selection) string {
	noteSel := sel.Find("#note").First()
	if noteSel.Length() == 0 {
		return ""
	}

	html, err := goquery.OuterHtml(noteSel)
	if err != nil {
		return strings.TrimSpace(noteSel.Text())
	}

	html = brTag.ReplaceAllString(html, "\n")
	fragment, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(noteSel.Text())
	}
	return strings.TrimSpace(fragment.Text())
}

// locationValue parses the numeric prefix of a location string ("254-267"
// gives 254) for ordering. Zero means unknown and sorts last; Kindle
// locations are 1-based, so a literal location 0 never occurs.
func locationValue(location string) int {
	prefix := leadingLocation.FindString(location)
	if prefix == "" {
		return 0
	}
	value, err := strconv.Atoi(prefix)
	if err != nil {
		return 0
	}
	return value
}
