package amazon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/regions"
	"github.com/mrlokans/kindle-sync/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 1,
		Delay:       time.Millisecond,
		Backoff:     2,
		Sleep:       func(context.Context, time.Duration) error { return nil },
		Permanent:   func(err error) bool { return errors.Is(err, ErrAuthRequired) },
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	session, err := NewSession(SessionConfig{UserAgent: "test-agent"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return session
}

func testScraper(session *Session, notebookURL string, maxPages int) *Scraper {
	return &Scraper{
		session:  session,
		region:   regions.Global,
		cfg:      regions.Config{Hostname: "amazon.com", NotebookURL: notebookURL},
		policy:   testPolicy(),
		maxPages: maxPages,
	}
}

func highlightPageHTML(texts []string, nextToken string) string {
	body := ""
	for _, text := range texts {
		body += fmt.Sprintf(`
<div class="a-row a-spacing-base">
  <div class="kp-notebook-highlight kp-notebook-highlight-yellow">
    <span id="highlight">%s</span>
  </div>
  <input id="kp-annotation-location" type="hidden" value="254-267"/>
  <span id="annotationNoteHeader">Highlight on page 42</span>
</div>`, text)
	}
	return fmt.Sprintf(`<html><body>%s
<input class="kp-notebook-content-limit-state" type="hidden" value="state-1"/>
<input class="kp-notebook-annotations-next-page-start" type="hidden" value="%s"/>
</body></html>`, body, nextToken)
}

func TestScrapeHighlights_PaginationTerminatesOnEmptyToken(t *testing.T) {
	pages := []string{
		highlightPageHTML([]string{"first highlight", "second highlight"}, "token-2"),
		highlightPageHTML([]string{"third highlight"}, "token-3"),
		highlightPageHTML([]string{"fourth highlight"}, ""),
	}

	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches >= len(pages) {
			t.Fatalf("fetched more pages than scripted: %d", fetches+1)
		}
		fmt.Fprint(w, pages[fetches])
		fetches++
	}))
	defer srv.Close()

	scraper := testScraper(newTestSession(t), srv.URL, DefaultMaxPages)
	highlights, err := scraper.ScrapeHighlights(context.Background(), entities.Book{ASIN: "B000TEST"})
	if err != nil {
		t.Fatalf("ScrapeHighlights: %v", err)
	}

	if fetches != 3 {
		t.Errorf("expected exactly 3 fetches, got %d", fetches)
	}
	if len(highlights) != 4 {
		t.Fatalf("expected union of 4 highlights, got %d", len(highlights))
	}
	if highlights[0].Text != "first highlight" || highlights[3].Text != "fourth highlight" {
		t.Errorf("highlights out of order: %q ... %q", highlights[0].Text, highlights[3].Text)
	}
}

func TestScrapeHighlights_TokensEchoedBack(t *testing.T) {
	var seenTokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTokens = append(seenTokens, r.URL.Query().Get("token"))
		if len(seenTokens) == 1 {
			fmt.Fprint(w, highlightPageHTML([]string{"one"}, "opaque-token"))
			return
		}
		fmt.Fprint(w, highlightPageHTML([]string{"two"}, ""))
	}))
	defer srv.Close()

	scraper := testScraper(newTestSession(t), srv.URL, DefaultMaxPages)
	if _, err := scraper.ScrapeHighlights(context.Background(), entities.Book{ASIN: "B000TEST"}); err != nil {
		t.Fatalf("ScrapeHighlights: %v", err)
	}

	if len(seenTokens) != 2 || seenTokens[0] != "" || seenTokens[1] != "opaque-token" {
		t.Errorf("tokens echoed = %v, want [\"\" \"opaque-token\"]", seenTokens)
	}
}

func TestScrapeHighlights_PaginationCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Token never clears.
		fmt.Fprint(w, highlightPageHTML([]string{"stuck"}, "same-token"))
	}))
	defer srv.Close()

	scraper := testScraper(newTestSession(t), srv.URL, 5)
	_, err := scraper.ScrapeHighlights(context.Background(), entities.Book{ASIN: "B000TEST"})
	if !errors.Is(err, ErrPaginationStuck) {
		t.Fatalf("expected ErrPaginationStuck, got %v", err)
	}
}

func TestScrapeHighlights_AuthRedirectNotRetried(t *testing.T) {
	requests := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ap/signin" {
			fmt.Fprint(w, "<html>sign in</html>")
			return
		}
		requests++
		http.Redirect(w, r, srv.URL+"/ap/signin", http.StatusFound)
	}))
	defer srv.Close()

	scraper := testScraper(newTestSession(t), srv.URL, DefaultMaxPages)
	scraper.policy.MaxAttempts = 3

	_, err := scraper.ScrapeHighlights(context.Background(), entities.Book{ASIN: "B000TEST"})
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if requests != 1 {
		t.Errorf("auth failure should not be retried, got %d requests", requests)
	}
}

func TestParseHighlightElement_FullRecord(t *testing.T) {
	html := `<html><body>
<div class="a-row a-spacing-base">
  <div class="kp-notebook-highlight kp-notebook-highlight-blue">
    <span id="highlight">  The obstacle is the way.  </span>
  </div>
  <input id="kp-annotation-location" type="hidden" value="254-267"/>
  <span id="annotationNoteHeader">Highlight on page 42</span>
  <span id="note">line one<br/>line two</span>
</div>
</body></html>`

	doc := mustParseHTML(t, html)
	page := parseHighlightsDocument(doc, "B000TEST")

	if len(page.Highlights) != 1 {
		t.Fatalf("expected 1 highlight, got %d", len(page.Highlights))
	}
	h := page.Highlights[0]

	if h.Text != "The obstacle is the way." {
		t.Errorf("text = %q", h.Text)
	}
	if h.Color != entities.HighlightColorBlue {
		t.Errorf("color = %q, want blue", h.Color)
	}
	if h.Location != "254-267" {
		t.Errorf("location = %q", h.Location)
	}
	if h.LocationValue != 254 {
		t.Errorf("location value = %d, want 254", h.LocationValue)
	}
	if h.Page != "42" {
		t.Errorf("page = %q, want 42", h.Page)
	}
	if h.Note != "line one\nline two" {
		t.Errorf("note = %q, want br converted to newline", h.Note)
	}
	if h.BookASIN != "B000TEST" {
		t.Errorf("book asin = %q", h.BookASIN)
	}
	if len(h.ID) != 8 {
		t.Errorf("id = %q, want 8 hex chars", h.ID)
	}
}

func TestParseHighlightElement_Degradations(t *testing.T) {
	html := `<html><body>
<div class="a-row a-spacing-base">
  <div class="kp-notebook-highlight kp-notebook-highlight-chartreuse">
    <span id="highlight">text only</span>
  </div>
</div>
<div class="a-row a-spacing-base">
  <div class="kp-notebook-highlight"><span id="highlight">   </span></div>
</div>
<div class="a-row a-spacing-base">
  <span>no highlight marker here at all</span>
</div>
</body></html>`

	doc := mustParseHTML(t, html)
	page := parseHighlightsDocument(doc, "B000TEST")

	if len(page.Highlights) != 1 {
		t.Fatalf("expected 1 surviving highlight, got %d", len(page.Highlights))
	}
	h := page.Highlights[0]
	if h.Color != "" {
		t.Errorf("unrecognized color suffix should degrade to empty, got %q", h.Color)
	}
	if h.Note != "" {
		t.Errorf("absent note should stay empty, got %q", h.Note)
	}
	if h.Location != "" || h.Page != "" {
		t.Errorf("absent location/page should stay empty, got %q / %q", h.Location, h.Page)
	}
}

func TestLocationValue(t *testing.T) {
	tests := []struct {
		location string
		want     int
	}{
		{"254-267", 254},
		{"1205", 1205},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := locationValue(tt.location); got != tt.want {
			t.Errorf("locationValue(%q) = %d, want %d", tt.location, got, tt.want)
		}
	}
}
