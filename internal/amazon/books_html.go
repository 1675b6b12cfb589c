package amazon

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mrlokans/kindle-sync/internal/dates"
	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/regions"
)

// htmlBookSource is the fallback library strategy: scrape the notebook page
// itself. It sees only books with annotations, but keeps working when the
// search endpoint changes shape.
type htmlBookSource struct {
	session *Session
	cfg     regions.Config
	region  regions.Region
}

// Locale prefixes Amazon puts before the author name on the notebook page.
var authorPrefixes = []string{"By: ", "Par: ", "De: ", "Di: ", "Por: "}

func stripAuthorPrefix(author string) string {
	for _, prefix := range authorPrefixes {
		if strings.HasPrefix(author, prefix) {
			return author[len(prefix):]
		}
	}
	return author
}

func (s *htmlBookSource) Name() string { return "notebook-html" }

func (s *htmlBookSource) FetchBooks(ctx context.Context) ([]entities.Book, error) {
	resp, err := s.session.Get(ctx, s.cfg.NotebookURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, scrapeErr("parse notebook page", s.cfg.NotebookURL, err)
	}

	var books []entities.Book
	doc.Find(".kp-notebook-library-each-book").Each(func(_ int, sel *goquery.Selection) {
		book, err := s.parseBookElement(sel)
		if err != nil {
			log.Printf("Warning: failed to parse book element: %v", err)
			return
		}
		books = append(books, book)
	})

	return books, nil
}

func (s *htmlBookSource) parseBookElement(sel *goquery.Selection) (entities.Book, error) {
	asin, _ := sel.Attr("id")
	if asin == "" {
		return entities.Book{}, fmt.Errorf("book element has no ASIN id")
	}

	title := strings.TrimSpace(sel.Find("h2.kp-notebook-searchable").First().Text())
	if title == "" {
		return entities.Book{}, fmt.Errorf("book %s has no title element", asin)
	}

	author := "Unknown"
	if byline := strings.TrimSpace(sel.Find("p.kp-notebook-searchable").First().Text()); byline != "" {
		author = stripAuthorPrefix(byline)
	}

	imageURL, _ := sel.Find(".kp-notebook-cover-image").First().Attr("src")

	book := entities.Book{
		ASIN:     asin,
		Title:    title,
		Author:   author,
		URL:      fmt.Sprintf("https://www.%s/dp/%s", s.cfg.Hostname, asin),
		ImageURL: StripImageSizeDirectives(imageURL),
	}

	if dateInput := sel.Find(`input[id^="kp-notebook-annotated-date"]`).First(); dateInput.Length() > 0 {
		if value, ok := dateInput.Attr("value"); ok && value != "" {
			book.LastAnnotated = dates.Parse(value, s.region)
		}
	}

	return book, nil
}
