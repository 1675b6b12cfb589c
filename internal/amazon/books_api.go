package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/regions"
)

// apiBookSource is the primary library extraction strategy: the kindle
// library search endpoint, paginated with an opaque token. It returns richer
// records than the notebook page and does not depend on its markup.
type apiBookSource struct {
	session  *Session
	cfg      regions.Config
	maxPages int
}

const libraryQuerySize = 50

// libraryItem is one record of the search response. The authors field is a
// list on most locales but a plain string on some older accounts - both
// shapes must decode.
type libraryItem struct {
	ASIN       string       `json:"asin"`
	Title      string       `json:"title"`
	Authors    authorsField `json:"authors"`
	ProductURL string       `json:"productUrl"`
	WebReader  string       `json:"webReaderUrl"`
}

type libraryResponse struct {
	ItemsList       []libraryItem `json:"itemsList"`
	PaginationToken string        `json:"paginationToken"`
}

type authorsField []string

func (a *authorsField) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*a = []string{single}
		}
		return nil
	}
	return fmt.Errorf("authors is neither list nor string: %s", data)
}

func (s *apiBookSource) Name() string { return "library-api" }

func (s *apiBookSource) FetchBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	token := ""

	// The token is opaque, so the only loop guard is a page cap; a server
	// that keeps echoing a token would otherwise spin forever.
	for page := 0; page < s.maxPages; page++ {
		fetched, err := s.fetchPage(ctx, token)
		if err != nil {
			return nil, err
		}
		if len(fetched.ItemsList) == 0 {
			return books, nil
		}
		for _, item := range fetched.ItemsList {
			book, ok := s.itemToBook(item)
			if !ok {
				continue
			}
			books = append(books, book)
		}
		if fetched.PaginationToken == "" {
			return books, nil
		}
		token = fetched.PaginationToken
	}

	return nil, fmt.Errorf("%w: library listing exceeded %d pages", ErrPaginationStuck, s.maxPages)
}

func (s *apiBookSource) fetchPage(ctx context.Context, token string) (*libraryResponse, error) {
	q := url.Values{}
	q.Set("query", "")
	q.Set("libraryType", "BOOKS")
	q.Set("sortType", "recency")
	q.Set("querySize", fmt.Sprint(libraryQuerySize))
	if token != "" {
		q.Set("paginationToken", token)
	}
	endpoint := s.cfg.ReaderURL + "/kindle-library/search?" + q.Encode()

	resp, err := s.session.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var page libraryResponse
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, scrapeErr("decode library page", endpoint, err)
	}
	return &page, nil
}

func (s *apiBookSource) itemToBook(item libraryItem) (entities.Book, bool) {
	if item.ASIN == "" || item.Title == "" {
		return entities.Book{}, false
	}

	author := ""
	if len(item.Authors) > 0 {
		author = stripAuthorPrefix(item.Authors[0])
	}
	if author == "" {
		author = "Unknown"
	}

	return entities.Book{
		ASIN:     item.ASIN,
		Title:    item.Title,
		Author:   author,
		URL:      fmt.Sprintf("https://www.%s/dp/%s", s.cfg.Hostname, item.ASIN),
		ImageURL: StripImageSizeDirectives(item.ProductURL),
	}, true
}
