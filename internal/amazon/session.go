package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const defaultRequestTimeout = 30 * time.Second

// Cookie is one entry of the imported cookie file. The file is produced by
// an interactive browser login, which is outside this program - we only
// consume the resulting jar.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path,omitempty"`
}

// SessionConfig configures the authenticated scraping session.
type SessionConfig struct {
	CookieFile     string
	UserAgent      string
	RequestTimeout time.Duration
	RatePerSecond  float64 // 0 disables throttling
}

// Session is the shared authenticated HTTP handle used by every scraper.
// The underlying transport is reentrant, so one Session may serve multiple
// in-flight book scrapes without extra locking.
type Session struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// Response is a fully-read HTTP response. FinalURL is the URL after
// redirects, needed to capture catalog cross-reference links and to detect
// sign-in bounces.
type Response struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// NewSession builds a session from an exported cookie file.
func NewSession(cfg SessionConfig) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	if cfg.CookieFile != "" {
		if err := loadCookies(jar, cfg.CookieFile); err != nil {
			return nil, err
		}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
	}, nil
}

func loadCookies(jar http.CookieJar, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cookie file: %w", err)
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("parse cookie file %s: %w", path, err)
	}

	byDomain := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		domain := strings.TrimPrefix(c.Domain, ".")
		path := c.Path
		if path == "" {
			path = "/"
		}
		byDomain[domain] = append(byDomain[domain], &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   path,
		})
	}

	for domain, cs := range byDomain {
		u, err := url.Parse("https://" + domain + "/")
		if err != nil {
			continue
		}
		jar.SetCookies(u, cs)
	}
	return nil
}

// Get issues a throttled GET and reads the whole body. Sign-in redirects and
// auth rejections surface as ErrAuthRequired; transport failures, 5xx and
// unparseable responses surface as *ScrapeError (the retryable class).
func (s *Session) Get(ctx context.Context, rawURL string) (*Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, scrapeErr("build request", rawURL, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, scrapeErr("fetch", rawURL, err)
	}
	defer resp.Body.Close()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if isSignInURL(finalURL) {
		return nil, fmt.Errorf("%w: redirected to %s", ErrAuthRequired, finalURL)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d on %s", ErrAuthRequired, resp.StatusCode, rawURL)
	case resp.StatusCode != http.StatusOK:
		return nil, scrapeErr("fetch", rawURL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, scrapeErr("read body", rawURL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		FinalURL:   finalURL,
	}, nil
}

func isSignInURL(u string) bool {
	return strings.Contains(u, "/ap/signin") || strings.Contains(u, "/ap/cvf")
}
