package amazon

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired means the session is no longer authenticated (Amazon
	// redirected to a sign-in page or rejected the request outright). Never
	// retried - the caller should prompt for a fresh cookie import instead.
	ErrAuthRequired = errors.New("amazon: authentication required")

	// ErrPaginationStuck means the highlights pagination token never
	// cleared within the page cap. Surfaced instead of looping forever.
	ErrPaginationStuck = errors.New("amazon: pagination token never cleared")
)

// ScrapeError is the transient failure class the retry policy acts on:
// network errors, 5xx responses, and responses that cannot be parsed at all.
type ScrapeError struct {
	Op  string
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("amazon: %s (%s): %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("amazon: %s: %v", e.Op, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

func scrapeErr(op, url string, err error) error {
	return &ScrapeError{Op: op, URL: url, Err: err}
}
