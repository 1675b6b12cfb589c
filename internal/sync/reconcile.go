// Package sync implements the scrape-and-reconcile pipeline: it walks the
// remote library, diffs each book's freshly scraped highlights against the
// stored set by content-derived identity, and applies the difference
// atomically per book.
package sync

import (
	"github.com/mrlokans/kindle-sync/internal/entities"
)

// HighlightStore is the storage slice reconciliation needs. Both methods must
// observe the same book; ApplyHighlightChanges commits atomically.
type HighlightStore interface {
	GetHighlightIDs(asin string) ([]string, error)
	ApplyHighlightChanges(asin string, upserts []entities.Highlight, deleteIDs []string) error
}

// BookTally is one book's reconciliation outcome.
type BookTally struct {
	New     int
	Deleted int
	Total   int
}

// ReconcileHighlights brings the stored highlight set for a book in line with
// a fresh scrape. Every scraped highlight is upserted - identity is derived
// from text, so a changed note or color refreshes the record in place -
// and identities that were stored but absent from the scrape are deleted.
// Callers must not invoke this for a book whose scrape failed: an empty
// scrape from a transient failure would read as "delete everything".
func ReconcileHighlights(store HighlightStore, asin string, scraped []entities.Highlight) (BookTally, error) {
	existingIDs, err := store.GetHighlightIDs(asin)
	if err != nil {
		return BookTally{}, err
	}
	existing := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	// Duplicate identities within one scrape (two highlights with identical
	// text) collapse into one record; the last occurrence wins, matching
	// upsert semantics.
	byID := make(map[string]int, len(scraped))
	upserts := make([]entities.Highlight, 0, len(scraped))
	for _, h := range scraped {
		if idx, seen := byID[h.ID]; seen {
			upserts[idx] = h
			continue
		}
		byID[h.ID] = len(upserts)
		upserts = append(upserts, h)
	}

	var tally BookTally
	tally.Total = len(upserts)
	for id := range byID {
		if !existing[id] {
			tally.New++
		}
	}

	var stale []string
	for _, id := range existingIDs {
		if _, ok := byID[id]; !ok {
			stale = append(stale, id)
		}
	}
	tally.Deleted = len(stale)

	if err := store.ApplyHighlightChanges(asin, upserts, stale); err != nil {
		return BookTally{}, err
	}

	return tally, nil
}
