// Package regions maps Amazon regions to their locale-specific hostnames and
// notebook URLs. The table is immutable and is the single source of truth
// for every URL the scrapers construct.
package regions

import (
	"errors"
	"fmt"
	"sort"
)

type Region string

const (
	Global  Region = "global"
	UK      Region = "uk"
	Germany Region = "germany"
	Japan   Region = "japan"
	India   Region = "india"
	Spain   Region = "spain"
	Italy   Region = "italy"
	France  Region = "france"
)

var ErrUnknownRegion = errors.New("unknown region")

// Config holds the per-region endpoints.
type Config struct {
	DisplayName string
	Hostname    string
	ReaderURL   string
	NotebookURL string
}

var table = map[Region]Config{
	Global: {
		DisplayName: "Global (US)",
		Hostname:    "amazon.com",
		ReaderURL:   "https://read.amazon.com",
		NotebookURL: "https://read.amazon.com/notebook",
	},
	UK: {
		DisplayName: "United Kingdom",
		Hostname:    "amazon.co.uk",
		ReaderURL:   "https://read.amazon.co.uk",
		NotebookURL: "https://read.amazon.co.uk/notebook",
	},
	Germany: {
		DisplayName: "Germany/Swiss/Austria",
		Hostname:    "amazon.de",
		ReaderURL:   "https://lesen.amazon.de",
		NotebookURL: "https://lesen.amazon.de/notebook",
	},
	Japan: {
		DisplayName: "Japan",
		Hostname:    "amazon.co.jp",
		ReaderURL:   "https://read.amazon.co.jp",
		NotebookURL: "https://read.amazon.co.jp/notebook",
	},
	India: {
		DisplayName: "India",
		Hostname:    "amazon.in",
		ReaderURL:   "https://read.amazon.in",
		NotebookURL: "https://read.amazon.in/notebook",
	},
	Spain: {
		DisplayName: "Spain",
		Hostname:    "amazon.es",
		ReaderURL:   "https://leer.amazon.es",
		NotebookURL: "https://leer.amazon.es/notebook",
	},
	Italy: {
		DisplayName: "Italy",
		Hostname:    "amazon.it",
		ReaderURL:   "https://leggi.amazon.it",
		NotebookURL: "https://leggi.amazon.it/notebook",
	},
	France: {
		DisplayName: "France",
		Hostname:    "amazon.fr",
		ReaderURL:   "https://lire.amazon.fr",
		NotebookURL: "https://lire.amazon.fr/notebook",
	},
}

// Resolve returns the endpoint configuration for a region. Lookup fails
// loudly on an unknown region - callers must pick a valid region before any
// network call, there is no default.
func Resolve(r Region) (Config, error) {
	cfg, ok := table[r]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownRegion, r)
	}
	return cfg, nil
}

// All returns the supported regions in stable order, for CLI/UI listings.
func All() []Region {
	regions := make([]Region, 0, len(table))
	for r := range table {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return regions
}
