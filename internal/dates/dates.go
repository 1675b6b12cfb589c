// Package dates parses the locale-specific date strings Amazon embeds in the
// notebook markup. A date that cannot be parsed degrades to nil - a missing
// date is a minor loss, never a reason to abort a scrape.
package dates

import (
	"strings"
	"time"

	"github.com/mrlokans/kindle-sync/internal/regions"
)

// Common fallback layouts tried for every region, in order.
var fallbackLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"1/2/2006",
}

// Layouts observed per region. Go's time.Parse accepts weekday names
// without checking them against the date, which matches how loosely Amazon
// renders these strings.
var regionLayouts = map[regions.Region][]string{
	regions.Global:  {"Monday January 2, 2006", "January 2, 2006", "Monday, January 2, 2006"},
	regions.UK:      {"Monday January 2, 2006", "January 2, 2006", "Monday, January 2, 2006"},
	regions.India:   {"Monday January 2, 2006", "January 2, 2006"},
	regions.France:  {"Monday January 2, 2006", "January 2, 2006"},
	regions.Germany: {"Monday January 2, 2006", "January 2, 2006", "2. January 2006"},
	regions.Spain:   {"Monday January 2, 2006", "January 2, 2006", "2 January 2006"},
	regions.Italy:   {"Monday January 2, 2006", "January 2, 2006", "2 January 2006"},
	regions.Japan:   {"2006年1月2日", "2006 1 2"},
}

// Parse attempts the region's layout ladder followed by the common
// fallbacks. Returns nil on empty input or total failure, never an error.
func Parse(text string, region regions.Region) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	switch region {
	case regions.Spain:
		// "domingo 24 de octubre de 2021" style infixes
		text = strings.ReplaceAll(text, " de ", " ")
	case regions.Japan:
		// "2021年11月15日 月曜日" carries a trailing weekday Go cannot parse
		if i := strings.IndexByte(text, ' '); i > 0 {
			text = text[:i]
		}
	}

	layouts := make([]string, 0, len(regionLayouts[region])+len(fallbackLayouts))
	layouts = append(layouts, regionLayouts[region]...)
	layouts = append(layouts, fallbackLayouts...)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return &t
		}
	}
	return nil
}
