package metadata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// isbnPattern matches an "ISBN <value>" occurrence with optional hyphens.
var isbnPattern = regexp.MustCompile(`ISBN[-013:\s]*([0-9][0-9\-]{8,15}[0-9Xx])`)

// isbnTrailingRun matches the digit-and-hyphen run at the end of a detail
// bullet like "ISBN-13 : 978-0735211292".
var isbnTrailingRun = regexp.MustCompile(`([0-9][0-9\-]{8,15}[0-9Xx])\s*$`)

// ExtractISBN pulls an ISBN out of a product page. The page carries it in
// different places depending on layout version, so three strategies are tried
// in order and the first hit wins. Returns "" when none succeed.
func ExtractISBN(doc *goquery.Document) string {
	if isbn := isbnFromPopover(doc); isbn != "" {
		return isbn
	}
	if isbn := isbnFromFeature(doc); isbn != "" {
		return isbn
	}
	return isbnFromDetailBullets(doc)
}

// isbnFromPopover scans the preloaded popover data blobs for an ISBN pattern.
func isbnFromPopover(doc *goquery.Document) string {
	found := ""
	doc.Find(".a-popover-preload").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if m := isbnPattern.FindStringSubmatch(sel.Text()); m != nil {
			found = normalizeISBN(m[1])
		}
		return found == ""
	})
	return found
}

// isbnFromFeature reads the dedicated ISBN feature element present on newer
// product page layouts.
func isbnFromFeature(doc *goquery.Document) string {
	text := doc.Find("#isbn_feature_div, #printEditionIsbn_feature_div").Text()
	if m := isbnPattern.FindStringSubmatch(text); m != nil {
		return normalizeISBN(m[1])
	}
	return ""
}

// isbnFromDetailBullets scans the generic product-details bullet list for an
// ISBN-10/ISBN-13 label followed by a digit-and-hyphen run.
func isbnFromDetailBullets(doc *goquery.Document) string {
	found := ""
	doc.Find("#detailBullets_feature_div li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, "ISBN-13") && !strings.Contains(text, "ISBN-10") {
			return true
		}
		if m := isbnTrailingRun.FindStringSubmatch(text); m != nil {
			found = normalizeISBN(m[1])
		}
		return found == ""
	})
	return found
}

// normalizeISBN strips hyphens and spaces and rejects anything that is not an
// ISBN-10 or ISBN-13.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}
