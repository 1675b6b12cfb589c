package metadata

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractISBN_Popover(t *testing.T) {
	doc := parseDoc(t, `<html><body>
<div class="a-popover-preload">Print length details ISBN 978-0735211292 hardcover</div>
</body></html>`)

	if got := ExtractISBN(doc); got != "9780735211292" {
		t.Errorf("ExtractISBN = %q, want 9780735211292", got)
	}
}

func TestExtractISBN_FeatureElement(t *testing.T) {
	doc := parseDoc(t, `<html><body>
<div id="isbn_feature_div"><span>ISBN: 0735211299</span></div>
</body></html>`)

	if got := ExtractISBN(doc); got != "0735211299" {
		t.Errorf("ExtractISBN = %q, want 0735211299", got)
	}
}

func TestExtractISBN_DetailBullets(t *testing.T) {
	doc := parseDoc(t, `<html><body>
<div id="detailBullets_feature_div"><ul>
<li><span>Publisher : Avery</span></li>
<li><span>ISBN-13 : 978-0735211292</span></li>
</ul></div>
</body></html>`)

	if got := ExtractISBN(doc); got != "9780735211292" {
		t.Errorf("ExtractISBN = %q, want 9780735211292", got)
	}
}

func TestExtractISBN_PopoverWins(t *testing.T) {
	doc := parseDoc(t, `<html><body>
<div class="a-popover-preload">ISBN 1111111111</div>
<div id="isbn_feature_div">ISBN: 2222222222</div>
</body></html>`)

	if got := ExtractISBN(doc); got != "1111111111" {
		t.Errorf("ExtractISBN = %q, want popover value 1111111111", got)
	}
}

func TestExtractISBN_NoneFound(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>no identifiers on this page</p></body></html>`)

	if got := ExtractISBN(doc); got != "" {
		t.Errorf("ExtractISBN = %q, want empty", got)
	}
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"978-0735211292", "9780735211292"},
		{"0 7352 1129 9", "0735211299"},
		{"123", ""},
		{"12345678901234567", ""},
	}
	for _, tt := range tests {
		if got := normalizeISBN(tt.in); got != tt.want {
			t.Errorf("normalizeISBN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
