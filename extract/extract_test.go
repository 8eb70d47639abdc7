package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-etl-books/models"
)

const productPage = `<html>
<head><title>
    Sharp Objects | Books to Scrape - Sandbox
</title></head>
<body>
<ul class="breadcrumb">
  <li><a href="../../index.html">Home</a></li>
  <li><a href="../category/books_1/index.html">Books</a></li>
  <li><a href="../category/books/mystery_3/index.html">Mystery</a></li>
  <li class="active">Sharp Objects</li>
</ul>
<div id="product_gallery" class="carousel">
  <div class="item active"><img src="../../media/cache/32/51/sharp.jpg" alt="Sharp Objects"/></div>
</div>
<p class="star-rating Four"><i class="icon-star"></i></p>
<div id="product_description" class="sub-header"><h2>Product Description</h2></div>
<p>A gripping story about a reporter.</p>
<table class="table table-striped">
  <tr><th>UPC</th><td>e00eb4fd7b871a48</td></tr>
  <tr><th>Product Type</th><td>Books</td></tr>
  <tr><th>Price (excl. tax)</th><td>Â£47.82</td></tr>
  <tr><th>Price (incl. tax)</th><td>Â£47.82</td></tr>
  <tr><th>Availability</th><td>In stock (20 available)</td></tr>
</table>
</body>
</html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestTableValue(t *testing.T) {
	doc := parseDoc(t, productPage)

	upc, ok := TableValue(doc, "UPC")
	if !ok || upc != "e00eb4fd7b871a48" {
		t.Fatalf("TableValue(UPC) = %q, %v", upc, ok)
	}

	avail, ok := TableValue(doc, "Availability")
	if !ok || avail != "In stock (20 available)" {
		t.Fatalf("TableValue(Availability) = %q, %v", avail, ok)
	}

	if _, ok := TableValue(doc, "Number of reviews"); ok {
		t.Fatalf("missing label should report absence")
	}
}

func TestTableValueMissingSibling(t *testing.T) {
	doc := parseDoc(t, `<table><tr><th>UPC</th></tr></table>`)
	if _, ok := TableValue(doc, "UPC"); ok {
		t.Fatalf("header without data cell should report absence")
	}
}

func TestTitle(t *testing.T) {
	doc := parseDoc(t, productPage)
	title, ok := Title(doc)
	if !ok || title != "Sharp Objects" {
		t.Fatalf("Title() = %q, %v", title, ok)
	}

	empty := parseDoc(t, `<html><head></head><body></body></html>`)
	if _, ok := Title(empty); ok {
		t.Fatalf("missing title should report absence")
	}
}

func TestDescription(t *testing.T) {
	doc := parseDoc(t, productPage)
	text, synthetic := Description(doc)
	if synthetic || text != "A gripping story about a reporter." {
		t.Fatalf("Description() = %q, synthetic=%v", text, synthetic)
	}
}

func TestDescriptionMissingAnchor(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>stray paragraph</p></body></html>`)
	text, synthetic := Description(doc)
	if !synthetic || text != models.DescriptionPlaceholder {
		t.Fatalf("Description() = %q, synthetic=%v, want placeholder", text, synthetic)
	}
}

func TestDescriptionMissingSibling(t *testing.T) {
	doc := parseDoc(t, `<html><body><div id="product_description"></div></body></html>`)
	text, synthetic := Description(doc)
	if !synthetic || text != models.DescriptionPlaceholder {
		t.Fatalf("Description() = %q, synthetic=%v, want placeholder", text, synthetic)
	}
}

func TestCategoryName(t *testing.T) {
	doc := parseDoc(t, productPage)
	name, ok := CategoryName(doc)
	if !ok || name != "Mystery" {
		t.Fatalf("CategoryName() = %q, %v", name, ok)
	}

	short := parseDoc(t, `<ul class="breadcrumb"><li><a href="/">Home</a></li></ul>`)
	if _, ok := CategoryName(short); ok {
		t.Fatalf("short breadcrumb should report absence")
	}
}

func TestRating(t *testing.T) {
	doc := parseDoc(t, productPage)
	rating, ok := Rating(doc)
	if !ok || rating != 4 {
		t.Fatalf("Rating() = %d, %v, want 4", rating, ok)
	}
}

func TestRatingUnrecognizedToken(t *testing.T) {
	doc := parseDoc(t, `<p class="star-rating Eleven"></p>`)
	if _, ok := Rating(doc); ok {
		t.Fatalf("unrecognized rating token should report absence")
	}
}

func TestRatingMissingElement(t *testing.T) {
	doc := parseDoc(t, `<html><body></body></html>`)
	if _, ok := Rating(doc); ok {
		t.Fatalf("missing rating element should report absence")
	}
}

func TestImageURL(t *testing.T) {
	doc := parseDoc(t, productPage)
	base, _ := url.Parse("http://example.test/catalogue/sharp-objects_997/index.html")

	src, ok := ImageURL(doc, base)
	if !ok {
		t.Fatalf("ImageURL reported absence")
	}
	want := "http://example.test/media/cache/32/51/sharp.jpg"
	if src != want {
		t.Fatalf("ImageURL() = %q, want %q", src, want)
	}
}

func TestImageURLMissingContainer(t *testing.T) {
	doc := parseDoc(t, `<html><body><img src="a.jpg"/></body></html>`)
	base, _ := url.Parse("http://example.test/")
	if _, ok := ImageURL(doc, base); ok {
		t.Fatalf("missing active container should report absence")
	}
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("http://example.test/catalogue/category/books/mystery_3/page-2.html")

	tests := []struct {
		name     string
		href     string
		expected string
		ok       bool
	}{
		{
			name:     "relative sibling",
			href:     "page-3.html",
			expected: "http://example.test/catalogue/category/books/mystery_3/page-3.html",
			ok:       true,
		},
		{
			name:     "relative with parent traversal",
			href:     "../../../sharp-objects_997/index.html",
			expected: "http://example.test/catalogue/sharp-objects_997/index.html",
			ok:       true,
		},
		{
			name:     "already absolute",
			href:     "http://other.test/x.html",
			expected: "http://other.test/x.html",
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveURL(base, tt.href)
			if ok != tt.ok || got != tt.expected {
				t.Fatalf("ResolveURL(%q) = %q, %v, want %q, %v", tt.href, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
