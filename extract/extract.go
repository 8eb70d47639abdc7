// Package extract pulls individual product attributes out of a parsed
// detail page. The catalog's markup shape is an assumption, not a
// guarantee: every extractor degrades to absence instead of failing, and
// none of them panics.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-etl-books/models"
	"github.com/aluiziolira/go-etl-books/parser"
)

// TableValue returns the trimmed text of the data cell adjacent to the
// labeled header cell in the product information table.
func TableValue(doc *goquery.Document, label string) (string, bool) {
	var value string
	found := false
	doc.Find("table th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if strings.TrimSpace(th.Text()) != label {
			return true
		}
		td := th.NextFiltered("td")
		if td.Length() == 0 {
			return false
		}
		value = strings.TrimSpace(td.Text())
		found = true
		return false
	})
	return value, found
}

// Title returns the document title with the site suffix stripped.
func Title(doc *goquery.Document) (string, bool) {
	title := parser.CleanTitle(doc.Find("title").First().Text())
	if title == "" {
		return "", false
	}
	return title, true
}

// Description returns the paragraph following the description anchor. When
// the anchor or its sibling is missing, the fixed placeholder is returned
// with synthetic=true: the description always has a value.
func Description(doc *goquery.Document) (text string, synthetic bool) {
	anchor := doc.Find("div#product_description").First()
	if anchor.Length() == 0 {
		return models.DescriptionPlaceholder, true
	}
	sibling := anchor.NextFiltered("p")
	if sibling.Length() == 0 {
		return models.DescriptionPlaceholder, true
	}
	text = strings.TrimSpace(sibling.Text())
	if text == "" {
		return models.DescriptionPlaceholder, true
	}
	return text, false
}

// CategoryName reads the third breadcrumb item's link text, which is the
// category on this site's fixed breadcrumb shape.
func CategoryName(doc *goquery.Document) (string, bool) {
	items := doc.Find("ul.breadcrumb li")
	if items.Length() < 3 {
		return "", false
	}
	name := strings.TrimSpace(items.Eq(2).Find("a").First().Text())
	if name == "" {
		return "", false
	}
	return name, true
}

// Rating maps the rating indicator's second class token to 1..5.
func Rating(doc *goquery.Document) (int, bool) {
	class, ok := doc.Find("p.star-rating").First().Attr("class")
	if !ok {
		return 0, false
	}
	tokens := strings.Fields(class)
	if len(tokens) < 2 {
		return 0, false
	}
	return parser.RatingToNumeric(tokens[1])
}

// ImageURL returns the active carousel image's src, resolved absolute
// against the product page URL.
func ImageURL(doc *goquery.Document, base *url.URL) (string, bool) {
	src, ok := doc.Find("div.item.active img").First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return "", false
	}
	return ResolveURL(base, src)
}

// ResolveURL resolves href against base into an absolute URL.
func ResolveURL(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if base == nil {
		if ref.IsAbs() {
			return ref.String(), true
		}
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}
