package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-etl-books/extract"
	"github.com/aluiziolira/go-etl-books/models"
)

// umbrellaCategory is the sidebar's catalog-wide entry, not a real category.
const umbrellaCategory = "Books"

// DiscoverCategories parses the homepage sidebar into an ordered category
// list. A missing or empty sidebar is a structural failure: the catalog no
// longer matches the assumed shape and the run cannot proceed.
func DiscoverCategories(doc *goquery.Document, base *url.URL) ([]models.CategoryRef, error) {
	sidebar := doc.Find("div.side_categories").First()
	if sidebar.Length() == 0 {
		return nil, fmt.Errorf("category sidebar not found: catalog layout changed")
	}

	var refs []models.CategoryRef
	sidebar.Find("a").Each(func(_ int, link *goquery.Selection) {
		name := strings.Join(strings.Fields(link.Text()), " ")
		if name == "" || name == umbrellaCategory {
			return
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		abs, ok := extract.ResolveURL(base, href)
		if !ok {
			return
		}
		refs = append(refs, models.CategoryRef{Name: name, URL: abs})
	})

	if len(refs) == 0 {
		return nil, fmt.Errorf("category sidebar has no category links")
	}
	return refs, nil
}
