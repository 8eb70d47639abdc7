package crawler

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-etl-books/extract"
	"github.com/aluiziolira/go-etl-books/models"
)

// Walker yields one category's product URLs page by page, following "next"
// links until none remain. The sequence is lazy and single-use: consuming
// it again means starting a new walk from the category's first page.
type Walker struct {
	crawler *Crawler
	doc     *goquery.Document
	pageURL *url.URL
	queue   []string
	done    bool
}

// NewWalker fetches the category's first page and positions the walk on it.
func (c *Crawler) NewWalker(ctx context.Context, category models.CategoryRef) (*Walker, error) {
	doc, base, err := c.fetchDoc(ctx, category.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch category page %s: %w", category.URL, err)
	}

	w := &Walker{crawler: c, doc: doc, pageURL: base}
	w.collect()
	return w, nil
}

// Next returns the next product URL. ok=false with a nil error signals
// exhaustion; a non-nil error means a pagination page fetch failed, after
// which the walk is terminal either way.
func (w *Walker) Next(ctx context.Context) (string, bool, error) {
	for {
		if len(w.queue) > 0 {
			productURL := w.queue[0]
			w.queue = w.queue[1:]
			return productURL, true, nil
		}
		if w.done {
			return "", false, nil
		}
		if err := w.advance(ctx); err != nil {
			w.done = true
			return "", false, err
		}
	}
}

// collect drains the current page's product cards into the queue. Links are
// resolved against the current page URL: the base shifts as pagination
// proceeds.
func (w *Walker) collect() {
	w.doc.Find("article.product_pod h3 a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		abs, ok := extract.ResolveURL(w.pageURL, href)
		if !ok {
			return
		}
		w.queue = append(w.queue, abs)
	})
}

// advance follows the next-page control, or marks the walk exhausted.
func (w *Walker) advance(ctx context.Context) error {
	href, ok := w.doc.Find("li.next a").First().Attr("href")
	if !ok {
		w.done = true
		return nil
	}

	next, ok := extract.ResolveURL(w.pageURL, href)
	if !ok {
		w.done = true
		return nil
	}

	doc, base, err := w.crawler.fetchDoc(ctx, next)
	if err != nil {
		return fmt.Errorf("fetch page %s: %w", next, err)
	}
	w.doc, w.pageURL = doc, base
	w.collect()
	return nil
}
