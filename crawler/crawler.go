// Package crawler walks the catalog: category discovery, paginated
// traversal per category, and per-product record assembly.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-etl-books/config"
	"github.com/aluiziolira/go-etl-books/fetch"
	"github.com/aluiziolira/go-etl-books/images"
	"github.com/aluiziolira/go-etl-books/metrics"
)

// Crawler drives the full catalog traversal. It is strictly sequential:
// one fetch in flight at a time, no retries.
type Crawler struct {
	cfg     *config.Config
	fetcher fetch.Fetcher
	images  *images.Acquirer
	metrics *metrics.Metrics
	seen    *lru.Cache[string, struct{}]

	// OnCategoryDone, when set, is invoked after each category completes.
	OnCategoryDone func(index, total int, name string)
}

// New builds a crawler over the given collaborators. acquirer may be nil to
// skip image acquisition entirely.
func New(cfg *config.Config, fetcher fetch.Fetcher, acquirer *images.Acquirer, m *metrics.Metrics) (*Crawler, error) {
	seen, err := lru.New[string, struct{}](cfg.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		images:  acquirer,
		metrics: m,
		seen:    seen,
	}, nil
}

// fetchDoc retrieves a page and parses it into a queryable document, along
// with its URL for relative-link resolution.
func (c *Crawler) fetchDoc(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	body, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse url %s: %w", pageURL, err)
	}
	return doc, base, nil
}
