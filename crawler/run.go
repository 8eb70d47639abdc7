package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-etl-books/config"
	"github.com/aluiziolira/go-etl-books/fetch"
	"github.com/aluiziolira/go-etl-books/models"
	"github.com/aluiziolira/go-etl-books/pipeline"
)

// Run drives the full crawl: discover categories from the homepage, walk
// each one, assemble products, and stream rows through the pipeline. The
// homepage being unreachable or the sidebar being malformed aborts the run;
// per-product and per-field failures degrade and continue.
func (c *Crawler) Run(ctx context.Context, p *pipeline.Pipeline) (*models.RunResult, error) {
	result := &models.RunResult{
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}

	doc, base, err := c.fetchDoc(ctx, c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch homepage: %w", err)
	}

	categories, err := DiscoverCategories(doc, base)
	if err != nil {
		return nil, err
	}
	if c.cfg.Category != "" {
		categories = filterCategories(categories, c.cfg.Category)
		if len(categories) == 0 {
			return nil, fmt.Errorf("category %q not found in sidebar", c.cfg.Category)
		}
	}
	slog.Info("categories discovered", slog.Int("count", len(categories)))

	for i, category := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.Info("crawling category",
			slog.String("category", category.Name),
			slog.String("url", category.URL),
		)
		if err := c.crawlCategory(ctx, category, p, result); err != nil {
			return nil, err
		}
		result.Categories++
		if c.OnCategoryDone != nil {
			c.OnCategoryDone(i, len(categories), category.Name)
		}
	}

	result.EndTime = time.Now()
	result.TotalRecords = p.Records()
	result.ImagesSaved = p.ImagesSaved()
	return result, nil
}

// crawlCategory walks one category and streams its rows. The table is
// opened before the first page fetch so a truncated category still leaves a
// well-formed (possibly header-only) file behind.
func (c *Crawler) crawlCategory(ctx context.Context, category models.CategoryRef, p *pipeline.Pipeline, result *models.RunResult) error {
	if err := p.OpenCategory(category.Name); err != nil {
		return err
	}
	defer func() {
		if closeErr := p.CloseCategory(); closeErr != nil {
			slog.Error("close category table",
				slog.String("category", category.Name),
				slog.Any("error", closeErr),
			)
		}
	}()

	walker, err := c.NewWalker(ctx, category)
	if err != nil {
		return c.pageFailure(category, err, result)
	}

	for {
		productURL, ok, err := walker.Next(ctx)
		if err != nil {
			return c.pageFailure(category, err, result)
		}
		if !ok {
			return nil
		}

		if _, dup := c.seen.Get(productURL); dup {
			continue
		}
		c.seen.Add(productURL, struct{}{})

		record, err := c.Assemble(ctx, productURL)
		if err != nil {
			result.SkippedProducts++
			result.FailedURLs = append(result.FailedURLs, productURL)
			result.ErrorsByType[fetch.ErrorLabel(err)]++
			slog.Error("product page fetch failed, skipping product",
				slog.String("category", category.Name),
				slog.String("url", productURL),
				slog.Any("error", err),
			)
			continue
		}

		if err := p.Write(record); err != nil {
			return fmt.Errorf("write record for %s: %w", productURL, err)
		}
	}
}

// pageFailure applies the configured mid-category policy: abort the run, or
// truncate the category at the last successfully fetched page.
func (c *Crawler) pageFailure(category models.CategoryRef, err error, result *models.RunResult) error {
	result.ErrorsByType[fetch.ErrorLabel(err)]++
	if c.cfg.PagePolicy == config.PagePolicyTruncate {
		slog.Error("category truncated after page fetch failure",
			slog.String("category", category.Name),
			slog.Any("error", err),
		)
		return nil
	}
	return fmt.Errorf("category %s: %w", category.Name, err)
}

func filterCategories(categories []models.CategoryRef, name string) []models.CategoryRef {
	var out []models.CategoryRef
	for _, category := range categories {
		if category.Name == name {
			out = append(out, category)
		}
	}
	return out
}
