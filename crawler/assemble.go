package crawler

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-etl-books/extract"
	"github.com/aluiziolira/go-etl-books/models"
	"github.com/aluiziolira/go-etl-books/parser"
)

// Row labels of the product information table.
const (
	labelUPC          = "UPC"
	labelPriceInclTax = "Price (incl. tax)"
	labelPriceExclTax = "Price (excl. tax)"
	labelAvailability = "Availability"
)

// Assemble fetches one product detail page and builds its record. A fetch
// failure returns a nil record and the error: with no page there is nothing
// to anchor placeholders to, so the caller skips this product. Once the
// page is retrieved, exactly one record comes back no matter how many
// sub-extractions fail; each failure degrades its field and is logged.
func (c *Crawler) Assemble(ctx context.Context, productURL string) (*models.ProductRecord, error) {
	doc, base, err := c.fetchDoc(ctx, productURL)
	if err != nil {
		return nil, err
	}

	record := &models.ProductRecord{
		PageURL:        productURL,
		ImageLocalPath: models.ImagePathNone,
		ImageStatus:    models.ImageStatusPending,
	}

	title, ok := extract.Title(doc)
	if !ok {
		c.logFieldFailure("title", title, productURL)
	}
	record.Title = title

	if upc, ok := extract.TableValue(doc, labelUPC); ok {
		record.UPC = upc
	} else {
		c.logFieldFailure("universal_product_code", title, productURL)
	}

	record.PriceInclTax = c.extractPrice(doc, labelPriceInclTax, "price_including_tax", title, productURL)
	record.PriceExclTax = c.extractPrice(doc, labelPriceExclTax, "price_excluding_tax", title, productURL)

	if raw, ok := extract.TableValue(doc, labelAvailability); ok {
		if count, ok := parser.ParseStockCount(raw); ok {
			record.NumberAvailable = &count
		} else {
			c.logFieldFailure("number_available", title, productURL)
		}
	} else {
		c.logFieldFailure("number_available", title, productURL)
	}

	description, synthetic := extract.Description(doc)
	record.Description = description
	if synthetic {
		c.logFieldFailure("product_description", title, productURL)
	}

	if category, ok := extract.CategoryName(doc); ok {
		record.Category = category
	} else {
		c.logFieldFailure("category", title, productURL)
	}

	if rating, ok := extract.Rating(doc); ok {
		record.Rating = &rating
	} else {
		c.logFieldFailure("review_rating", title, productURL)
	}

	if imageURL, ok := extract.ImageURL(doc, base); ok {
		record.ImageURL = imageURL
	} else {
		c.logFieldFailure("image_url", title, productURL)
	}

	// Without a product code there is no filename key, so this is the one
	// extraction the image step depends on.
	if record.UPC != "" && c.images != nil {
		result := c.images.Acquire(ctx, record.UPC, record.ImageURL)
		record.ImageLocalPath = result.LocalPath
		record.ImageStatus = result.Status
		record.ImageError = result.Error
		if result.Status == models.ImageStatusFailed {
			slog.Warn("image acquisition failed",
				slog.String("title", title),
				slog.String("url", productURL),
				slog.String("image_url", record.ImageURL),
				slog.String("reason", result.Error),
			)
		}
	}

	return record, nil
}

func (c *Crawler) extractPrice(doc *goquery.Document, label, field, title, productURL string) *models.Price {
	raw, ok := extract.TableValue(doc, label)
	if !ok {
		c.logFieldFailure(field, title, productURL)
		return nil
	}
	price, ok := parser.ParsePrice(raw)
	if !ok {
		c.logFieldFailure(field, title, productURL)
		return nil
	}
	return &price
}

func (c *Crawler) logFieldFailure(field, title, pageURL string) {
	c.metrics.IncFieldFailure(field)
	slog.Warn("field extraction failed",
		slog.String("field", field),
		slog.String("title", title),
		slog.String("url", pageURL),
	)
}
