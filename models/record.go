// Package models defines the data structures produced by the crawl.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyUnknown marks a price whose currency symbol was not recognized.
// It is a sentinel, not a failure: the record is still emitted.
const CurrencyUnknown = "unknown"

// Image acquisition statuses.
const (
	ImageStatusPending    = "pending"
	ImageStatusSuccessful = "successful"
	ImageStatusFailed     = "failed"
)

// ImagePathNone is the local-path sentinel used when no image file exists.
const ImagePathNone = "none"

// DescriptionPlaceholder is substituted when a product page carries no
// description paragraph.
const DescriptionPlaceholder = "No available product description for this book"

// CategoryRef points at one catalog category discovered on the homepage.
type CategoryRef struct {
	Name string
	URL  string
}

// Price is a parsed monetary value with its detected currency symbol.
type Price struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// ProductRecord is the unit of output, one per product detail page. A nil
// pointer field means the value could not be extracted; the CSV layer
// renders it as an empty cell.
type ProductRecord struct {
	PageURL         string `json:"product_page_url"`
	UPC             string `json:"universal_product_code"`
	Title           string `json:"title"`
	PriceInclTax    *Price `json:"price_including_tax"`
	PriceExclTax    *Price `json:"price_excluding_tax"`
	NumberAvailable *int   `json:"number_available"`
	Description     string `json:"product_description"`
	Category        string `json:"category"`
	Rating          *int   `json:"review_rating"`
	ImageURL        string `json:"image_url"`
	ImageLocalPath  string `json:"image_local_path"`
	ImageStatus     string `json:"image_status"`
	ImageError      string `json:"image_error"`
}

// RunResult holds the overall outcome of one crawl.
type RunResult struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalRecords    int
	ImagesSaved     int
	Categories      int
	SkippedProducts int
	FailedURLs      []string
	ErrorsByType    map[string]int
}
