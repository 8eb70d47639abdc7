// Package parser normalizes the raw text values pulled off product pages.
package parser

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/aluiziolira/go-etl-books/models"
)

// currencySymbols is scanned in order; the first symbol found anywhere in
// the raw text wins.
var currencySymbols = []string{"£", "€", "$"}

// titleSuffix is appended by the site to every document title.
const titleSuffix = " | Books to Scrape - Sandbox"

// mojibakeArtifact is left behind when the site's UTF-8 pound sign gets
// read as latin-1.
const mojibakeArtifact = "Â"

// ParsePrice splits a raw price string into a decimal value and a currency
// symbol. An unrecognized currency yields models.CurrencyUnknown; an empty
// or non-numeric remainder reports absence.
func ParsePrice(raw string) (models.Price, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Price{}, false
	}

	currency := models.CurrencyUnknown
	for _, symbol := range currencySymbols {
		if strings.Contains(raw, symbol) {
			currency = symbol
			break
		}
	}

	cleaned := strings.ReplaceAll(raw, mojibakeArtifact, "")
	if currency != models.CurrencyUnknown {
		cleaned = strings.ReplaceAll(cleaned, currency, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return models.Price{}, false
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return models.Price{}, false
	}
	return models.Price{Value: value, Currency: currency}, true
}

// RatingToNumeric converts the textual rating to its numeric scale.
func RatingToNumeric(rating string) (int, bool) {
	switch strings.TrimSpace(rating) {
	case "One":
		return 1, true
	case "Two":
		return 2, true
	case "Three":
		return 3, true
	case "Four":
		return 4, true
	case "Five":
		return 5, true
	default:
		return 0, false
	}
}

// ParseStockCount keeps only the digits of the availability text and parses
// them as a count. No digits means the count is absent.
func ParseStockCount(raw string) (int, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}

	count, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return count, true
}

// CleanTitle trims the document title and strips the site suffix when it is
// an exact trailing match.
func CleanTitle(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), titleSuffix)
}
