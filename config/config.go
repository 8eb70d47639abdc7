// Package config holds crawl configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Policies for a page fetch failing in the middle of a category walk.
const (
	// PagePolicyAbort fails the whole run. Partial category output is
	// silently misleading, so this is the default.
	PagePolicyAbort = "abort"
	// PagePolicyTruncate closes the category at the last good page and
	// moves on to the next one.
	PagePolicyTruncate = "truncate"
)

// Config holds crawler configuration.
type Config struct {
	BaseURL          string
	OutputDir        string
	Timeout          time.Duration
	Delay            time.Duration
	UserAgent        string
	PagePolicy       string
	Category         string // optional: crawl only this category
	SeenCacheSize    int
	OutputFormat     string // csv, jsonl, or dual
	MetricsAddr      string
	LogFile          string
	Verbose          bool
	RespectRobotsTxt bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://books.toscrape.com",
		OutputDir:        "output",
		Timeout:          10 * time.Second,
		Delay:            0,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		PagePolicy:       PagePolicyAbort,
		SeenCacheSize:    4096,
		OutputFormat:     "csv",
		MetricsAddr:      "",
		LogFile:          filepath.Join("output", "logs", "etl.log"),
		Verbose:          false,
		RespectRobotsTxt: false,
	}
}

// ImagesDir is where validated image files land, flat, one per product.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.OutputDir, "images")
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.PagePolicy != PagePolicyAbort && c.PagePolicy != PagePolicyTruncate {
		return fmt.Errorf("page policy must be %s or %s", PagePolicyAbort, PagePolicyTruncate)
	}
	if c.SeenCacheSize <= 0 {
		return fmt.Errorf("seen cache size must be positive")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "jsonl" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, jsonl, or dual")
	}

	return nil
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return value, ok
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}
