package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aluiziolira/go-etl-books/models"
)

// Header is the fixed column order of every category table.
var Header = []string{
	"product_page_url",
	"universal_product_code",
	"title",
	"price_including_tax",
	"price_including_tax_currency",
	"price_excluding_tax",
	"price_excluding_tax_currency",
	"number_available",
	"product_description",
	"category",
	"review_rating",
	"image_url",
	"image_local_path",
	"image_status",
	"image_error",
}

// CSVFactory returns a WriterFactory creating one CSV file per category
// under dir, named after the category.
func CSVFactory(dir string) WriterFactory {
	return func(category string) (RecordWriter, error) {
		return NewCSVWriter(filepath.Join(dir, CategoryFilename(category)+".csv"))
	}
}

// JSONLFactory returns a WriterFactory creating one JSONL file per category.
func JSONLFactory(dir string) WriterFactory {
	return func(category string) (RecordWriter, error) {
		return NewJSONLWriter(filepath.Join(dir, CategoryFilename(category)+".jsonl"))
	}
}

// DualFactory writes each category to both a CSV and a JSONL file.
func DualFactory(dir string) WriterFactory {
	return func(category string) (RecordWriter, error) {
		return NewDualWriter(
			filepath.Join(dir, CategoryFilename(category)+".csv"),
			filepath.Join(dir, CategoryFilename(category)+".jsonl"),
		)
	}
}

// CategoryFilename turns a category name into a safe, deterministic file
// stem: lowercase, runs of non-alphanumerics collapsed to single hyphens.
func CategoryFilename(category string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(category)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	stem := strings.TrimSuffix(b.String(), "-")
	if stem == "" {
		return "category"
	}
	return stem
}

// CSVWriter writes one category's records to CSV, header row first.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates the file and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{file: f, writer: writer}, nil
}

// Write appends one record and flushes it, keeping the output streaming.
func (cw *CSVWriter) Write(record *models.ProductRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.writer.Write(recordRow(record)); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv record: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

func recordRow(record *models.ProductRecord) []string {
	row := make([]string, 0, len(Header))
	row = append(row, record.PageURL, record.UPC, record.Title)
	row = append(row, priceColumns(record.PriceInclTax)...)
	row = append(row, priceColumns(record.PriceExclTax)...)
	row = append(row,
		intColumn(record.NumberAvailable),
		record.Description,
		record.Category,
		intColumn(record.Rating),
		record.ImageURL,
		record.ImageLocalPath,
		record.ImageStatus,
		record.ImageError,
	)
	return row
}

func priceColumns(price *models.Price) []string {
	if price == nil {
		return []string{"", ""}
	}
	return []string{price.Value.StringFixed(2), price.Currency}
}

func intColumn(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

// JSONLWriter writes one category's records as newline-delimited JSON.
type JSONLWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter initialises the JSONL writer.
func NewJSONLWriter(filename string) (*JSONLWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create jsonl file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONLWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends one record in JSONL format.
func (jw *JSONLWriter) Write(record *models.ProductRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.encoder.Encode(record); err != nil {
		return fmt.Errorf("encode jsonl record: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}
	return jw.file.Close()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
