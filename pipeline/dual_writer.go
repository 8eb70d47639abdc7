package pipeline

import (
	"fmt"

	"github.com/aluiziolira/go-etl-books/models"
)

// DualWriter writes one category to both CSV and JSONL simultaneously.
type DualWriter struct {
	csvWriter   *CSVWriter
	jsonlWriter *JSONLWriter
}

// NewDualWriter creates both underlying writers.
func NewDualWriter(csvFilename, jsonlFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create csv writer: %w", err)
	}

	jsonlWriter, err := NewJSONLWriter(jsonlFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create jsonl writer: %w", err)
	}

	return &DualWriter{csvWriter: csvWriter, jsonlWriter: jsonlWriter}, nil
}

// Write sends the record to both outputs.
func (dw *DualWriter) Write(record *models.ProductRecord) error {
	if err := dw.csvWriter.Write(record); err != nil {
		return fmt.Errorf("csv write failed: %w", err)
	}
	if err := dw.jsonlWriter.Write(record); err != nil {
		return fmt.Errorf("jsonl write failed: %w", err)
	}
	return nil
}

// Close closes both writers, reporting the first failure.
func (dw *DualWriter) Close() error {
	csvErr := dw.csvWriter.Close()
	jsonlErr := dw.jsonlWriter.Close()
	if csvErr != nil {
		return fmt.Errorf("csv close failed: %w", csvErr)
	}
	if jsonlErr != nil {
		return fmt.Errorf("jsonl close failed: %w", jsonlErr)
	}
	return nil
}
