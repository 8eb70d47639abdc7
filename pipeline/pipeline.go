// Package pipeline persists assembled records, one destination table per
// category, and tracks the run counters.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-etl-books/metrics"
	"github.com/aluiziolira/go-etl-books/models"
)

// ErrNoOpenCategory is returned when a record arrives outside a category.
var ErrNoOpenCategory = errors.New("pipeline: no category table open")

// RecordWriter receives the records of one category table.
type RecordWriter interface {
	Write(record *models.ProductRecord) error
	Close() error
}

// WriterFactory builds the destination table for one category.
type WriterFactory func(category string) (RecordWriter, error)

// Pipeline streams records into the currently open category table. Rows are
// written immediately, not buffered: memory stays bound on large catalogs.
type Pipeline struct {
	factory WriterFactory
	metrics *metrics.Metrics

	mu      sync.Mutex
	current RecordWriter
	records int
	images  int
}

// New builds a pipeline over a writer factory.
func New(factory WriterFactory, m *metrics.Metrics) *Pipeline {
	return &Pipeline{factory: factory, metrics: m}
}

// OpenCategory opens the destination table for one category. The previous
// table must have been closed first.
func (p *Pipeline) OpenCategory(category string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		return fmt.Errorf("pipeline: category %q opened while another table is active", category)
	}
	writer, err := p.factory(category)
	if err != nil {
		return fmt.Errorf("open table for %q: %w", category, err)
	}
	p.current = writer
	return nil
}

// Write streams one record into the open category table.
func (p *Pipeline) Write(record *models.ProductRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNoOpenCategory
	}
	if err := p.current.Write(record); err != nil {
		return err
	}

	p.records++
	p.metrics.IncRecord()
	if record.ImageStatus == models.ImageStatusSuccessful {
		p.images++
	}
	return nil
}

// CloseCategory closes the open category table, if any.
func (p *Pipeline) CloseCategory() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	err := p.current.Close()
	p.current = nil
	return err
}

// Records reports how many records were written so far.
func (p *Pipeline) Records() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.records
}

// ImagesSaved reports how many written records carried a validated image.
func (p *Pipeline) ImagesSaved() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.images
}
