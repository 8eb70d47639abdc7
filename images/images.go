// Package images downloads product cover images and validates that each
// payload decodes as a real image before keeping it.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aluiziolira/go-etl-books/fetch"
	"github.com/aluiziolira/go-etl-books/metrics"
	"github.com/aluiziolira/go-etl-books/models"
)

// errNotImage is the documented image_error value for an invalid payload.
const errNotImage = "downloaded file is not a valid image"

// Acquirer stores validated images in a flat directory, one file per
// product code.
type Acquirer struct {
	fetcher fetch.Fetcher
	dir     string
	metrics *metrics.Metrics
}

// Result describes the outcome of one acquisition. It maps directly onto
// the image columns of a product record.
type Result struct {
	LocalPath string
	Status    string
	Error     string
}

// NewAcquirer builds an acquirer writing under dir.
func NewAcquirer(fetcher fetch.Fetcher, dir string, m *metrics.Metrics) *Acquirer {
	return &Acquirer{fetcher: fetcher, dir: dir, metrics: m}
}

// Acquire fetches imageURL, writes the body as {code}.jpg, and validates
// that the bytes decode as an image. Failures never propagate as errors:
// the caller records the status alongside the product row. Product codes
// are unique within a run, so an existing file is simply overwritten.
func (a *Acquirer) Acquire(ctx context.Context, productCode, imageURL string) Result {
	body, err := a.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return failed(fetch.ErrorLabel(err))
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return failed(fmt.Sprintf("create images dir: %v", err))
	}

	filename := productCode + ".jpg"
	path := filepath.Join(a.dir, filename)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return failed(fmt.Sprintf("write image file: %v", err))
	}

	if _, _, err := image.Decode(bytes.NewReader(body)); err != nil {
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			slog.Warn("could not remove invalid image file",
				slog.String("path", path),
				slog.Any("error", removeErr),
			)
		}
		return failed(errNotImage)
	}

	a.metrics.IncImageSaved()
	return Result{
		LocalPath: filepath.Join(filepath.Base(a.dir), filename),
		Status:    models.ImageStatusSuccessful,
	}
}

func failed(reason string) Result {
	return Result{
		LocalPath: models.ImagePathNone,
		Status:    models.ImageStatusFailed,
		Error:     reason,
	}
}
