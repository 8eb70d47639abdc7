package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-etl-books/models"
)

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return buf.Bytes()
}

func TestAcquireValidImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	payload := pngBytes(t)

	acquirer := NewAcquirer(fetcherFunc(func(context.Context, string) ([]byte, error) {
		return payload, nil
	}), dir, nil)

	result := acquirer.Acquire(context.Background(), "abc123", "http://example.test/img.png")
	if result.Status != models.ImageStatusSuccessful {
		t.Fatalf("status = %q, want successful (error %q)", result.Status, result.Error)
	}
	if result.LocalPath != filepath.Join("images", "abc123.jpg") {
		t.Fatalf("local path = %q", result.LocalPath)
	}
	if result.Error != "" {
		t.Fatalf("error = %q, want empty", result.Error)
	}

	written, err := os.ReadFile(filepath.Join(dir, "abc123.jpg"))
	if err != nil {
		t.Fatalf("read stored image: %v", err)
	}
	if !bytes.Equal(written, payload) {
		t.Fatalf("stored bytes differ from payload")
	}
}

func TestAcquireNonImagePayload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")

	acquirer := NewAcquirer(fetcherFunc(func(context.Context, string) ([]byte, error) {
		return []byte("<html>not an image</html>"), nil
	}), dir, nil)

	result := acquirer.Acquire(context.Background(), "abc123", "http://example.test/img.png")
	if result.Status != models.ImageStatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.LocalPath != models.ImagePathNone {
		t.Fatalf("local path = %q, want %q", result.LocalPath, models.ImagePathNone)
	}
	if result.Error != "downloaded file is not a valid image" {
		t.Fatalf("error = %q", result.Error)
	}

	if _, err := os.Stat(filepath.Join(dir, "abc123.jpg")); !os.IsNotExist(err) {
		t.Fatalf("invalid image file should have been removed, stat err = %v", err)
	}
}

func TestAcquireFetchFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")

	acquirer := NewAcquirer(fetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, fmt.Errorf("boom")
	}), dir, nil)

	result := acquirer.Acquire(context.Background(), "abc123", "http://example.test/img.png")
	if result.Status != models.ImageStatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.LocalPath != models.ImagePathNone {
		t.Fatalf("local path = %q, want %q", result.LocalPath, models.ImagePathNone)
	}
	if result.Error != "other" {
		t.Fatalf("error = %q, want fetch category name", result.Error)
	}

	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) > 0 {
		t.Fatalf("no file should exist after a fetch failure, found %d", len(entries))
	}
}
