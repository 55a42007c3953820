// Package pdf opens PDF documents and supplies what the annotation session and local
// extraction need from them: page count, page geometry and positioned text.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/geometry"
)

// Document is an open PDF held in memory
type Document struct {
	name        string
	data        []byte
	fingerprint uint64
	sizes       []geometry.Size
	text        *pdf.Reader

	mu   sync.Mutex
	runs map[int][]TextRun
}

// Open validates and reads the PDF at path
func Open(ctx context.Context, path string, maxFileSize int64) (*Document, error) {
	if err := NewValidator(maxFileSize).ValidateFile(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindResourceLoad, "open document", err)
	}

	return Parse(ctx, filepath.Base(path), data, maxFileSize)
}

// Parse opens a PDF from its bytes. Page geometry and the text layer are read
// concurrently.
func Parse(ctx context.Context, name string, data []byte, maxFileSize int64) (*Document, error) {
	if err := NewValidator(maxFileSize).ValidateSize(int64(len(data))); err != nil {
		return nil, err
	}

	doc := &Document{
		name:        name,
		data:        data,
		fingerprint: xxhash.Sum64(data),
		runs:        make(map[int][]TextRun),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sizes, err := readPageSizes(data)
		if err != nil {
			return err
		}
		doc.sizes = sizes
		return ctx.Err()
	})
	g.Go(func() error {
		r, err := openTextLayer(data)
		if err != nil {
			return err
		}
		doc.text = r
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindResourceLoad, "open document", err)
	}

	if len(doc.sizes) == 0 {
		return nil, apperrors.New(apperrors.KindResourceLoad, "open document", "document has no pages")
	}
	return doc, nil
}

// readPageSizes reads the unit-magnification size of every page
func readPageSizes(data []byte) (sizes []geometry.Size, err error) {
	// pdfcpu panics on some malformed objects.
	defer func() {
		if p := recover(); p != nil {
			sizes, err = nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	sizes = make([]geometry.Size, len(dims))
	for i, d := range dims {
		sizes[i] = geometry.Size{Width: d.Width, Height: d.Height}
	}
	return sizes, nil
}

// openTextLayer opens the reader the text runs are read from
func openTextLayer(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read text layer: %w", err)
	}
	return r, nil
}

// Name returns the file name the document was opened from
func (d *Document) Name() string {
	return d.name
}

// Fingerprint identifies the document content
func (d *Document) Fingerprint() string {
	return fmt.Sprintf("%016x", d.fingerprint)
}

// Size returns the document size in bytes
func (d *Document) Size() int64 {
	return int64(len(d.data))
}

// Reader returns a reader over the raw document bytes
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.data)
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return len(d.sizes)
}

// IntrinsicSize returns the unit-magnification size of a zero-based page
func (d *Document) IntrinsicSize(page int) (geometry.Size, error) {
	if err := d.checkPage(page); err != nil {
		return geometry.Size{}, err
	}
	return d.sizes[page], nil
}

// PixelSize returns the raster size of a zero-based page at scale
func (d *Document) PixelSize(page int, scale float64) (geometry.Size, error) {
	size, err := d.IntrinsicSize(page)
	if err != nil {
		return geometry.Size{}, err
	}
	return geometry.PixelSize(size, scale), nil
}

func (d *Document) checkPage(page int) error {
	if page < 0 || page >= len(d.sizes) {
		return apperrors.Newf(apperrors.KindPrecondition, "page",
			"page %d out of range (document has %d pages)", page, len(d.sizes))
	}
	return nil
}
