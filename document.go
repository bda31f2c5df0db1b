// Package pdfsigner is a PDF annotation engine: it overlays signature
// stamps, free text and highlight marks onto a loaded document and
// bakes them into a new PDF via an incremental update.
//
// Basic usage:
//
//	doc, err := pdfsigner.OpenFile("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ed := pdfsigner.NewEditor(doc, config.Default(), nil)
//	ed.Store().AddHighlight(annotation.Highlight{Page: 1, X: 40, Y: 120, Width: 200, Height: 16})
//
//	result, err := ed.Export(context.Background())
package pdfsigner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pdflib "github.com/digitorus/pdf"

	"github.com/ragersky/pdfsigner/internal/pdfutil"
)

// ErrNotPDF is returned when the input bytes do not carry a PDF header.
var ErrNotPDF = errors.New("input is not a PDF document")

// Document is a loaded, read-only PDF.
type Document struct {
	name   string
	data   []byte
	reader *pdflib.Reader
}

// OpenBytes parses a PDF held in memory. name is the original
// filename, used to derive the export filename.
func OpenBytes(name string, data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &Document{name: name, data: data, reader: reader}, nil
}

// OpenFile loads and parses a PDF from disk.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenBytes(filepath.Base(path), data)
}

// Name returns the original filename.
func (d *Document) Name() string { return d.name }

// Bytes returns the original file bytes.
func (d *Document) Bytes() []byte { return d.data }

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.reader.NumPage() }

// PageSize returns the width and height of the 1-based page n in page
// units.
func (d *Document) PageSize(n int) (float64, float64, error) {
	return pdfutil.PageSize(d.reader, n)
}

// Reader returns the low-level PDF reader.
func (d *Document) Reader() *pdflib.Reader {
	return d.reader
}
