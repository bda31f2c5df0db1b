// Package bake replays an annotation snapshot onto the original PDF
// bytes as an incremental update. The original file is copied verbatim
// and new objects are appended after it: one content stream and a
// rewritten page dictionary per annotated page, plus shared image, font
// and graphics-state resources. The result stays openable by viewers
// that only read the latest cross-reference section.
package bake

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/ragersky/pdfsigner/annotation"
)

// HighlightOpacity is the fixed alpha applied to highlight fills.
const HighlightOpacity = 0.4

// Options control the visual constants and compression of the baked
// output. Zero-value colors and logger pick defaults; CompressLevel
// follows the zlib constants, so the zero value writes uncompressed
// streams.
type Options struct {
	// CompressLevel determines compression level (zlib) for stream objects.
	CompressLevel int

	HighlightColor annotation.RGB
	TextColor      annotation.RGB

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.HighlightColor == (annotation.RGB{}) {
		o.HighlightColor = annotation.RGB{R: 0xff, G: 0xeb, B: 0x3b}
	}
	if o.TextColor == (annotation.RGB{}) {
		o.TextColor = annotation.RGB{R: 0x1b, G: 0x1b, B: 0x1b}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard, "", 0)
	}
}

// pageMarks collects the annotations bound for one page.
type pageMarks struct {
	sigs       []annotation.Signature
	texts      []annotation.Text
	highlights []annotation.Highlight
}

// BakeContext carries the state of one export run.
type BakeContext struct {
	InputFile    io.ReadSeeker
	PDFReader    *pdflib.Reader
	OutputBuffer *filebuffer.Buffer
	NewXrefStart int64

	opts Options

	lastXrefID         uint32
	newXrefEntries     []xrefEntry
	updatedXrefEntries []xrefEntry

	embedded map[string]embeddedImage
	fontID   uint32
	gsID     uint32
}

// Bake applies the snapshot to the document and returns the new file
// bytes along with the number of annotations skipped because their page
// index had no matching page. Any other failure aborts the whole export
// with no partial output.
func Bake(ctx context.Context, input io.ReadSeeker, rdr *pdflib.Reader, size int64, snap annotation.Snapshot, opts Options) ([]byte, int, error) {
	opts.setDefaults()

	bc := &BakeContext{
		InputFile: input,
		PDFReader: rdr,
		opts:      opts,
		embedded:  make(map[string]embeddedImage),
	}
	bc.lastXrefID = uint32(rdr.XrefInformation.ItemCount) - 1

	byPage, skipped := groupByPage(snap, rdr.NumPage(), opts.Logger)

	bc.OutputBuffer = filebuffer.New([]byte{})
	if _, err := input.Seek(0, 0); err != nil {
		return nil, 0, err
	}
	if _, err := io.Copy(bc.OutputBuffer, input); err != nil {
		return nil, 0, err
	}
	// File always needs an empty line after %%EOF.
	if _, err := bc.OutputBuffer.Write([]byte("\n")); err != nil {
		return nil, 0, err
	}

	if len(byPage) == 0 {
		// Nothing to draw: hand back the original bytes untouched.
		return bc.OutputBuffer.Buff.Bytes()[:size], skipped, nil
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if err := bc.bakePage(p, byPage[p]); err != nil {
			return nil, 0, fmt.Errorf("page %d: %w", p, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := bc.writeXref(); err != nil {
		return nil, 0, fmt.Errorf("failed to write xref: %w", err)
	}
	if err := bc.writeTrailer(); err != nil {
		return nil, 0, fmt.Errorf("failed to write trailer: %w", err)
	}

	return bc.OutputBuffer.Buff.Bytes(), skipped, nil
}

// groupByPage splits the snapshot per page, dropping annotations whose
// page has no match in the document.
func groupByPage(snap annotation.Snapshot, numPages int, logger *log.Logger) (map[int]*pageMarks, int) {
	byPage := make(map[int]*pageMarks)
	skipped := 0

	marksFor := func(page int) *pageMarks {
		if byPage[page] == nil {
			byPage[page] = &pageMarks{}
		}
		return byPage[page]
	}
	inRange := func(page int) bool { return page >= 1 && page <= numPages }

	for _, s := range snap.Signatures {
		if !inRange(s.Page) {
			logger.Printf("bake: dropping signature %s: page %d out of range", s.ID, s.Page)
			skipped++
			continue
		}
		marksFor(s.Page).sigs = append(marksFor(s.Page).sigs, s)
	}
	for _, t := range snap.Texts {
		if !inRange(t.Page) {
			logger.Printf("bake: dropping text %s: page %d out of range", t.ID, t.Page)
			skipped++
			continue
		}
		if t.Empty() {
			continue
		}
		marksFor(t.Page).texts = append(marksFor(t.Page).texts, t)
	}
	for _, h := range snap.Highlights {
		if !inRange(h.Page) {
			logger.Printf("bake: dropping highlight %s: page %d out of range", h.ID, h.Page)
			skipped++
			continue
		}
		marksFor(h.Page).highlights = append(marksFor(h.Page).highlights, h)
	}
	return byPage, skipped
}
