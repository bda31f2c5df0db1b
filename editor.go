package pdfsigner

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"sync/atomic"

	"github.com/ragersky/pdfsigner/annotation"
	"github.com/ragersky/pdfsigner/bake"
	"github.com/ragersky/pdfsigner/config"
	"github.com/ragersky/pdfsigner/coords"
	"github.com/ragersky/pdfsigner/fonts"
	"github.com/ragersky/pdfsigner/gesture"
	"github.com/ragersky/pdfsigner/sigpad"
)

var (
	// ErrExportBusy is returned while a previous export is still
	// running. Exports are never queued.
	ErrExportBusy = errors.New("an export is already in progress")

	// ErrExportFailed is the generic failure handed to callers. The
	// underlying cause is logged, not exposed.
	ErrExportFailed = errors.New("processing failed, try again")
)

// ExportResult is the outcome of a successful export.
type ExportResult struct {
	// Data is the complete baked PDF.
	Data []byte
	// Filename is the suggested download name, the original name with
	// the configured prefix.
	Filename string
	// Skipped counts annotations dropped because their page index had
	// no matching page.
	Skipped int
}

// Editor ties one document to its annotation session: the store, the
// gesture machine, the view transform, and the signature pad. All
// methods are meant to be driven from a single UI event stream; only
// Export is guarded against concurrent re-entry.
type Editor struct {
	doc     *Document
	cfg     config.Config
	store   *annotation.Store
	view    *coords.View
	stamp   *gesture.StampSlot
	machine *gesture.Machine
	pad     *sigpad.Pad
	logger  *log.Logger

	processing atomic.Bool
}

// NewEditor starts an annotation session for doc. A nil logger
// discards diagnostics.
func NewEditor(doc *Document, cfg config.Config, logger *log.Logger) *Editor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	store := annotation.NewStore()
	view := &coords.View{Scale: 1.0}
	stamp := gesture.NewStampSlot()

	return &Editor{
		doc:     doc,
		cfg:     cfg,
		store:   store,
		view:    view,
		stamp:   stamp,
		machine: gesture.NewMachine(store, view, stamp),
		pad:     sigpad.NewPad(float64(cfg.PadWidth), float64(cfg.PadHeight)),
		logger:  logger,
	}
}

// Document returns the loaded document.
func (e *Editor) Document() *Document { return e.doc }

// Store returns the annotation store.
func (e *Editor) Store() *annotation.Store { return e.store }

// Machine returns the gesture machine fed by the host's pointer
// events.
func (e *Editor) Machine() *gesture.Machine { return e.machine }

// View returns the mutable viewport transform.
func (e *Editor) View() *coords.View { return e.view }

// Pad returns the signature pad for the modal signature sub-flow.
func (e *Editor) Pad() *sigpad.Pad { return e.pad }

// SetViewport records the rendered page's pixel size and offset so
// pointer events can be mapped into document space.
func (e *Editor) SetViewport(originX, originY, width, height float64) {
	e.view.Origin = coords.Point{X: originX, Y: originY}
	e.view.Width = width
	e.view.Height = height
	if e.view.Scale == 0 {
		e.view.Scale = 1.0
	}
}

// ZoomIn steps the viewport scale up within the clamped range.
func (e *Editor) ZoomIn() { *e.view = e.view.ZoomIn() }

// ZoomOut steps the viewport scale down within the clamped range.
func (e *Editor) ZoomOut() { *e.view = e.view.ZoomOut() }

// SaveSignature renders the pad content into the pending-stamp slot,
// replacing any unplaced stamp, and clears the pad. The next placement
// click under the sign tool consumes it.
func (e *Editor) SaveSignature() error {
	payload, err := e.pad.Render()
	if err != nil {
		return err
	}
	e.stamp.Put(payload)
	e.pad.Clear()
	return nil
}

// TextBounds reports the document-space extent of a text annotation,
// measured with the metrics of the font it will be baked with. The
// host uses this to build the hit region for its overlay box. ok is
// false for unknown ids.
func (e *Editor) TextBounds(id string) (x, y, w, h float64, ok bool) {
	txt, ok := e.store.TextByID(id)
	if !ok {
		return 0, 0, 0, 0, false
	}
	m := fonts.Standard(fonts.Helvetica).Metrics
	return txt.X, txt.Y, m.StringWidth(txt.Content, txt.FontSize), txt.FontSize, true
}

// Export bakes the current annotations into a new PDF. Only one export
// may run at a time; concurrent calls get ErrExportBusy. All bake
// failures come back as ErrExportFailed with the cause logged.
func (e *Editor) Export(ctx context.Context) (*ExportResult, error) {
	if !e.processing.CompareAndSwap(false, true) {
		return nil, ErrExportBusy
	}
	defer e.processing.Store(false)

	opts := bake.Options{
		HighlightColor: parseHexColor(e.cfg.HighlightColor),
		TextColor:      parseHexColor(e.cfg.TextColor),
		Logger:         e.logger,
	}
	if e.cfg.CompressStreams {
		opts.CompressLevel = zlib.DefaultCompression
	}

	snap := e.store.Snapshot()
	data, skipped, err := bake.Bake(ctx, bytes.NewReader(e.doc.data), e.doc.reader, int64(len(e.doc.data)), snap, opts)
	if err != nil {
		e.logger.Printf("export of %s failed: %v", e.doc.name, err)
		return nil, ErrExportFailed
	}

	return &ExportResult{
		Data:     data,
		Filename: e.cfg.OutputPrefix + e.doc.name,
		Skipped:  skipped,
	}, nil
}

// parseHexColor reads a #rrggbb string. Malformed input falls back to
// black; config validation rejects bad colors before this point.
func parseHexColor(s string) annotation.RGB {
	if len(s) != 7 || s[0] != '#' {
		return annotation.RGB{}
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return annotation.RGB{}
	}
	return annotation.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}
