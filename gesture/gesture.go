// Package gesture interprets raw pointer events against the active tool
// and translates them into annotation store mutations.
//
// The machine holds one explicit gesture state at a time (idle, dragging,
// resizing, or rubber-banding). Each state variant carries exactly the
// data that gesture needs, so a stale drag can never leak into a resize
// and vice versa. Release and Cancel both return the machine to idle no
// matter which state it is in.
package gesture

import (
	"github.com/ragersky/pdfsigner/annotation"
	"github.com/ragersky/pdfsigner/coords"
)

// Tool selects how pointer events are interpreted.
type Tool int

const (
	ToolSelect Tool = iota
	ToolSign
	ToolText
	ToolHighlight
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolSign:
		return "sign"
	case ToolText:
		return "text"
	case ToolHighlight:
		return "highlight"
	}
	return "unknown"
}

// EventKind classifies a pointer event.
type EventKind int

const (
	Press EventKind = iota
	Move
	Release
	// Cancel is delivered when the pointer stream is interrupted, e.g.
	// the pointer leaves the window or the OS grabs it.
	Cancel
)

// PointerEvent is a raw pointer event in viewport pixels.
type PointerEvent struct {
	Kind EventKind
	X, Y float64
}

// TargetKind identifies what lies under a pointer press.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetSignature
	TargetText
	TargetHighlight
	TargetHandle
)

// Corner names a resize handle on a signature's bounding box.
type Corner int

const (
	CornerNW Corner = iota
	CornerNE
	CornerSW
	CornerSE
)

// Target describes the annotation (or handle) found by hit testing a
// press position. The host resolves hits because only it knows the
// rendered overlay geometry.
type Target struct {
	Kind   TargetKind
	ID     string
	Corner Corner
}

// Default geometry for freshly placed annotations, in document units.
const (
	DefaultStampWidth  = 150.0
	DefaultStampHeight = 60.0
	DefaultFontSize    = 16.0
)

// Resize and rubber-band limits, in document units.
const (
	MinResizeWidth     = 50.0
	MinResizeHeight    = 30.0
	MinHighlightWidth  = 10.0
	MinHighlightHeight = 5.0
)

// gestureState is the closed set of machine states. Exactly one is
// active at a time.
type gestureState interface{ isGestureState() }

type idle struct{}

// dragging tracks a signature or text being moved. offsetX/offsetY is
// the document-space vector from the annotation origin to the grab
// point, so the annotation does not snap its corner to the pointer.
type dragging struct {
	kind             TargetKind
	id               string
	offsetX, offsetY float64
}

// resizing tracks a signature corner drag. The anchor is the corner
// opposite the grabbed handle; it stays fixed while width and height
// follow the pointer.
type resizing struct {
	id               string
	corner           Corner
	startW, startH   float64
	originX, originY float64
	pressX, pressY   float64
}

// banding tracks an in-progress highlight rubber band in document space.
type banding struct {
	anchorX, anchorY float64
	curX, curY       float64
}

func (idle) isGestureState()     {}
func (dragging) isGestureState() {}
func (resizing) isGestureState() {}
func (banding) isGestureState()  {}

// Rect is an axis-aligned rectangle in document space.
type Rect struct {
	X, Y, Width, Height float64
}

// Machine drives annotation mutations from pointer events. It is not
// safe for concurrent use; events arrive on the single UI thread.
type Machine struct {
	store *annotation.Store
	view  *coords.View
	stamp *StampSlot

	tool  Tool
	state gestureState
	page  int

	editingText string

	// OnOpenPad is called when the sign tool is selected without a
	// pending stamp, prompting the host to open the signature pad.
	OnOpenPad func()
	// OnBeginTextEdit is called when a text annotation enters inline
	// editing, so the host can focus an input over it.
	OnBeginTextEdit func(id string)
}

// NewMachine returns a machine in the select tool and idle state.
func NewMachine(store *annotation.Store, view *coords.View, stamp *StampSlot) *Machine {
	return &Machine{
		store: store,
		view:  view,
		stamp: stamp,
		tool:  ToolSelect,
		state: idle{},
		page:  1,
	}
}

// Tool returns the active tool.
func (m *Machine) Tool() Tool { return m.tool }

// SetPage records which page the viewport currently shows. New
// annotations are attributed to it.
func (m *Machine) SetPage(page int) { m.page = page }

// Page returns the page new annotations are attributed to.
func (m *Machine) Page() int { return m.page }

// SelectTool switches the active tool. Any in-progress gesture is
// abandoned without committing. Selecting the sign tool with no stamp
// ready asks the host to open the signature pad; a stamp already in the
// slot survives tool switches untouched.
func (m *Machine) SelectTool(t Tool) {
	m.state = idle{}
	m.tool = t
	if t == ToolSign && !m.stamp.Ready() && m.OnOpenPad != nil {
		m.OnOpenPad()
	}
}

// Pointer feeds one pointer event through the machine. hit describes
// what lies under the event position; it is only consulted on Press.
func (m *Machine) Pointer(ev PointerEvent, hit Target) {
	switch ev.Kind {
	case Press:
		m.press(ev, hit)
	case Move:
		m.move(ev)
	case Release:
		m.release(ev)
	case Cancel:
		m.state = idle{}
	}
}

func (m *Machine) press(ev PointerEvent, hit Target) {
	dx, dy := m.view.ToDocument(ev.X, ev.Y)

	// A corner handle always wins, regardless of tool: handles only
	// render on the selected signature, so a hit is unambiguous.
	if hit.Kind == TargetHandle {
		sig, ok := m.store.SignatureByID(hit.ID)
		if !ok {
			return
		}
		ax, ay := anchorFor(sig, hit.Corner)
		m.state = resizing{
			id:      hit.ID,
			corner:  hit.Corner,
			startW:  sig.Width,
			startH:  sig.Height,
			originX: ax,
			originY: ay,
			pressX:  dx,
			pressY:  dy,
		}
		return
	}

	switch m.tool {
	case ToolHighlight:
		m.state = banding{anchorX: dx, anchorY: dy, curX: dx, curY: dy}

	case ToolSign:
		switch hit.Kind {
		case TargetSignature, TargetText:
			m.startDrag(hit, dx, dy)
		default:
			payload, ok := m.stamp.Take()
			if !ok {
				if m.OnOpenPad != nil {
					m.OnOpenPad()
				}
				return
			}
			m.store.AddSignature(annotation.Signature{
				Page:    m.page,
				X:       dx,
				Y:       dy,
				Width:   DefaultStampWidth,
				Height:  DefaultStampHeight,
				Payload: payload,
			})
		}

	case ToolText:
		switch hit.Kind {
		case TargetSignature, TargetText:
			m.startDrag(hit, dx, dy)
		default:
			id := m.store.AddText(annotation.Text{
				Page:     m.page,
				X:        dx,
				Y:        dy,
				FontSize: DefaultFontSize,
			})
			m.BeginTextEdit(id)
		}

	case ToolSelect:
		switch hit.Kind {
		case TargetSignature, TargetText:
			m.startDrag(hit, dx, dy)
		case TargetHighlight:
			// Highlights have no move or resize affordance. Clicking
			// one under the select tool removes it.
			m.store.DeleteHighlight(hit.ID)
		}
	}
}

// startDrag begins moving the hit signature or text. Any tool except
// highlight drags existing annotations; a sign or text press on an
// annotation of the other kind moves it instead of placing on top.
func (m *Machine) startDrag(hit Target, dx, dy float64) {
	switch hit.Kind {
	case TargetSignature:
		if sig, ok := m.store.SignatureByID(hit.ID); ok {
			m.state = dragging{kind: TargetSignature, id: hit.ID, offsetX: dx - sig.X, offsetY: dy - sig.Y}
		}
	case TargetText:
		if txt, ok := m.store.TextByID(hit.ID); ok {
			m.state = dragging{kind: TargetText, id: hit.ID, offsetX: dx - txt.X, offsetY: dy - txt.Y}
		}
	}
}

func (m *Machine) move(ev PointerEvent) {
	dx, dy := m.view.ToDocument(ev.X, ev.Y)

	switch st := m.state.(type) {
	case dragging:
		nx, ny := dx-st.offsetX, dy-st.offsetY
		switch st.kind {
		case TargetSignature:
			m.store.UpdateSignature(st.id, annotation.SignaturePatch{X: &nx, Y: &ny})
		case TargetText:
			m.store.UpdateText(st.id, annotation.TextPatch{X: &nx, Y: &ny})
		}

	case resizing:
		w := st.startW + resizeDeltaX(st.corner, dx-st.pressX)
		h := st.startH + resizeDeltaY(st.corner, dy-st.pressY)
		if w < MinResizeWidth {
			w = MinResizeWidth
		}
		if h < MinResizeHeight {
			h = MinResizeHeight
		}
		nx, ny := topLeftFor(st.corner, st.originX, st.originY, w, h)
		m.store.UpdateSignature(st.id, annotation.SignaturePatch{X: &nx, Y: &ny, Width: &w, Height: &h})

	case banding:
		st.curX, st.curY = dx, dy
		m.state = st
	}
}

func (m *Machine) release(ev PointerEvent) {
	if st, ok := m.state.(banding); ok {
		dx, dy := m.view.ToDocument(ev.X, ev.Y)
		st.curX, st.curY = dx, dy
		r := normalize(st)
		if r.Width > MinHighlightWidth && r.Height > MinHighlightHeight {
			m.store.AddHighlight(annotation.Highlight{
				Page:   m.page,
				X:      r.X,
				Y:      r.Y,
				Width:  r.Width,
				Height: r.Height,
			})
		}
	}
	m.state = idle{}
}

// BeginTextEdit marks a text annotation as being edited inline.
func (m *Machine) BeginTextEdit(id string) {
	m.editingText = id
	if m.OnBeginTextEdit != nil {
		m.OnBeginTextEdit(id)
	}
}

// CommitTextEdit ends the active inline edit with the given content.
// Content that trims to empty deletes the annotation instead, so
// abandoned text boxes never linger.
func (m *Machine) CommitTextEdit(content string) {
	id := m.editingText
	if id == "" {
		return
	}
	m.editingText = ""
	if (annotation.Text{Content: content}).Empty() {
		m.store.DeleteText(id)
		return
	}
	m.store.UpdateText(id, annotation.TextPatch{Content: &content})
}

// EditingText returns the id of the text annotation under inline edit,
// or "" when none is.
func (m *Machine) EditingText() string { return m.editingText }

// Delete removes the hit annotation. It only acts under the select
// tool; other tools interpret clicks as placement.
func (m *Machine) Delete(hit Target) {
	if m.tool != ToolSelect {
		return
	}
	switch hit.Kind {
	case TargetSignature:
		m.store.DeleteSignature(hit.ID)
	case TargetText:
		m.store.DeleteText(hit.ID)
	case TargetHighlight:
		m.store.DeleteHighlight(hit.ID)
	}
}

// RubberBand returns the normalized in-progress highlight rectangle and
// whether a rubber band is active. Hosts use it to draw the preview.
func (m *Machine) RubberBand() (Rect, bool) {
	st, ok := m.state.(banding)
	if !ok {
		return Rect{}, false
	}
	return normalize(st), true
}

// Dragging returns the id of the annotation being dragged, if any.
func (m *Machine) Dragging() (string, bool) {
	st, ok := m.state.(dragging)
	if !ok {
		return "", false
	}
	return st.id, true
}

// Resizing returns the id of the signature being resized, if any.
func (m *Machine) Resizing() (string, bool) {
	st, ok := m.state.(resizing)
	if !ok {
		return "", false
	}
	return st.id, true
}

// Idle reports whether no gesture is in progress.
func (m *Machine) Idle() bool {
	_, ok := m.state.(idle)
	return ok
}

// anchorFor returns the corner opposite the grabbed handle. It stays
// fixed for the duration of the resize.
func anchorFor(sig annotation.Signature, c Corner) (float64, float64) {
	switch c {
	case CornerNW:
		return sig.X + sig.Width, sig.Y + sig.Height
	case CornerNE:
		return sig.X, sig.Y + sig.Height
	case CornerSW:
		return sig.X + sig.Width, sig.Y
	default: // CornerSE
		return sig.X, sig.Y
	}
}

// resizeDeltaX maps pointer travel to width growth. Dragging a west
// handle left grows the box, so the sign flips per corner.
func resizeDeltaX(c Corner, dx float64) float64 {
	switch c {
	case CornerNW, CornerSW:
		return -dx
	default:
		return dx
	}
}

func resizeDeltaY(c Corner, dy float64) float64 {
	switch c {
	case CornerNW, CornerNE:
		return -dy
	default:
		return dy
	}
}

// topLeftFor recomputes the box origin from the fixed anchor and the
// new dimensions.
func topLeftFor(c Corner, ax, ay, w, h float64) (float64, float64) {
	switch c {
	case CornerNW:
		return ax - w, ay - h
	case CornerNE:
		return ax, ay - h
	case CornerSW:
		return ax - w, ay
	default: // CornerSE
		return ax, ay
	}
}

func normalize(st banding) Rect {
	x0, x1 := st.anchorX, st.curX
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := st.anchorY, st.curY
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
