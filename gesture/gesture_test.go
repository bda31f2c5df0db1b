package gesture

import (
	"testing"

	"github.com/ragersky/pdfsigner/annotation"
	"github.com/ragersky/pdfsigner/coords"
)

func testView() *coords.View {
	return &coords.View{Width: 800, Height: 600, Scale: 1.0}
}

func newTestMachine() (*Machine, *annotation.Store, *StampSlot) {
	store := annotation.NewStore()
	slot := NewStampSlot()
	m := NewMachine(store, testView(), slot)
	return m, store, slot
}

func TestSignPlacementConsumesStamp(t *testing.T) {
	m, store, slot := newTestMachine()
	slot.Put([]byte("png"))
	m.SelectTool(ToolSign)

	m.Pointer(PointerEvent{Kind: Press, X: 200, Y: 300}, Target{})

	sigs := store.Signatures()
	if len(sigs) != 1 {
		t.Fatalf("got %d signatures, want 1", len(sigs))
	}
	sig := sigs[0]
	if sig.Width != DefaultStampWidth || sig.Height != DefaultStampHeight {
		t.Errorf("size %gx%g, want %gx%g", sig.Width, sig.Height, DefaultStampWidth, DefaultStampHeight)
	}
	// The stamp hangs from the click point.
	if sig.X != 200 || sig.Y != 300 {
		t.Errorf("origin (%g,%g), want clicked point (200,300)", sig.X, sig.Y)
	}
	if string(sig.Payload) != "png" {
		t.Errorf("payload %q, want %q", sig.Payload, "png")
	}
	if slot.Ready() {
		t.Error("stamp not consumed by placement")
	}
}

func TestSignClickWithoutStampOpensPad(t *testing.T) {
	m, store, _ := newTestMachine()
	opened := 0
	m.OnOpenPad = func() { opened++ }

	m.SelectTool(ToolSign) // empty slot: prompt once
	m.Pointer(PointerEvent{Kind: Press, X: 100, Y: 100}, Target{})

	if opened != 2 {
		t.Errorf("pad opened %d times, want 2", opened)
	}
	if store.Len() != 0 {
		t.Errorf("placed %d annotations with no stamp", store.Len())
	}
}

func TestSignToolDragsExistingText(t *testing.T) {
	m, store, slot := newTestMachine()
	slot.Put([]byte("png"))
	id := store.AddText(annotation.Text{Page: 1, X: 100, Y: 100, Content: "note", FontSize: 16})
	m.SelectTool(ToolSign)

	m.Pointer(PointerEvent{Kind: Press, X: 110, Y: 105}, Target{Kind: TargetText, ID: id})
	if dragID, ok := m.Dragging(); !ok || dragID != id {
		t.Fatalf("press on existing text under sign tool did not start a drag; store now has %d signatures", len(store.Signatures()))
	}
	if !slot.Ready() {
		t.Error("drag over text consumed the pending stamp")
	}

	m.Pointer(PointerEvent{Kind: Move, X: 140, Y: 145}, Target{})
	m.Pointer(PointerEvent{Kind: Release, X: 140, Y: 145}, Target{})

	txt, _ := store.TextByID(id)
	if txt.X != 130 || txt.Y != 140 {
		t.Errorf("text at (%g,%g), want (130,140)", txt.X, txt.Y)
	}
	if len(store.Signatures()) != 0 {
		t.Errorf("placed %d signatures on top of the text", len(store.Signatures()))
	}
}

func TestTextToolDragsExistingSignature(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, X: 100, Y: 100, Width: 150, Height: 60})
	m.SelectTool(ToolText)

	m.Pointer(PointerEvent{Kind: Press, X: 110, Y: 105}, Target{Kind: TargetSignature, ID: id})
	if dragID, ok := m.Dragging(); !ok || dragID != id {
		t.Fatalf("press on existing signature under text tool did not start a drag; store now has %d texts", len(store.Texts()))
	}

	m.Pointer(PointerEvent{Kind: Move, X: 140, Y: 145}, Target{})
	m.Pointer(PointerEvent{Kind: Release, X: 140, Y: 145}, Target{})

	sig, _ := store.SignatureByID(id)
	if sig.X != 130 || sig.Y != 140 {
		t.Errorf("signature at (%g,%g), want (130,140)", sig.X, sig.Y)
	}
	if len(store.Texts()) != 0 {
		t.Errorf("created %d texts over the signature", len(store.Texts()))
	}
}

func TestStampSurvivesToolSwitch(t *testing.T) {
	m, _, slot := newTestMachine()
	slot.Put([]byte("keep"))

	m.SelectTool(ToolHighlight)
	m.SelectTool(ToolSign)

	if !slot.Ready() {
		t.Fatal("stamp lost on tool switch")
	}
}

func TestStampPutReplaces(t *testing.T) {
	slot := NewStampSlot()
	slot.Put([]byte("first"))
	slot.Put([]byte("second"))

	p, ok := slot.Take()
	if !ok || string(p) != "second" {
		t.Fatalf("Take() = %q, %v; want %q, true", p, ok, "second")
	}
	if _, ok := slot.Take(); ok {
		t.Error("second Take() should report empty")
	}
}

func TestStampPeekDoesNotConsume(t *testing.T) {
	slot := NewStampSlot()
	if _, ok := slot.Peek(); ok {
		t.Error("Peek on empty slot should report empty")
	}

	slot.Put([]byte("pending"))
	p, ok := slot.Peek()
	if !ok || string(p) != "pending" {
		t.Fatalf("Peek() = %q, %v; want %q, true", p, ok, "pending")
	}
	p[0] = 'X'
	if !slot.Ready() {
		t.Error("Peek consumed the slot")
	}
	if q, _ := slot.Take(); string(q) != "pending" {
		t.Errorf("Peek leaked a mutable reference, Take() = %q", q)
	}
}

func TestDragSignature(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, X: 100, Y: 100, Width: 150, Height: 60})
	m.SelectTool(ToolSelect)

	// Grab 10,5 inside the box and move the pointer by (30, 40).
	m.Pointer(PointerEvent{Kind: Press, X: 110, Y: 105}, Target{Kind: TargetSignature, ID: id})
	m.Pointer(PointerEvent{Kind: Move, X: 140, Y: 145}, Target{})
	m.Pointer(PointerEvent{Kind: Release, X: 140, Y: 145}, Target{})

	sig, _ := store.SignatureByID(id)
	if sig.X != 130 || sig.Y != 140 {
		t.Errorf("moved to (%g,%g), want (130,140)", sig.X, sig.Y)
	}
	if !m.Idle() {
		t.Error("machine not idle after release")
	}
}

func TestDragUnderScaledView(t *testing.T) {
	store := annotation.NewStore()
	view := &coords.View{Width: 800, Height: 600, Scale: 2.0}
	m := NewMachine(store, view, NewStampSlot())
	id := store.AddSignature(annotation.Signature{Page: 1, X: 50, Y: 50, Width: 150, Height: 60})

	// 100 viewport px of travel is 50 document units at 2x zoom.
	m.Pointer(PointerEvent{Kind: Press, X: 100, Y: 100}, Target{Kind: TargetSignature, ID: id})
	m.Pointer(PointerEvent{Kind: Move, X: 200, Y: 100}, Target{})

	sig, _ := store.SignatureByID(id)
	if sig.X != 100 || sig.Y != 50 {
		t.Errorf("moved to (%g,%g), want (100,50)", sig.X, sig.Y)
	}
}

func TestResizeSE(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, X: 100, Y: 100, Width: 150, Height: 60})

	m.Pointer(PointerEvent{Kind: Press, X: 250, Y: 160}, Target{Kind: TargetHandle, ID: id, Corner: CornerSE})
	m.Pointer(PointerEvent{Kind: Move, X: 270, Y: 170}, Target{})

	sig, _ := store.SignatureByID(id)
	if sig.Width != 170 || sig.Height != 70 {
		t.Errorf("size %gx%g, want 170x70", sig.Width, sig.Height)
	}
	if sig.X != 100 || sig.Y != 100 {
		t.Errorf("origin moved to (%g,%g) during SE resize", sig.X, sig.Y)
	}
}

func TestResizeNWKeepsOppositeCorner(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, X: 100, Y: 100, Width: 150, Height: 60})

	// Drag the NW handle 20 left and 10 up: box grows, SE corner fixed.
	m.Pointer(PointerEvent{Kind: Press, X: 100, Y: 100}, Target{Kind: TargetHandle, ID: id, Corner: CornerNW})
	m.Pointer(PointerEvent{Kind: Move, X: 80, Y: 90}, Target{})

	sig, _ := store.SignatureByID(id)
	if sig.Width != 170 || sig.Height != 70 {
		t.Errorf("size %gx%g, want 170x70", sig.Width, sig.Height)
	}
	if sig.X+sig.Width != 250 || sig.Y+sig.Height != 160 {
		t.Errorf("SE corner drifted to (%g,%g), want (250,160)", sig.X+sig.Width, sig.Y+sig.Height)
	}
}

func TestResizeClampsToMinimum(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, X: 100, Y: 100, Width: 150, Height: 60})

	m.Pointer(PointerEvent{Kind: Press, X: 250, Y: 160}, Target{Kind: TargetHandle, ID: id, Corner: CornerSE})
	m.Pointer(PointerEvent{Kind: Move, X: 0, Y: 0}, Target{})

	sig, _ := store.SignatureByID(id)
	if sig.Width != MinResizeWidth || sig.Height != MinResizeHeight {
		t.Errorf("size %gx%g, want %gx%g", sig.Width, sig.Height, MinResizeWidth, MinResizeHeight)
	}
}

func TestHighlightBandCommit(t *testing.T) {
	m, store, _ := newTestMachine()
	m.SelectTool(ToolHighlight)

	// Drag up-left so normalization has to swap both axes.
	m.Pointer(PointerEvent{Kind: Press, X: 200, Y: 150}, Target{})
	m.Pointer(PointerEvent{Kind: Move, X: 120, Y: 110}, Target{})

	r, active := m.RubberBand()
	if !active {
		t.Fatal("no rubber band during drag")
	}
	if r.X != 120 || r.Y != 110 || r.Width != 80 || r.Height != 40 {
		t.Errorf("band %+v, want {120 110 80 40}", r)
	}

	m.Pointer(PointerEvent{Kind: Release, X: 120, Y: 110}, Target{})

	hs := store.Highlights()
	if len(hs) != 1 {
		t.Fatalf("got %d highlights, want 1", len(hs))
	}
	if hs[0].X != 120 || hs[0].Y != 110 || hs[0].Width != 80 || hs[0].Height != 40 {
		t.Errorf("highlight %+v", hs[0])
	}
}

func TestHighlightBandTooSmallDiscarded(t *testing.T) {
	m, store, _ := newTestMachine()
	m.SelectTool(ToolHighlight)

	cases := []struct {
		name   string
		w, h   float64
		placed int
	}{
		{"at threshold", 10, 5, 0},
		{"just above", 11, 6, 1},
	}
	for _, c := range cases {
		store.Reset()
		m.Pointer(PointerEvent{Kind: Press, X: 100, Y: 100}, Target{})
		m.Pointer(PointerEvent{Kind: Release, X: 100 + c.w, Y: 100 + c.h}, Target{})
		if got := len(store.Highlights()); got != c.placed {
			t.Errorf("%s: %d highlights, want %d", c.name, got, c.placed)
		}
	}
}

func TestCancelAbandonsBand(t *testing.T) {
	m, store, _ := newTestMachine()
	m.SelectTool(ToolHighlight)

	m.Pointer(PointerEvent{Kind: Press, X: 100, Y: 100}, Target{})
	m.Pointer(PointerEvent{Kind: Move, X: 300, Y: 300}, Target{})
	m.Pointer(PointerEvent{Kind: Cancel}, Target{})

	if len(store.Highlights()) != 0 {
		t.Error("cancelled band committed a highlight")
	}
	if !m.Idle() {
		t.Error("machine not idle after cancel")
	}
}

func TestToolSwitchAbandonsGesture(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, X: 100, Y: 100, Width: 150, Height: 60})

	m.Pointer(PointerEvent{Kind: Press, X: 110, Y: 110}, Target{Kind: TargetSignature, ID: id})
	m.SelectTool(ToolHighlight)

	if _, ok := m.Dragging(); ok {
		t.Error("drag survived tool switch")
	}
	m.Pointer(PointerEvent{Kind: Move, X: 500, Y: 500}, Target{})
	sig, _ := store.SignatureByID(id)
	if sig.X != 100 || sig.Y != 100 {
		t.Errorf("abandoned drag still moved signature to (%g,%g)", sig.X, sig.Y)
	}
}

func TestGestureStatesMutuallyExclusive(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, X: 100, Y: 100, Width: 150, Height: 60})

	m.Pointer(PointerEvent{Kind: Press, X: 250, Y: 160}, Target{Kind: TargetHandle, ID: id, Corner: CornerSE})

	if _, ok := m.Resizing(); !ok {
		t.Fatal("expected resizing state")
	}
	if _, ok := m.Dragging(); ok {
		t.Error("dragging reported during resize")
	}
	if _, ok := m.RubberBand(); ok {
		t.Error("rubber band reported during resize")
	}
}

func TestSelectClickDeletesHighlight(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddHighlight(annotation.Highlight{Page: 1, X: 10, Y: 10, Width: 50, Height: 20})

	m.Pointer(PointerEvent{Kind: Press, X: 20, Y: 15}, Target{Kind: TargetHighlight, ID: id})

	if len(store.Highlights()) != 0 {
		t.Error("highlight survived select click")
	}
}

func TestTextCreationAndEdit(t *testing.T) {
	m, store, _ := newTestMachine()
	m.SelectTool(ToolText)
	var editing string
	m.OnBeginTextEdit = func(id string) { editing = id }

	m.Pointer(PointerEvent{Kind: Press, X: 40, Y: 40}, Target{})

	if editing == "" || m.EditingText() != editing {
		t.Fatal("text press did not begin inline edit")
	}
	txt, _ := store.TextByID(editing)
	if txt.FontSize != DefaultFontSize {
		t.Errorf("font size %g, want %g", txt.FontSize, DefaultFontSize)
	}

	m.CommitTextEdit("  hello  ")
	txt, _ = store.TextByID(editing)
	if txt.Content != "  hello  " {
		t.Errorf("content %q after commit", txt.Content)
	}
	if m.EditingText() != "" {
		t.Error("edit still active after commit")
	}
}

func TestCommitEmptyTextDeletes(t *testing.T) {
	m, store, _ := newTestMachine()
	m.SelectTool(ToolText)
	m.Pointer(PointerEvent{Kind: Press, X: 40, Y: 40}, Target{})
	id := m.EditingText()

	m.CommitTextEdit("   \n ")

	if _, ok := store.TextByID(id); ok {
		t.Error("empty text not deleted on commit")
	}
}

func TestDeleteOnlyUnderSelect(t *testing.T) {
	m, store, _ := newTestMachine()
	id := store.AddSignature(annotation.Signature{Page: 1, Width: 150, Height: 60})

	m.SelectTool(ToolHighlight)
	m.Delete(Target{Kind: TargetSignature, ID: id})
	if _, ok := store.SignatureByID(id); !ok {
		t.Fatal("delete acted outside select tool")
	}

	m.SelectTool(ToolSelect)
	m.Delete(Target{Kind: TargetSignature, ID: id})
	if _, ok := store.SignatureByID(id); ok {
		t.Error("delete under select tool did not remove signature")
	}
}

func TestUnmeasuredViewIsSafe(t *testing.T) {
	store := annotation.NewStore()
	m := NewMachine(store, &coords.View{}, NewStampSlot())
	m.SelectTool(ToolHighlight)

	m.Pointer(PointerEvent{Kind: Press, X: 100, Y: 100}, Target{})
	m.Pointer(PointerEvent{Kind: Release, X: 300, Y: 300}, Target{})

	// Everything collapses to (0,0); the degenerate band is discarded.
	if store.Len() != 0 {
		t.Errorf("unmeasured view placed %d annotations", store.Len())
	}
}
