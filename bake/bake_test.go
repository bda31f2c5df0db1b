package bake

import (
	"bytes"
	"compress/zlib"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	pdflib "github.com/digitorus/pdf"

	"github.com/ragersky/pdfsigner/annotation"
	"github.com/ragersky/pdfsigner/internal/testpdf"
)

func fixture(t *testing.T, pages int) ([]byte, *pdflib.Reader) {
	t.Helper()
	data := testpdf.Build(pages)
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return data, r
}

func pngPayload(t *testing.T, alpha uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.SetRGBA(i%4, i/4, color.RGBA{R: 10, G: 20, B: 30, A: alpha})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func plainOptions() Options {
	return Options{CompressLevel: zlib.NoCompression}
}

func bakeSnapshot(t *testing.T, pages int, snap annotation.Snapshot, opts Options) ([]byte, int) {
	t.Helper()
	data, r := fixture(t, pages)
	out, skipped, err := Bake(context.Background(), bytes.NewReader(data), r, int64(len(data)), snap, opts)
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	return out, skipped
}

func TestSignatureVerticalFlip(t *testing.T) {
	snap := annotation.Snapshot{
		Signatures: []annotation.Signature{
			{ID: "s1", Page: 1, X: 100, Y: 100, Width: 150, Height: 60, Payload: pngPayload(t, 255)},
		},
	}
	out, skipped := bakeSnapshot(t, 1, snap, plainOptions())

	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	// Page height 792: the image matrix places the stamp at y = 792-100-60.
	if !bytes.Contains(out, []byte("150.00 0 0 60.00 100.00 632.00 cm")) {
		t.Error("image placement matrix missing or wrong")
	}
	if !bytes.Contains(out, []byte("/Im1 Do")) {
		t.Error("image draw operator missing")
	}
}

func TestTextPlacement(t *testing.T) {
	snap := annotation.Snapshot{
		Texts: []annotation.Text{
			{ID: "t1", Page: 1, X: 50, Y: 700, Content: "Approved", FontSize: 16},
		},
	}
	out, _ := bakeSnapshot(t, 1, snap, plainOptions())

	// y = 792 - 700 - 16 = 76.
	if !bytes.Contains(out, []byte("50.00 76.00 Td")) {
		t.Error("text position missing or wrong")
	}
	if !bytes.Contains(out, []byte("(Approved) Tj")) {
		t.Error("text string missing")
	}
	if !bytes.Contains(out, []byte("/F1 16.00 Tf")) {
		t.Error("font selection missing")
	}
	if !bytes.Contains(out, []byte("/BaseFont /Helvetica")) {
		t.Error("font object missing")
	}
}

func TestEmptyTextSkipped(t *testing.T) {
	snap := annotation.Snapshot{
		Texts: []annotation.Text{{ID: "t1", Page: 1, Content: "   "}},
	}
	out, skipped := bakeSnapshot(t, 1, snap, plainOptions())

	if skipped != 0 {
		t.Errorf("empty text counted as skipped page: %d", skipped)
	}
	if bytes.Contains(out, []byte(" Tj")) {
		t.Error("empty text was drawn")
	}
}

func TestHighlightRectAndOpacity(t *testing.T) {
	snap := annotation.Snapshot{
		Highlights: []annotation.Highlight{
			{ID: "h1", Page: 1, X: 30, Y: 40, Width: 200, Height: 18},
		},
	}
	out, _ := bakeSnapshot(t, 1, snap, plainOptions())

	// y = 792 - 40 - 18 = 734.
	if !bytes.Contains(out, []byte("30.00 734.00 200.00 18.00 re f")) {
		t.Error("highlight rectangle missing or wrong")
	}
	if !bytes.Contains(out, []byte("/GSh gs")) {
		t.Error("graphics state selection missing")
	}
	if !bytes.Contains(out, []byte("/ca 0.40 /CA 0.40")) {
		t.Error("highlight opacity missing")
	}
}

func TestImageDeduplication(t *testing.T) {
	payload := pngPayload(t, 255)
	snap := annotation.Snapshot{
		Signatures: []annotation.Signature{
			{ID: "s1", Page: 1, X: 10, Y: 10, Width: 150, Height: 60, Payload: payload},
			{ID: "s2", Page: 1, X: 300, Y: 300, Width: 150, Height: 60, Payload: payload},
		},
	}
	out, _ := bakeSnapshot(t, 1, snap, plainOptions())

	if got := bytes.Count(out, []byte("/Subtype /Image")); got != 1 {
		t.Errorf("%d image objects for identical payloads, want 1", got)
	}
	if got := bytes.Count(out, []byte("/Im1 Do")); got != 2 {
		t.Errorf("%d draw operators, want 2", got)
	}
}

func TestAlphaPayloadGetsSoftMask(t *testing.T) {
	snap := annotation.Snapshot{
		Signatures: []annotation.Signature{
			{ID: "s1", Page: 1, X: 10, Y: 10, Width: 150, Height: 60, Payload: pngPayload(t, 128)},
		},
	}
	out, _ := bakeSnapshot(t, 1, snap, plainOptions())

	if !bytes.Contains(out, []byte("/SMask")) {
		t.Error("translucent payload embedded without soft mask")
	}
	if !bytes.Contains(out, []byte("/ColorSpace /DeviceGray")) {
		t.Error("soft mask stream missing")
	}
}

func TestOutOfRangePageSkipped(t *testing.T) {
	snap := annotation.Snapshot{
		Signatures: []annotation.Signature{
			{ID: "s1", Page: 7, X: 10, Y: 10, Width: 150, Height: 60, Payload: pngPayload(t, 255)},
		},
		Highlights: []annotation.Highlight{
			{ID: "h1", Page: 1, X: 30, Y: 40, Width: 200, Height: 18},
			{ID: "h2", Page: 0, X: 30, Y: 40, Width: 200, Height: 18},
		},
	}
	out, skipped := bakeSnapshot(t, 2, snap, plainOptions())

	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if !bytes.Contains(out, []byte("re f")) {
		t.Error("in-range highlight dropped along with out-of-range marks")
	}
}

func TestEmptySnapshotReturnsOriginal(t *testing.T) {
	data, r := fixture(t, 1)
	out, skipped, err := Bake(context.Background(), bytes.NewReader(data), r, int64(len(data)), annotation.Snapshot{}, plainOptions())
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if !bytes.Equal(out, data) {
		t.Error("empty snapshot changed the document bytes")
	}
}

func TestBakedOutputReparses(t *testing.T) {
	snap := annotation.Snapshot{
		Signatures: []annotation.Signature{
			{ID: "s1", Page: 2, X: 100, Y: 100, Width: 150, Height: 60, Payload: pngPayload(t, 255)},
		},
		Texts: []annotation.Text{
			{ID: "t1", Page: 1, X: 50, Y: 700, Content: "Reviewed", FontSize: 14},
		},
	}
	out, _ := bakeSnapshot(t, 2, snap, plainOptions())

	r, err := pdflib.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("baked output does not reparse: %v", err)
	}
	if r.NumPage() != 2 {
		t.Errorf("NumPage = %d after bake, want 2", r.NumPage())
	}

	page := r.Page(1)
	contents := page.V.Key("Contents")
	if contents.Kind() != pdflib.Array || contents.Len() != 2 {
		t.Errorf("page 1 contents not extended: kind=%v len=%d", contents.Kind(), contents.Len())
	}
}

func TestMalformedPayloadAbortsExport(t *testing.T) {
	data, r := fixture(t, 1)
	snap := annotation.Snapshot{
		Signatures: []annotation.Signature{
			{ID: "s1", Page: 1, X: 10, Y: 10, Width: 150, Height: 60, Payload: []byte("not an image")},
		},
		Highlights: []annotation.Highlight{
			{ID: "h1", Page: 1, X: 30, Y: 40, Width: 200, Height: 18},
		},
	}
	_, _, err := Bake(context.Background(), bytes.NewReader(data), r, int64(len(data)), snap, plainOptions())
	if err == nil {
		t.Fatal("malformed payload did not abort the export")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	data, r := fixture(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := annotation.Snapshot{
		Highlights: []annotation.Highlight{{ID: "h1", Page: 1, Width: 50, Height: 10}},
	}
	if _, _, err := Bake(ctx, bytes.NewReader(data), r, int64(len(data)), snap, plainOptions()); err == nil {
		t.Fatal("cancelled context did not abort the export")
	}
}

func TestKindOrderWithinPage(t *testing.T) {
	snap := annotation.Snapshot{
		Highlights: []annotation.Highlight{{ID: "h1", Page: 1, X: 1, Y: 1, Width: 50, Height: 10}},
		Texts:      []annotation.Text{{ID: "t1", Page: 1, X: 5, Y: 5, Content: "first", FontSize: 12}},
		Signatures: []annotation.Signature{
			{ID: "s1", Page: 1, X: 9, Y: 9, Width: 150, Height: 60, Payload: pngPayload(t, 255)},
		},
	}
	out, _ := bakeSnapshot(t, 1, snap, plainOptions())

	sigAt := bytes.Index(out, []byte("/Im1 Do"))
	textAt := bytes.Index(out, []byte("(first) Tj"))
	highAt := bytes.Index(out, []byte("re f"))
	if sigAt < 0 || textAt < 0 || highAt < 0 {
		t.Fatal("missing operators in output")
	}
	if !(sigAt < textAt && textAt < highAt) {
		t.Error("kinds not drawn in signature, text, highlight order")
	}
}
