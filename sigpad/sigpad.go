// Package sigpad renders signature stamps from freehand strokes or
// typed text. It draws on an offscreen canvas, crops the result to the
// inked region, and hands back an encoded PNG that the placement flow
// stores as the signature payload.
package sigpad

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// ErrEmpty is returned by Render when nothing has been drawn or typed.
var ErrEmpty = errors.New("sigpad: no content")

// Mode selects the pad's input mode.
type Mode int

const (
	ModeDraw Mode = iota
	ModeType
)

// Palette is the fixed set of ink colors offered by the pad.
var Palette = []color.RGBA{
	{R: 0x1b, G: 0x1b, B: 0x1b, A: 0xff}, // near black
	{R: 0x1e, G: 0x3a, B: 0x8a, A: 0xff}, // fountain blue
	{R: 0xb9, G: 0x1c, B: 0x1c, A: 0xff}, // red
}

const (
	strokeWidth  = 2.5
	cropPadding  = 20
	maxTypedSize = 56.0

	// Typed-signature decoration.
	typedShear      = 0.18
	shadowOffset    = 2.0
	outlineWidth    = 0.7
	underlineSegs   = 24
	underlineArcAmp = 2.0
	tremorAmp       = 0.8
	tremorCycles    = 9.0
	penLiftStart    = 0.85
	penLiftRise     = 3.0
)

// Candidate handwriting-ish system fonts, tried in order. The last few
// are fallbacks present on most Linux installs.
var fontCandidates = []string{
	"Segoe Script",
	"Comic Sans MS",
	"URW Chancery L",
	"DejaVu Sans",
	"Liberation Sans",
	"Arial",
	"Helvetica",
}

type point struct{ x, y float64 }

// Pad is an offscreen signature drawing surface. Pointer coordinates
// use the usual screen convention with the origin at the top left.
// A Pad is not safe for concurrent use.
type Pad struct {
	width, height float64
	mode          Mode
	ink           color.RGBA

	strokes    [][]point
	current    []point
	text       string
	hasContent bool

	family *canvas.FontFamily
}

// NewPad returns a pad of the given pixel size in freehand mode with
// the first palette ink.
func NewPad(width, height float64) *Pad {
	return &Pad{width: width, height: height, ink: Palette[0]}
}

// Mode returns the active input mode.
func (p *Pad) Mode() Mode { return p.mode }

// SetMode switches between freehand and typed input. Switching clears
// all existing content; the two modes never compose into one stamp.
func (p *Pad) SetMode(m Mode) {
	if m == p.mode {
		return
	}
	p.mode = m
	p.Clear()
}

// SetInk selects an ink from the palette. Out-of-range indexes fall
// back to the first entry.
func (p *Pad) SetInk(i int) {
	if i < 0 || i >= len(Palette) {
		i = 0
	}
	p.ink = Palette[i]
}

// Clear discards all strokes and text and resets the content flag.
func (p *Pad) Clear() {
	p.strokes = nil
	p.current = nil
	p.text = ""
	p.hasContent = false
}

// HasContent reports whether rendering would produce a stamp. Callers
// gate the save action on it instead of re-scanning pixels every frame.
func (p *Pad) HasContent() bool { return p.hasContent }

// PenDown begins a freehand stroke. Ignored in typed mode.
func (p *Pad) PenDown(x, y float64) {
	if p.mode != ModeDraw {
		return
	}
	p.current = []point{{x, y}}
	p.hasContent = true
}

// PenMove extends the active stroke.
func (p *Pad) PenMove(x, y float64) {
	if p.mode != ModeDraw || p.current == nil {
		return
	}
	p.current = append(p.current, point{x, y})
}

// PenUp finishes the active stroke.
func (p *Pad) PenUp() {
	if p.mode != ModeDraw || p.current == nil {
		return
	}
	p.strokes = append(p.strokes, p.current)
	p.current = nil
}

// SetText sets the typed signature text. Ignored in freehand mode.
func (p *Pad) SetText(s string) {
	if p.mode != ModeType {
		return
	}
	p.text = s
	p.hasContent = strings.TrimSpace(s) != ""
}

// Render rasterizes the pad content, crops it to the inked bounding box
// plus padding, and returns it PNG-encoded. ErrEmpty is returned when
// the pad has no content.
func (p *Pad) Render() ([]byte, error) {
	if !p.hasContent {
		return nil, ErrEmpty
	}

	c := canvas.New(p.width, p.height)
	ctx := canvas.NewContext(c)

	switch p.mode {
	case ModeDraw:
		p.drawStrokes(ctx)
	case ModeType:
		if err := p.drawTyped(ctx); err != nil {
			return nil, err
		}
	}

	img := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	bounds, ok := contentBounds(img, cropPadding)
	if !ok {
		return nil, ErrEmpty
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img.SubImage(bounds)); err != nil {
		return nil, fmt.Errorf("sigpad: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// flip converts a pad y (origin top left) to a canvas y (origin bottom
// left).
func (p *Pad) flip(y float64) float64 { return p.height - y }

func (p *Pad) drawStrokes(ctx *canvas.Context) {
	ctx.SetStrokeColor(p.ink)
	ctx.SetStrokeWidth(strokeWidth)
	ctx.SetStrokeCapper(canvas.RoundCap)
	ctx.SetStrokeJoiner(canvas.RoundJoin)
	ctx.SetFillColor(canvas.Transparent)

	strokes := p.strokes
	if p.current != nil {
		strokes = append(strokes, p.current)
	}
	for _, s := range strokes {
		ctx.DrawPath(0, 0, p.strokePath(s))
	}
}

// strokePath smooths a recorded stroke with quadratic segments. Each
// recorded point becomes the control of a curve ending at the midpoint
// between it and the next point, which keeps sparse pointer samples
// from reading as a jagged polyline. The tail segment has no following
// point to curve toward, so it is drawn as a straight line.
func (p *Pad) strokePath(s []point) *canvas.Path {
	path := &canvas.Path{}
	path.MoveTo(s[0].x, p.flip(s[0].y))
	if len(s) == 1 {
		// A tap is still a visible dot thanks to the round cap.
		path.LineTo(s[0].x+0.01, p.flip(s[0].y))
		return path
	}
	for i := 2; i < len(s); i++ {
		mx := (s[i-1].x + s[i].x) / 2
		my := (s[i-1].y + s[i].y) / 2
		path.QuadTo(s[i-1].x, p.flip(s[i-1].y), mx, p.flip(my))
	}
	last := s[len(s)-1]
	path.LineTo(last.x, p.flip(last.y))
	return path
}

// typedSize scales the face so the name fits the surface, capped at
// the maximum. Length is counted in runes so accented and non-Latin
// names size the same as ASCII ones.
func typedSize(width float64, text string) float64 {
	size := float64(maxTypedSize)
	if adaptive := width / (float64(utf8.RuneCountInString(text)) * 0.5); adaptive < size {
		size = adaptive
	}
	return size
}

func (p *Pad) drawTyped(ctx *canvas.Context) error {
	family, err := p.loadFamily()
	if err != nil {
		return err
	}

	text := strings.TrimSpace(p.text)
	size := typedSize(p.width, text)

	// Face sizes are in points while the canvas is in pixel units.
	face := family.Face(size*2.83465, p.ink, canvas.FontRegular, canvas.FontNormal)
	glyphs, advance, err := face.ToPath(text)
	if err != nil {
		return fmt.Errorf("sigpad: outline text: %w", err)
	}
	glyphs = glyphs.Transform(canvas.Identity.Shear(typedShear, 0))

	tx := (p.width - advance) / 2
	if tx < cropPadding {
		tx = cropPadding
	}
	baseline := p.height * 0.45

	// Faint offset duplicate first, for the drop shadow.
	ctx.SetFillColor(color.RGBA{A: 0x30})
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(tx+shadowOffset, baseline-shadowOffset, glyphs)

	ctx.SetFillColor(p.ink)
	ctx.DrawPath(tx, baseline, glyphs)

	// Thin overstroke gives the fill a slightly uneven, pen-like edge.
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(p.ink)
	ctx.SetStrokeWidth(outlineWidth)
	ctx.DrawPath(tx, baseline, glyphs)

	p.drawUnderline(ctx, tx-4, tx+advance+4, baseline-size*0.18)
	return nil
}

// drawUnderline lays a hand-drawn underline as short quadratic segments
// with a per-segment stroke width following a pressure curve.
func (p *Pad) drawUnderline(ctx *canvas.Context, x0, x1, y float64) {
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(p.ink)
	ctx.SetStrokeCapper(canvas.RoundCap)

	at := func(t float64) (float64, float64) {
		return x0 + (x1-x0)*t, y + underlineOffset(t)
	}
	for i := 0; i < underlineSegs; i++ {
		t0 := float64(i) / underlineSegs
		t1 := float64(i+1) / underlineSegs
		sx, sy := at(t0)
		cx, cy := at((t0 + t1) / 2)
		ex, ey := at(t1)

		seg := &canvas.Path{}
		seg.MoveTo(sx, sy)
		seg.QuadTo(cx, cy, ex, ey)
		ctx.SetStrokeWidth(underlineWidth((t0 + t1) / 2))
		ctx.DrawPath(0, 0, seg)
	}

	// Terminal flourish: a short curl rising off the pen-lift.
	ex, ey := at(1)
	fl := &canvas.Path{}
	fl.MoveTo(ex, ey)
	fl.QuadTo(ex+6, ey+1, ex+9, ey+5)
	ctx.SetStrokeWidth(0.8)
	ctx.DrawPath(0, 0, fl)
}

// underlineOffset is the vertical displacement of the underline at
// position t in [0,1]: a downward sinusoidal arc, a high-frequency
// tremor, and an upward pen-lift over the final stretch.
func underlineOffset(t float64) float64 {
	off := -underlineArcAmp * math.Sin(math.Pi*t)
	off += tremorAmp * math.Sin(tremorCycles*math.Pi*t)
	if t > penLiftStart {
		off += (t - penLiftStart) / (1 - penLiftStart) * penLiftRise
	}
	return off
}

// underlineWidth follows a sinusoidal pressure curve, heaviest at the
// midpoint and tapering toward both ends.
func underlineWidth(t float64) float64 {
	return 0.6 + 1.8*math.Sin(math.Pi*t)
}

func (p *Pad) loadFamily() (*canvas.FontFamily, error) {
	if p.family != nil {
		return p.family, nil
	}
	family := canvas.NewFontFamily("signature")
	for _, name := range fontCandidates {
		if err := family.LoadSystemFont(name, canvas.FontRegular); err == nil {
			p.family = family
			return family, nil
		}
	}
	return nil, errors.New("sigpad: no usable system font")
}

// contentBounds scans the alpha channel for the bounding box of all
// non-fully-transparent pixels and expands it by pad on every side,
// clamped to the image bounds. ok is false when the image is fully
// transparent.
func contentBounds(img *image.RGBA, pad int) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	r := image.Rect(minX-pad, minY-pad, maxX+1+pad, maxY+1+pad)
	return r.Intersect(b), true
}
