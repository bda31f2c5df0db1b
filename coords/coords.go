// Package coords converts between viewport (pointer) coordinates and
// document space.
//
// Document space is zoom invariant: annotation positions are stored in
// document units with the origin at the page's top-left corner, and only
// the rendered transform changes when the user zooms. A pointer position
// is mapped into document space by subtracting the container's screen
// origin and dividing by the current scale.
package coords

import (
	"errors"
	"math"
)

// Zoom bounds for the page view. The scale is adjusted in fixed steps and
// clamped to the inclusive range [MinZoom, MaxZoom].
const (
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.25
)

// Point is a position in either viewport or document space.
type Point struct {
	X, Y float64
}

// View describes the rendered document container: the position of its
// top-left corner in viewport coordinates, its rendered size in viewport
// pixels, and the current zoom scale.
type View struct {
	Origin Point
	Width  float64
	Height float64
	Scale  float64
}

// Measured reports whether the container has a usable size. Before the
// first layout pass both dimensions are zero and coordinate conversion
// degrades to the origin.
func (v View) Measured() bool {
	return v.Width > 0 && v.Height > 0 && v.Scale > 0
}

// ToDocument maps a pointer position in viewport coordinates into
// document space. An unmeasured container maps every position to (0, 0);
// callers must tolerate the resulting no-op interaction.
func (v View) ToDocument(px, py float64) (float64, float64) {
	if !v.Measured() {
		return 0, 0
	}
	return (px - v.Origin.X) / v.Scale, (py - v.Origin.Y) / v.Scale
}

// FromDocument applies the forward transform, mapping a document-space
// position to viewport coordinates. The overlay inside the scaled
// container does not need this; anything rendered outside it does.
func (v View) FromDocument(x, y float64) (float64, float64) {
	if !v.Measured() {
		return 0, 0
	}
	return x*v.Scale + v.Origin.X, y*v.Scale + v.Origin.Y
}

// ZoomIn returns a copy of the view scaled up by one step.
func (v View) ZoomIn() View {
	v.Scale = ClampZoom(v.Scale + ZoomStep)
	return v
}

// ZoomOut returns a copy of the view scaled down by one step.
func (v View) ZoomOut() View {
	v.Scale = ClampZoom(v.Scale - ZoomStep)
	return v
}

// ClampZoom restricts a zoom scale to [MinZoom, MaxZoom].
func ClampZoom(s float64) float64 {
	if s < MinZoom {
		return MinZoom
	}
	if s > MaxZoom {
		return MaxZoom
	}
	return s
}

// Matrix is a 2D affine transform [a b c d e f], mapping (x, y) to
// (a*x+c*y+e, b*x+d*y+f).
type Matrix [6]float64

// Identity returns the identity transform.
func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

// Scale returns a scaling by (sx, sy).
func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Multiply composes two transforms; the receiver is applied first.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// Transform applies the matrix to a point.
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Inverse returns the inverse transform, or an error for a singular
// matrix.
func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// Matrix returns the forward document-to-viewport transform of the view.
func (v View) Matrix() Matrix {
	return Scale(v.Scale, v.Scale).Multiply(Translate(v.Origin.X, v.Origin.Y))
}
