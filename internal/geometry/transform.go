// Package geometry converts between the pixel space of a rendered page and the
// page's intrinsic coordinate system.
//
// Pixel space has its origin at the top-left corner of the rendered surface with
// Y growing downward. Intrinsic space is the document's own unit-magnification
// space with its origin at the bottom-left corner and Y growing upward. Regions are
// always stored in intrinsic space so that they stay valid at every zoom level.
package geometry

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
)

// Point is a position in either pixel or intrinsic space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the width and height of a page surface
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are finite and positive
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0 &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}

// PixelSize returns the raster size of a page rendered at the given magnification.
// Dimensions are truncated to whole pixels, as a canvas does.
func PixelSize(intrinsic Size, scale float64) Size {
	return Size{
		Width:  math.Floor(intrinsic.Width * scale),
		Height: math.Floor(intrinsic.Height * scale),
	}
}

// Transform maps points between pixel and intrinsic space for one page
type Transform struct {
	pixel     Size
	intrinsic Size

	toIntrinsic matrix.Matrix
	toPixel     matrix.Matrix
}

// NewTransform creates the transform for a page rendered at pixel size onto a page
// whose unit-magnification size is intrinsic.
func NewTransform(pixel, intrinsic Size) (*Transform, error) {
	if !pixel.Valid() {
		return nil, fmt.Errorf("invalid pixel size %gx%g", pixel.Width, pixel.Height)
	}
	if !intrinsic.Valid() {
		return nil, fmt.Errorf("invalid intrinsic size %gx%g", intrinsic.Width, intrinsic.Height)
	}

	// Scale first, then shift the flipped Y axis back onto the page.
	toIntrinsic := matrix.Scale(intrinsic.Width/pixel.Width, -intrinsic.Height/pixel.Height).
		Mul(matrix.Translate(0, intrinsic.Height))
	toPixel := matrix.Scale(pixel.Width/intrinsic.Width, -pixel.Height/intrinsic.Height).
		Mul(matrix.Translate(0, pixel.Height))

	return &Transform{
		pixel:       pixel,
		intrinsic:   intrinsic,
		toIntrinsic: toIntrinsic,
		toPixel:     toPixel,
	}, nil
}

// PixelSize returns the rendered surface size
func (t *Transform) PixelSize() Size {
	return t.pixel
}

// IntrinsicSize returns the unit-magnification page size
func (t *Transform) IntrinsicSize() Size {
	return t.intrinsic
}

// Scale returns the horizontal magnification of the rendered surface
func (t *Transform) Scale() float64 {
	return t.pixel.Width / t.intrinsic.Width
}

// ToIntrinsic converts a pixel position to intrinsic page coordinates
func (t *Transform) ToIntrinsic(p Point) Point {
	return apply(t.toIntrinsic, p)
}

// ToPixel converts an intrinsic page position to pixel coordinates
func (t *Transform) ToPixel(p Point) Point {
	return apply(t.toPixel, p)
}

// Matrices returns the pixel-to-intrinsic and intrinsic-to-pixel matrices
func (t *Transform) Matrices() (toIntrinsic, toPixel matrix.Matrix) {
	return t.toIntrinsic, t.toPixel
}

func apply(m matrix.Matrix, p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}
