// Package geometry maps points between a zoomed, centered display surface
// and native image pixel space.
//
// The effective scale is the fit-to-window scale multiplied by the user zoom.
// The image is centered on the display, so a constant offset is applied on
// top of the scale. Conversions truncate toward zero, so a round trip may
// drift by one pixel when the scale is not integral.
package geometry

import (
	"math"

	"github.com/menta2k/frame-annotator/pkg/types"
)

// Common zoom limits used by the annotation session
const (
	DefaultMinZoom  = 0.5
	DefaultMaxZoom  = 5.0
	DefaultZoomStep = 0.1
)

// Viewport describes how an image is presented on a display surface
type Viewport struct {
	Image   types.Size
	Display types.Size
	Zoom    float64
}

// NewViewport returns a viewport with zoom 1.0
func NewViewport(image, display types.Size) Viewport {
	return Viewport{Image: image, Display: display, Zoom: 1.0}
}

// FitScale returns the scale that fits the whole image inside the display
func (v Viewport) FitScale() float64 {
	if v.Image.Empty() || v.Display.Empty() {
		return 0
	}
	sx := float64(v.Display.W) / float64(v.Image.W)
	sy := float64(v.Display.H) / float64(v.Image.H)
	return math.Min(sx, sy)
}

// Scale returns the fit scale composed with the user zoom
func (v Viewport) Scale() float64 {
	return v.FitScale() * v.Zoom
}

// Offset returns the centering offset of the scaled image on the display
func (v Viewport) Offset() types.Point {
	s := v.Scale()
	return types.Point{
		X: int(math.Floor((float64(v.Display.W) - float64(v.Image.W)*s) / 2)),
		Y: int(math.Floor((float64(v.Display.H) - float64(v.Image.H)*s) / 2)),
	}
}

// DisplayedSize returns the size of the image once scaled, at least 1x1
func (v Viewport) DisplayedSize() types.Size {
	s := v.Scale()
	w := int(float64(v.Image.W) * s)
	h := int(float64(v.Image.H) * s)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return types.Size{W: w, H: h}
}

// ToImage converts a display point to image pixel coordinates
func (v Viewport) ToImage(p types.Point) types.Point {
	s := v.Scale()
	if s <= 0 {
		return types.Point{}
	}
	off := v.Offset()
	return types.Point{
		X: int(float64(p.X-off.X) / s),
		Y: int(float64(p.Y-off.Y) / s),
	}
}

// ToDisplay converts an image pixel point to display coordinates
func (v Viewport) ToDisplay(p types.Point) types.Point {
	s := v.Scale()
	off := v.Offset()
	return types.Point{
		X: int(float64(p.X)*s) + off.X,
		Y: int(float64(p.Y)*s) + off.Y,
	}
}

// RectToDisplay maps both corners of an image rectangle to display space
func (v Viewport) RectToDisplay(r types.Rect) types.Rect {
	a := v.ToDisplay(types.Point{X: r.X1, Y: r.Y1})
	b := v.ToDisplay(types.Point{X: r.X2, Y: r.Y2})
	return types.R(a.X, a.Y, b.X, b.Y).Normalize()
}

// RectToImage maps both corners of a display rectangle to image space
func (v Viewport) RectToImage(r types.Rect) types.Rect {
	a := v.ToImage(types.Point{X: r.X1, Y: r.Y1})
	b := v.ToImage(types.Point{X: r.X2, Y: r.Y2})
	return types.R(a.X, a.Y, b.X, b.Y).Normalize()
}

// ToImage is the functional form of Viewport.ToImage
func ToImage(p types.Point, image, display types.Size, zoom float64) types.Point {
	return Viewport{Image: image, Display: display, Zoom: zoom}.ToImage(p)
}

// ToDisplay is the functional form of Viewport.ToDisplay
func ToDisplay(p types.Point, image, display types.Size, zoom float64) types.Point {
	return Viewport{Image: image, Display: display, Zoom: zoom}.ToDisplay(p)
}

// ClampZoom limits zoom to [min, max]. The mapper itself never clamps.
func ClampZoom(zoom, min, max float64) float64 {
	if zoom < min {
		return min
	}
	if zoom > max {
		return max
	}
	return zoom
}

// GridLines returns the display-space positions of vertical (xs) and
// horizontal (ys) grid lines spaced gridSize image pixels apart.
func (v Viewport) GridLines(gridSize int) (xs, ys []int) {
	if gridSize <= 0 || v.Scale() <= 0 {
		return nil, nil
	}
	step := int(float64(gridSize) * v.Scale())
	if step < 1 {
		step = 1
	}
	off := v.Offset()
	sz := v.DisplayedSize()
	for x := 0; x < sz.W; x += step {
		xs = append(xs, off.X+x)
	}
	for y := 0; y < sz.H; y += step {
		ys = append(ys, off.Y+y)
	}
	return xs, ys
}
