package types

import "fmt"

// Point is a position in either display or image pixel space
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size holds the pixel dimensions of an image or a display surface
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether either dimension is not positive
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect is an axis-aligned rectangle in image pixel space.
// A valid rectangle satisfies X1 < X2 and Y1 < Y2.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// R is shorthand for building a Rect from two corners
func R(x1, y1, x2, y2 int) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Normalize orders the corners so that (X1,Y1) is top-left
func (r Rect) Normalize() Rect {
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// Width returns X2-X1
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns Y2-Y1
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Valid reports whether the rectangle is non-degenerate and not inverted
func (r Rect) Valid() bool {
	return r.X1 < r.X2 && r.Y1 < r.Y2
}

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Point) bool {
	return r.X1 <= p.X && p.X <= r.X2 && r.Y1 <= p.Y && p.Y <= r.Y2
}

// Translate shifts every edge by (dx, dy)
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Clamp limits every coordinate to [0, W-1] x [0, H-1]
func (r Rect) Clamp(size Size) Rect {
	return Rect{
		X1: clampInt(r.X1, 0, size.W-1),
		Y1: clampInt(r.Y1, 0, size.H-1),
		X2: clampInt(r.X2, 0, size.W-1),
		Y2: clampInt(r.Y2, 0, size.H-1),
	}
}

// Within reports whether every coordinate already lies in [0, W-1] x [0, H-1]
func (r Rect) Within(size Size) bool {
	return r.X1 >= 0 && r.Y1 >= 0 && r.X2 < size.W && r.Y2 < size.H
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// Box is a labeled rectangle. The label may transiently reference a name
// that is no longer part of the vocabulary.
type Box struct {
	Rect
	Label string `json:"label"`
}

// NormBox is the normalized-format representation of a box: a class index
// plus center and size expressed as fractions of the image dimensions.
type NormBox struct {
	ClassID int     `json:"class_id"`
	XCenter float64 `json:"x_center"`
	YCenter float64 `json:"y_center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Warning describes a recoverable data problem, such as a skipped label line
type Warning struct {
	Line   int    `json:"line,omitempty"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s (%q)", w.Line, w.Reason, w.Text)
	}
	return w.Reason
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
