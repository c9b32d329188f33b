package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/frame-annotator/pkg/types"
)

func TestScaleComposesFitAndZoom(t *testing.T) {
	v := NewViewport(types.Size{W: 400, H: 200}, types.Size{W: 800, H: 800})
	assert.InDelta(t, 2.0, v.FitScale(), 1e-9)

	v.Zoom = 1.5
	assert.InDelta(t, 3.0, v.Scale(), 1e-9)
}

func TestOffsetCentersImage(t *testing.T) {
	v := NewViewport(types.Size{W: 400, H: 200}, types.Size{W: 800, H: 800})
	assert.Equal(t, types.Point{X: 0, Y: 200}, v.Offset())

	v.Zoom = 0.5
	assert.Equal(t, types.Point{X: 200, Y: 300}, v.Offset())
}

func TestToImageAndBack(t *testing.T) {
	v := NewViewport(types.Size{W: 400, H: 200}, types.Size{W: 800, H: 800})

	img := v.ToImage(types.Point{X: 200, Y: 300})
	assert.Equal(t, types.Point{X: 100, Y: 50}, img)

	disp := v.ToDisplay(types.Point{X: 100, Y: 50})
	assert.Equal(t, types.Point{X: 200, Y: 300}, disp)
}

func TestToImageTruncatesTowardZero(t *testing.T) {
	v := NewViewport(types.Size{W: 100, H: 100}, types.Size{W: 200, H: 200})
	// scale 2, offset 0: -1/2 truncates to 0, 3/2 truncates to 1
	assert.Equal(t, types.Point{X: 0, Y: 1}, v.ToImage(types.Point{X: -1, Y: 3}))
}

func TestRoundTripDriftIsAtMostOnePixel(t *testing.T) {
	v := Viewport{Image: types.Size{W: 200, H: 100}, Display: types.Size{W: 300, H: 150}, Zoom: 1.0}
	for x := 0; x < 200; x++ {
		p := types.Point{X: x, Y: x / 2}
		back := v.ToImage(v.ToDisplay(p))
		if math.Abs(float64(back.X-p.X)) > 1 || math.Abs(float64(back.Y-p.Y)) > 1 {
			t.Fatalf("round trip of %v drifted to %v", p, back)
		}
	}
}

func TestFunctionalForms(t *testing.T) {
	img := types.Size{W: 640, H: 480}
	disp := types.Size{W: 1280, H: 960}
	p := ToImage(types.Point{X: 640, Y: 480}, img, disp, 1.0)
	assert.Equal(t, types.Point{X: 320, Y: 240}, p)
	assert.Equal(t, types.Point{X: 640, Y: 480}, ToDisplay(p, img, disp, 1.0))
}

func TestRectMapping(t *testing.T) {
	v := NewViewport(types.Size{W: 100, H: 100}, types.Size{W: 200, H: 200})
	d := v.RectToDisplay(types.R(10, 20, 30, 40))
	assert.Equal(t, types.R(20, 40, 60, 80), d)
	assert.Equal(t, types.R(10, 20, 30, 40), v.RectToImage(types.R(60, 80, 20, 40)))
}

func TestEmptySizesDoNotPanic(t *testing.T) {
	v := NewViewport(types.Size{}, types.Size{W: 100, H: 100})
	assert.Equal(t, 0.0, v.Scale())
	assert.Equal(t, types.Point{}, v.ToImage(types.Point{X: 5, Y: 5}))
	xs, ys := v.GridLines(10)
	assert.Nil(t, xs)
	assert.Nil(t, ys)
}

func TestClampZoom(t *testing.T) {
	assert.Equal(t, DefaultMinZoom, ClampZoom(0.1, DefaultMinZoom, DefaultMaxZoom))
	assert.Equal(t, DefaultMaxZoom, ClampZoom(9, DefaultMinZoom, DefaultMaxZoom))
	assert.Equal(t, 1.3, ClampZoom(1.3, DefaultMinZoom, DefaultMaxZoom))
}

func TestGridLines(t *testing.T) {
	v := NewViewport(types.Size{W: 100, H: 60}, types.Size{W: 100, H: 60})
	xs, ys := v.GridLines(50)
	assert.Equal(t, []int{0, 50}, xs)
	assert.Equal(t, []int{0, 50}, ys)

	v.Zoom = 2
	// scaled image 200x120 centered on a 100x60 display: offset (-50,-30)
	xs, _ = v.GridLines(50)
	assert.Equal(t, []int{-50, 50}, xs)
}
