package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/frame-annotator/pkg/types"
)

func TestPointerDrawsBox(t *testing.T) {
	s, _ := newTestSession(t, 1, nil)
	_, err := s.Enter(0)
	require.NoError(t, err)
	// 400x200 frame on an 800x400 display: scale 2, no offset
	s.SetDisplaySize(types.Size{W: 800, H: 400})

	s.PointerDown(types.Point{X: 120, Y: 100}, false)
	s.PointerMove(types.Point{X: 20, Y: 20})
	v, err := s.View()
	require.NoError(t, err)
	assert.True(t, v.Drafting)
	assert.Equal(t, types.R(10, 10, 60, 50), v.Draft)

	idx, err := s.PointerUp(types.Point{X: 20, Y: 20})
	require.NoError(t, err)
	b := s.Boxes()[idx]
	assert.Equal(t, types.R(10, 10, 60, 50), b.Rect)
	assert.Equal(t, "dog", b.Label)
	assert.Equal(t, []int{idx}, s.Selection())
}

func TestPointerClickWithoutDragIsRejected(t *testing.T) {
	s, _ := newTestSession(t, 1, nil)
	_, err := s.Enter(0)
	require.NoError(t, err)

	s.PointerDown(types.Point{X: 50, Y: 50}, false)
	_, err = s.PointerUp(types.Point{X: 52, Y: 52})
	assert.Error(t, err)
	assert.Empty(t, s.Boxes())
	assert.False(t, s.CanUndo())
}

func TestPointerDragMovesSelectionWithOneHistoryEntry(t *testing.T) {
	s, _ := newTestSession(t, 1, nil)
	_, err := s.Enter(0)
	require.NoError(t, err)
	_, err = s.AddBox(types.R(10, 10, 60, 60), "dog")
	require.NoError(t, err)
	s.ClearSelection()

	s.PointerDown(types.Point{X: 30, Y: 30}, false)
	assert.Equal(t, []int{0}, s.Selection())
	s.PointerMove(types.Point{X: 35, Y: 30})
	s.PointerMove(types.Point{X: 40, Y: 35})
	_, err = s.PointerUp(types.Point{X: 40, Y: 35})
	require.NoError(t, err)

	assert.Equal(t, types.R(20, 15, 70, 65), s.Boxes()[0].Rect)

	_, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, types.R(10, 10, 60, 60), s.Boxes()[0].Rect)
	_, ok = s.Undo()
	require.True(t, ok, "the add is still on the stack")
	assert.Empty(t, s.Boxes())
}

func TestPointerToggleSelect(t *testing.T) {
	s, _ := newTestSession(t, 1, nil)
	_, err := s.Enter(0)
	require.NoError(t, err)
	_, err = s.AddBox(types.R(10, 10, 60, 60), "dog")
	require.NoError(t, err)
	_, err = s.AddBox(types.R(100, 100, 150, 150), "cat")
	require.NoError(t, err)

	s.PointerDown(types.Point{X: 20, Y: 20}, true)
	_, err = s.PointerUp(types.Point{X: 20, Y: 20})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, s.Selection())

	s.PointerDown(types.Point{X: 120, Y: 120}, true)
	assert.Equal(t, []int{0}, s.Selection())
}

func TestPointerHover(t *testing.T) {
	s, _ := newTestSession(t, 1, nil)
	_, err := s.Enter(0)
	require.NoError(t, err)
	_, err = s.AddBox(types.R(10, 10, 60, 60), "dog")
	require.NoError(t, err)

	s.PointerMove(types.Point{X: 20, Y: 20})
	assert.Equal(t, 0, s.Hover())
	s.PointerMove(types.Point{X: 200, Y: 20})
	assert.Equal(t, -1, s.Hover())
}

func TestZoomIsClamped(t *testing.T) {
	s, _ := newTestSession(t, 1, nil)
	for i := 0; i < 5; i++ {
		s.ZoomIn()
	}
	assert.InDelta(t, 1.5, s.Zoom(), 1e-9)

	for i := 0; i < 100; i++ {
		s.ZoomOut()
	}
	assert.Equal(t, 0.5, s.Zoom())

	for i := 0; i < 100; i++ {
		s.ZoomIn()
	}
	assert.Equal(t, 5.0, s.Zoom())
	assert.Equal(t, 1.0, s.ZoomReset())
}

func TestGridLines(t *testing.T) {
	s, _ := newTestSession(t, 1, func(st *Settings) { st.GridSize = 100 })
	_, err := s.Enter(0)
	require.NoError(t, err)

	xs, _ := s.GridLines()
	assert.Nil(t, xs)

	require.True(t, s.ToggleGrid())
	xs, ys := s.GridLines()
	assert.Equal(t, []int{0, 100, 200, 300}, xs)
	assert.Equal(t, []int{0, 100}, ys)
}
