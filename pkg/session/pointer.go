package session

import (
	"math"

	"github.com/menta2k/frame-annotator/pkg/boxes"
	"github.com/menta2k/frame-annotator/pkg/geometry"
	"github.com/menta2k/frame-annotator/pkg/history"
	"github.com/menta2k/frame-annotator/pkg/types"
)

type viewState struct {
	display types.Size
	zoom    float64
	grid    bool
}

type dragMode int

const (
	dragNone dragMode = iota
	dragDrawing
	dragMoving
)

type pointerState struct {
	mode  dragMode
	start types.Point
	last  types.Point
	hover int
	// before holds the state at drag start; recorded once the drag moves a box
	before   boxes.Snapshot
	recorded bool
}

// SetDisplaySize sets the size of the surface the frame is shown on
func (s *Session) SetDisplaySize(size types.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.display = size
}

// Viewport returns the mapping between display and image coordinates
func (s *Session) Viewport() geometry.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewportLocked()
}

func (s *Session) viewportLocked() geometry.Viewport {
	display := s.view.display
	if display.Empty() {
		display = s.frame.Size
	}
	return geometry.Viewport{Image: s.frame.Size, Display: display, Zoom: s.view.zoom}
}

// ZoomIn raises zoom by one step and returns the new value
func (s *Session) ZoomIn() float64 { return s.zoomBy(1) }

// ZoomOut lowers zoom by one step and returns the new value
func (s *Session) ZoomOut() float64 { return s.zoomBy(-1) }

// ZoomReset returns to fit-to-window
func (s *Session) ZoomReset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.zoom = 1.0
	return s.view.zoom
}

// Zoom returns the current zoom factor
func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.zoom
}

func (s *Session) zoomBy(dir float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.view.zoom + dir*s.settings.ZoomStep
	// keep steps on a clean decimal grid
	z = math.Round(z*1000) / 1000
	s.view.zoom = geometry.ClampZoom(z, s.settings.ZoomMin, s.settings.ZoomMax)
	return s.view.zoom
}

// ToggleGrid flips the grid overlay and returns the new state
func (s *Session) ToggleGrid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.grid = !s.view.grid
	return s.view.grid
}

// GridLines returns display-space grid positions, or nil when the grid is off
func (s *Session) GridLines() (xs, ys []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.view.grid || s.state != StateFrameLoaded {
		return nil, nil
	}
	return s.viewportLocked().GridLines(s.settings.GridSize)
}

// PointerDown starts an interaction at display point p. With toggle set, a
// click on a box adds it to or removes it from the selection. A plain click
// on a box selects it and starts dragging the selection; a click on empty
// space starts drawing a new box.
func (s *Session) PointerDown(p types.Point, toggle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editableLocked() != nil {
		return
	}
	img := s.viewportLocked().ToImage(p)
	idx, hit := s.store.HitTest(img)

	switch {
	case hit && toggle:
		s.store.ToggleSelect(idx)
		s.pointer.mode = dragNone
	case hit:
		if !s.store.IsSelected(idx) {
			s.store.SelectOnly(idx)
		}
		s.pointer.mode = dragMoving
		s.pointer.last = img
		s.pointer.before = s.store.Snapshot()
		s.pointer.recorded = false
	default:
		if !toggle {
			s.store.ClearSelection()
		}
		s.pointer.mode = dragDrawing
		s.pointer.start = img
		s.pointer.last = img
	}
}

// PointerMove continues a drag, or updates the hovered box
func (s *Session) PointerMove(p types.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editableLocked() != nil {
		return
	}
	img := s.viewportLocked().ToImage(p)

	switch s.pointer.mode {
	case dragMoving:
		dx, dy := img.X-s.pointer.last.X, img.Y-s.pointer.last.Y
		if dx == 0 && dy == 0 {
			return
		}
		if s.store.MoveSelection(dx, dy) > 0 {
			if !s.pointer.recorded {
				s.history.Record(history.ActionMove, s.pointer.before)
				s.pointer.recorded = true
			}
			s.dirty = true
		}
		s.pointer.last = img
	case dragDrawing:
		s.pointer.last = img
	default:
		idx, hit := s.store.HitTest(img)
		if !hit {
			idx = -1
		}
		s.pointer.hover = idx
	}
}

// PointerUp finishes the interaction. When drawing, the box is added with the
// current label and its index returned; a release too close to the press is
// rejected like any undersized box.
func (s *Session) PointerUp(p types.Point) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return -1, err
	}
	img := s.viewportLocked().ToImage(p)
	mode := s.pointer.mode
	s.pointer.mode = dragNone

	switch mode {
	case dragDrawing:
		r := types.R(s.pointer.start.X, s.pointer.start.Y, img.X, img.Y)
		return s.addBoxLocked(r, "")
	case dragMoving:
		if s.pointer.recorded {
			s.changed()
		}
	}
	return -1, nil
}

// Hover returns the index of the box under the pointer, or -1
func (s *Session) Hover() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.hover
}

// View is everything needed to draw the loaded frame
type View struct {
	Viewport geometry.Viewport
	Boxes    []types.Box
	Selected map[int]bool
	Hover    int
	// Draft is the rectangle being drawn, in image coordinates
	Draft    types.Rect
	Drafting bool
	Grid     bool
	GridSize int
}

// View returns a render snapshot of the loaded frame
func (s *Session) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFrameLoaded {
		return View{}, ErrNoFrame
	}
	v := View{
		Viewport: s.viewportLocked(),
		Boxes:    s.store.Boxes(),
		Selected: map[int]bool{},
		Hover:    s.pointer.hover,
		Grid:     s.view.grid,
		GridSize: s.settings.GridSize,
	}
	for _, i := range s.store.Selection() {
		v.Selected[i] = true
	}
	if s.pointer.mode == dragDrawing {
		v.Drafting = true
		v.Draft = types.R(s.pointer.start.X, s.pointer.start.Y, s.pointer.last.X, s.pointer.last.Y).Normalize()
	}
	return v, nil
}
