// Package boxes holds the mutable box list of the frame being annotated
// together with the current selection.
package boxes

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/menta2k/frame-annotator/pkg/types"
)

// DefaultMinSize is the smallest accepted box extent in pixels, per dimension
const DefaultMinSize = 5

var (
	// ErrTooSmall is returned when a drawn rectangle is below the minimum extent
	ErrTooSmall = errors.New("box too small")
	// ErrInvalidRect is returned for degenerate or inverted rectangles
	ErrInvalidRect = errors.New("invalid rectangle")
	// ErrIndexOutOfRange is returned when an index does not address a box
	ErrIndexOutOfRange = errors.New("box index out of range")
)

// Snapshot is a deep copy of the box list and selection
type Snapshot struct {
	Boxes     []types.Box
	Selection []int
}

// Clone returns a copy that shares no memory with s
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Boxes: copyBoxes(s.Boxes), Selection: copyInts(s.Selection)}
}

// Store is the per-frame collection of boxes. It is not safe for concurrent use.
type Store struct {
	size     types.Size
	minSize  int
	boxes    []types.Box
	selected map[int]struct{}
}

// New creates an empty store for an image of the given size
func New(size types.Size, minSize int) *Store {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return &Store{size: size, minSize: minSize, selected: map[int]struct{}{}}
}

// ImageSize returns the dimensions boxes are clamped to
func (s *Store) ImageSize() types.Size { return s.size }

// MinSize returns the minimum accepted extent
func (s *Store) MinSize() int { return s.minSize }

// Len returns the number of boxes
func (s *Store) Len() int { return len(s.boxes) }

// At returns the box at index i
func (s *Store) At(i int) (types.Box, bool) {
	if i < 0 || i >= len(s.boxes) {
		return types.Box{}, false
	}
	return s.boxes[i], true
}

// Boxes returns a copy of the box list
func (s *Store) Boxes() []types.Box {
	return copyBoxes(s.boxes)
}

// Replace swaps in a new box list, e.g. after decoding a label file.
// Selection is cleared.
func (s *Store) Replace(boxes []types.Box) {
	s.boxes = copyBoxes(boxes)
	s.clearSelection()
}

// HitTest returns the first box, in list order, containing p (edges inclusive)
func (s *Store) HitTest(p types.Point) (int, bool) {
	for i, b := range s.boxes {
		if b.Contains(p) {
			return i, true
		}
	}
	return -1, false
}

// Add validates and appends a box, then selects only the new box.
// Corners are normalized and clamped to the image before the size check.
func (s *Store) Add(r types.Rect, label string) (int, error) {
	r = r.Normalize().Clamp(s.size)
	if r.Width() < s.minSize || r.Height() < s.minSize {
		return -1, errors.Wrapf(ErrTooSmall, "%dx%d, minimum %d", r.Width(), r.Height(), s.minSize)
	}
	if !r.Valid() {
		return -1, errors.Wrapf(ErrInvalidRect, "%v", r)
	}
	s.boxes = append(s.boxes, types.Box{Rect: r, Label: label})
	idx := len(s.boxes) - 1
	s.clearSelection()
	s.selected[idx] = struct{}{}
	return idx, nil
}

// Delete removes the given indices in descending order and clears the selection.
// Duplicate and out-of-range indices are ignored.
func (s *Store) Delete(indices []int) int {
	uniq := map[int]struct{}{}
	for _, i := range indices {
		if i >= 0 && i < len(s.boxes) {
			uniq[i] = struct{}{}
		}
	}
	order := make([]int, 0, len(uniq))
	for i := range uniq {
		order = append(order, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))
	for _, i := range order {
		s.boxes = append(s.boxes[:i], s.boxes[i+1:]...)
	}
	s.clearSelection()
	return len(order)
}

// DeleteLast deletes the selection when there is one, otherwise the most
// recently added box.
func (s *Store) DeleteLast() int {
	if len(s.selected) > 0 {
		return s.Delete(s.Selection())
	}
	if len(s.boxes) == 0 {
		return 0
	}
	return s.Delete([]int{len(s.boxes) - 1})
}

// MoveSelection translates every selected box by (dx, dy). A box whose
// translated rectangle would leave the image is left where it is.
func (s *Store) MoveSelection(dx, dy int) int {
	moved := 0
	for i := range s.selected {
		next := s.boxes[i].Translate(dx, dy)
		if !next.Within(s.size) {
			continue
		}
		s.boxes[i].Rect = next
		moved++
	}
	return moved
}

// Resize shifts individual edges of one box. Edges are clamped to the image
// and the result must still be a valid rectangle.
func (s *Store) Resize(i, dx1, dy1, dx2, dy2 int) error {
	if i < 0 || i >= len(s.boxes) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d", i)
	}
	b := s.boxes[i].Rect
	next := types.R(b.X1+dx1, b.Y1+dy1, b.X2+dx2, b.Y2+dy2).Clamp(s.size)
	if !next.Valid() {
		return errors.Wrapf(ErrInvalidRect, "%v", next)
	}
	s.boxes[i].Rect = next
	return nil
}

// SetLabel assigns label to the given boxes and returns how many changed
func (s *Store) SetLabel(indices []int, label string) int {
	n := 0
	for _, i := range indices {
		if i < 0 || i >= len(s.boxes) || s.boxes[i].Label == label {
			continue
		}
		s.boxes[i].Label = label
		n++
	}
	return n
}

// Selection returns the selected indices in ascending order
func (s *Store) Selection() []int {
	out := make([]int, 0, len(s.selected))
	for i := range s.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsSelected reports whether index i is selected
func (s *Store) IsSelected(i int) bool {
	_, ok := s.selected[i]
	return ok
}

// SelectAll selects every box
func (s *Store) SelectAll() {
	for i := range s.boxes {
		s.selected[i] = struct{}{}
	}
}

// ClearSelection deselects everything
func (s *Store) ClearSelection() {
	s.clearSelection()
}

// SelectOnly replaces the selection with index i
func (s *Store) SelectOnly(i int) bool {
	if i < 0 || i >= len(s.boxes) {
		return false
	}
	s.clearSelection()
	s.selected[i] = struct{}{}
	return true
}

// ToggleSelect adds or removes index i without touching other selected boxes
func (s *Store) ToggleSelect(i int) bool {
	if i < 0 || i >= len(s.boxes) {
		return false
	}
	if _, ok := s.selected[i]; ok {
		delete(s.selected, i)
	} else {
		s.selected[i] = struct{}{}
	}
	return true
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Boxes: s.Boxes(), Selection: s.Selection()}
}

// Restore replaces the current state with a deep copy of snap
func (s *Store) Restore(snap Snapshot) {
	s.boxes = copyBoxes(snap.Boxes)
	s.clearSelection()
	for _, i := range snap.Selection {
		if i >= 0 && i < len(s.boxes) {
			s.selected[i] = struct{}{}
		}
	}
}

func (s *Store) clearSelection() {
	s.selected = map[int]struct{}{}
}

func copyBoxes(in []types.Box) []types.Box {
	if len(in) == 0 {
		return []types.Box{}
	}
	out := make([]types.Box, len(in))
	copy(out, in)
	return out
}

func copyInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
