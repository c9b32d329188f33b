package session

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/frame-annotator/pkg/boxes"
	"github.com/menta2k/frame-annotator/pkg/history"
	"github.com/menta2k/frame-annotator/pkg/labelfmt"
	"github.com/menta2k/frame-annotator/pkg/types"
)

// Boxes returns a copy of the loaded frame's boxes
func (s *Session) Boxes() []types.Box {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFrameLoaded {
		return nil
	}
	return s.store.Boxes()
}

// Selection returns the selected box indices in ascending order
func (s *Session) Selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFrameLoaded {
		return nil
	}
	return s.store.Selection()
}

// AddBox adds a box in image coordinates. An empty label means the current
// label. The label must be part of the vocabulary.
func (s *Session) AddBox(r types.Rect, label string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addBoxLocked(r, label)
}

func (s *Session) addBoxLocked(r types.Rect, label string) (int, error) {
	if err := s.editableLocked(); err != nil {
		return -1, err
	}
	if label == "" {
		label = s.currentLabel
	}
	if label == "" {
		return -1, ErrNoLabel
	}
	if !s.vocab.Contains(label) {
		return -1, errors.Wrapf(labelfmt.ErrUnknownLabel, "%q", label)
	}
	before := s.store.Snapshot()
	idx, err := s.store.Add(r, label)
	if err != nil {
		return -1, err
	}
	s.committed(history.ActionAdd, before)
	return idx, nil
}

// DeleteSelected removes every selected box
func (s *Session) DeleteSelected() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return 0, err
	}
	sel := s.store.Selection()
	if len(sel) == 0 {
		return 0, nil
	}
	before := s.store.Snapshot()
	n := s.store.Delete(sel)
	s.committed(history.ActionDelete, before)
	return n, nil
}

// DeleteLast removes the selection if any, otherwise the newest box
func (s *Session) DeleteLast() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return 0, err
	}
	if s.store.Len() == 0 {
		return 0, nil
	}
	before := s.store.Snapshot()
	n := s.store.DeleteLast()
	s.committed(history.ActionDelete, before)
	return n, nil
}

// MoveSelection translates the selected boxes by (dx, dy) image pixels. Boxes
// that would leave the image stay put.
func (s *Session) MoveSelection(dx, dy int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return 0, err
	}
	before := s.store.Snapshot()
	n := s.store.MoveSelection(dx, dy)
	if n > 0 {
		s.committed(history.ActionMove, before)
	}
	return n, nil
}

// ResizeBox shifts the edges of box i
func (s *Session) ResizeBox(i, dx1, dy1, dx2, dy2 int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	before := s.store.Snapshot()
	if err := s.store.Resize(i, dx1, dy1, dx2, dy2); err != nil {
		return err
	}
	s.committed(history.ActionResize, before)
	return nil
}

// Relabel assigns label to every selected box
func (s *Session) Relabel(label string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return 0, err
	}
	if !s.vocab.Contains(label) {
		return 0, errors.Wrapf(labelfmt.ErrUnknownLabel, "%q", label)
	}
	before := s.store.Snapshot()
	n := s.store.SetLabel(s.store.Selection(), label)
	if n > 0 {
		s.committed(history.ActionRelabel, before)
	}
	return n, nil
}

// Undo reverts the last edit of the current frame
func (s *Session) Undo() (history.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editableLocked() != nil {
		return 0, false
	}
	a, ok := s.history.Undo(s.store)
	if ok {
		s.changed()
	}
	return a, ok
}

// Redo re-applies the last undone edit
func (s *Session) Redo() (history.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editableLocked() != nil {
		return 0, false
	}
	a, ok := s.history.Redo(s.store)
	if ok {
		s.changed()
	}
	return a, ok
}

// CanUndo reports whether an edit of the current frame can be reverted
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether an undone edit can be re-applied
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// editableLocked rejects edits on a closed session or without a frame
func (s *Session) editableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.state != StateFrameLoaded {
		return ErrNoFrame
	}
	return nil
}

// committed records the pre-mutation snapshot and marks the frame dirty
func (s *Session) committed(action history.Action, before boxes.Snapshot) {
	s.history.Record(action, before)
	s.changed()
}

// changed marks the frame dirty and, with SaveOnEdit, persists right away.
// A failed write keeps the frame dirty so the next persist retries.
func (s *Session) changed() {
	s.dirty = true
	if !s.settings.SaveOnEdit {
		return
	}
	if err := s.persistLocked(true); err != nil {
		s.logger.Error("save after edit failed", zap.Int("frame", s.index), zap.Error(err))
	}
}

// SelectAll selects every box
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFrameLoaded {
		s.store.SelectAll()
	}
}

// ClearSelection deselects everything
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFrameLoaded {
		s.store.ClearSelection()
	}
}

// ToggleSelect adds or removes box i from the selection
func (s *Session) ToggleSelect(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateFrameLoaded && s.store.ToggleSelect(i)
}

// SelectOnly makes box i the only selected box
func (s *Session) SelectOnly(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateFrameLoaded && s.store.SelectOnly(i)
}

// Labels returns the vocabulary in class id order
func (s *Session) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vocab.Names()
}

// AddLabel appends a label to the vocabulary and saves the descriptor
func (s *Session) AddLabel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.vocab.Add(name); err != nil {
		return err
	}
	if s.currentLabel == "" {
		s.currentLabel = s.vocab.Names()[0]
	}
	return s.saveDescriptorLocked()
}

// RemoveLabel drops a label from the vocabulary. Existing label files keep
// their numeric class ids, so every id above the removed one will decode to a
// different name; the returned warning says so. Boxes on the loaded frame that
// use the removed label are skipped when the frame is next written.
func (s *Session) RemoveLabel(name string) (types.Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.Warning{}, ErrClosed
	}
	idx, err := s.vocab.Remove(name)
	if err != nil {
		return types.Warning{}, err
	}
	if s.currentLabel == name {
		s.currentLabel = ""
		if s.vocab.Len() > 0 {
			s.currentLabel = s.vocab.Names()[0]
		}
	}
	w := types.Warning{Reason: fmt.Sprintf(
		"removed %q (class %d): label files written earlier now map class ids above %d to different labels", name, idx, idx)}
	s.logger.Warn("label removed", zap.String("label", name), zap.Int("class_id", idx))
	return w, s.saveDescriptorLocked()
}

// SetCurrentLabel chooses the label used for newly drawn boxes
func (s *Session) SetCurrentLabel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.vocab.Contains(name) {
		return errors.Wrapf(labelfmt.ErrUnknownLabel, "%q", name)
	}
	s.currentLabel = name
	return nil
}

// CurrentLabel returns the label used for newly drawn boxes
func (s *Session) CurrentLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLabel
}
