// Package history implements per-frame undo and redo over box store snapshots.
//
// Two unbounded stacks hold full deep copies of the box list and selection.
// Recording a new action invalidates the redo branch, and the whole history
// is dropped whenever the session moves to another frame.
package history

import (
	"github.com/menta2k/frame-annotator/pkg/boxes"
)

// Action identifies the kind of mutation that was recorded
type Action int

const (
	ActionAdd Action = iota
	ActionDelete
	ActionMove
	ActionResize
	ActionRelabel
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionDelete:
		return "delete"
	case ActionMove:
		return "move"
	case ActionResize:
		return "resize"
	case ActionRelabel:
		return "relabel"
	default:
		return "unknown"
	}
}

// Entry is one recorded state together with the action that followed it
type Entry struct {
	Action   Action
	Snapshot boxes.Snapshot
}

// Stack holds the undo and redo branches
type Stack struct {
	undo []Entry
	redo []Entry
}

// New returns an empty history
func New() *Stack {
	return &Stack{}
}

// Record stores the state taken immediately before a mutation and clears redo
func (s *Stack) Record(action Action, snap boxes.Snapshot) {
	s.undo = append(s.undo, Entry{Action: action, Snapshot: snap.Clone()})
	s.redo = nil
}

// Undo restores the most recent recorded state into store. The state being
// replaced is pushed onto the redo branch.
func (s *Stack) Undo(store *boxes.Store) (Action, bool) {
	if len(s.undo) == 0 {
		return 0, false
	}
	e := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, Entry{Action: e.Action, Snapshot: store.Snapshot()})
	store.Restore(e.Snapshot)
	return e.Action, true
}

// Redo re-applies the most recently undone state
func (s *Stack) Redo(store *boxes.Store) (Action, bool) {
	if len(s.redo) == 0 {
		return 0, false
	}
	e := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, Entry{Action: e.Action, Snapshot: store.Snapshot()})
	store.Restore(e.Snapshot)
	return e.Action, true
}

// Reset drops both branches
func (s *Stack) Reset() {
	s.undo = nil
	s.redo = nil
}

// CanUndo reports whether Undo has an entry to restore
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo has an entry to restore
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// UndoDepth is the number of undoable entries
func (s *Stack) UndoDepth() int { return len(s.undo) }

// RedoDepth is the number of redoable entries
func (s *Stack) RedoDepth() int { return len(s.redo) }
