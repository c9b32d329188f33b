package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/frame-annotator/pkg/boxes"
	"github.com/menta2k/frame-annotator/pkg/types"
)

func TestUndoRedoInverse(t *testing.T) {
	store := boxes.New(types.Size{W: 200, H: 200}, boxes.DefaultMinSize)
	h := New()
	initial := store.Snapshot()

	// op1: add
	h.Record(ActionAdd, store.Snapshot())
	_, err := store.Add(types.R(10, 10, 40, 40), "cat")
	require.NoError(t, err)

	// op2: add
	h.Record(ActionAdd, store.Snapshot())
	_, err = store.Add(types.R(100, 100, 150, 150), "dog")
	require.NoError(t, err)

	// op3: move
	h.Record(ActionMove, store.Snapshot())
	store.MoveSelection(5, 5)

	// op4: delete
	h.Record(ActionDelete, store.Snapshot())
	store.Delete([]int{0})

	final := store.Snapshot()
	assert.Equal(t, 4, h.UndoDepth())

	for i := 0; i < 4; i++ {
		_, ok := h.Undo(store)
		require.True(t, ok)
	}
	assert.Equal(t, initial, store.Snapshot())
	assert.False(t, h.CanUndo())
	assert.Equal(t, 4, h.RedoDepth())

	for i := 0; i < 4; i++ {
		_, ok := h.Redo(store)
		require.True(t, ok)
	}
	assert.Equal(t, final, store.Snapshot())
	assert.False(t, h.CanRedo())
}

func TestRecordClearsRedo(t *testing.T) {
	store := boxes.New(types.Size{W: 100, H: 100}, boxes.DefaultMinSize)
	h := New()

	h.Record(ActionAdd, store.Snapshot())
	store.Add(types.R(0, 0, 20, 20), "a")
	h.Undo(store)
	require.True(t, h.CanRedo())

	h.Record(ActionAdd, store.Snapshot())
	assert.False(t, h.CanRedo())
}

func TestUndoOnEmptyIsNoop(t *testing.T) {
	store := boxes.New(types.Size{W: 100, H: 100}, boxes.DefaultMinSize)
	h := New()
	_, ok := h.Undo(store)
	assert.False(t, ok)
	_, ok = h.Redo(store)
	assert.False(t, ok)
}

func TestRecordedSnapshotIsNotAliased(t *testing.T) {
	store := boxes.New(types.Size{W: 100, H: 100}, boxes.DefaultMinSize)
	store.Add(types.R(0, 0, 20, 20), "a")

	snap := store.Snapshot()
	h := New()
	h.Record(ActionRelabel, snap)
	snap.Boxes[0].Label = "mutated"
	store.SetLabel([]int{0}, "b")

	action, ok := h.Undo(store)
	require.True(t, ok)
	assert.Equal(t, ActionRelabel, action)
	b, _ := store.At(0)
	assert.Equal(t, "a", b.Label)
}

func TestReset(t *testing.T) {
	store := boxes.New(types.Size{W: 100, H: 100}, boxes.DefaultMinSize)
	h := New()
	h.Record(ActionAdd, store.Snapshot())
	h.Record(ActionAdd, store.Snapshot())
	h.Undo(store)
	h.Reset()
	assert.Equal(t, 0, h.UndoDepth())
	assert.Equal(t, 0, h.RedoDepth())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "move", ActionMove.String())
	assert.Equal(t, "unknown", Action(42).String())
}
