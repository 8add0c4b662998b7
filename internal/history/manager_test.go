package history

import (
	"testing"

	"github.com/bethropolis/tempo/internal/action"
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a minimal action that tracks how often it ran.
type counter struct {
	value *int
}

func (c *counter) Type() action.Type { return action.TypeMoveHitObjects }
func (c *counter) Perform()          { *c.value++ }
func (c *counter) Undo()             { *c.value-- }

func newCounters(n int, value *int) []action.Action {
	out := make([]action.Action, n)
	for i := range out {
		out[i] = &counter{value: value}
	}
	return out
}

func TestStackDiscipline(t *testing.T) {
	h := NewManager(nil, 0)
	value := 0
	acts := newCounters(3, &value)

	for _, a := range acts {
		h.Perform(a)
	}
	assert.Equal(t, 3, h.UndoCount())
	assert.Zero(t, h.RedoCount())
	assert.Equal(t, 3, value)

	require.True(t, h.Undo())
	assert.Equal(t, 2, h.UndoCount())
	assert.Equal(t, 1, h.RedoCount())
	assert.Same(t, acts[2], h.PeekRedo())
	assert.Equal(t, 2, value)

	h.Perform(&counter{value: &value})
	assert.Equal(t, 3, h.UndoCount())
	assert.Zero(t, h.RedoCount())
	assert.False(t, h.CanRedo())
}

func TestUndoRedoOnEmptyStacks(t *testing.T) {
	h := NewManager(nil, 0)
	assert.False(t, h.Undo())
	assert.False(t, h.Redo())
	assert.False(t, h.CanUndo())
	assert.Nil(t, h.PeekUndo())
	assert.Nil(t, h.PeekRedo())
}

func TestRedoPerformsAgain(t *testing.T) {
	h := NewManager(nil, 0)
	value := 0
	a := &counter{value: &value}
	h.Perform(a)
	h.Undo()
	require.True(t, h.Redo())
	assert.Equal(t, 1, value)
	assert.Same(t, a, h.PeekUndo())
	assert.False(t, h.Redo())
}

func TestDirtyTracking(t *testing.T) {
	h := NewManager(nil, 0)
	value := 0
	assert.False(t, h.HasUnsavedChanges())

	h.Perform(&counter{value: &value})
	assert.True(t, h.HasUnsavedChanges())

	h.MarkSaved("map.toml")
	assert.False(t, h.HasUnsavedChanges())

	h.Perform(&counter{value: &value})
	h.Perform(&counter{value: &value})
	assert.True(t, h.HasUnsavedChanges())

	h.Undo()
	assert.True(t, h.HasUnsavedChanges())
	h.Undo()
	assert.False(t, h.HasUnsavedChanges(), "back at the saved point")

	h.Undo()
	assert.True(t, h.HasUnsavedChanges(), "before the saved point")

	h.Redo()
	assert.False(t, h.HasUnsavedChanges())
}

func TestSaveAtEmptyStack(t *testing.T) {
	h := NewManager(nil, 0)
	value := 0
	h.Perform(&counter{value: &value})
	h.Undo()
	h.MarkSaved("")
	assert.False(t, h.HasUnsavedChanges())

	h.Redo()
	assert.True(t, h.HasUnsavedChanges())
}

func TestSavedStateLostWhenRedoBranchDiscarded(t *testing.T) {
	h := NewManager(nil, 0)
	value := 0
	saved := &counter{value: &value}
	h.Perform(saved)
	h.MarkSaved("")
	h.Undo()

	h.Perform(&counter{value: &value})
	assert.True(t, h.HasUnsavedChanges())
	h.Undo()
	assert.True(t, h.HasUnsavedChanges(), "saved action is gone with the redo stack")

	h.MarkSaved("")
	assert.False(t, h.HasUnsavedChanges())
}

func TestMaxHistoryEviction(t *testing.T) {
	h := NewManager(nil, 2)
	value := 0
	acts := newCounters(3, &value)
	for _, a := range acts {
		h.Perform(a)
	}
	assert.Equal(t, 2, h.UndoCount())

	h.Undo()
	h.Undo()
	assert.False(t, h.Undo())
	assert.Equal(t, 1, value, "oldest action can no longer be undone")
	assert.True(t, h.HasUnsavedChanges(), "loaded state is unreachable")

	h.MarkSaved("")
	assert.False(t, h.HasUnsavedChanges())
}

func TestSetMaxHistoryTrims(t *testing.T) {
	h := NewManager(nil, 10)
	value := 0
	for _, a := range newCounters(5, &value) {
		h.Perform(a)
	}
	h.MarkSaved("")
	h.SetMaxHistory(3)
	assert.Equal(t, 3, h.UndoCount())
	assert.Equal(t, 3, h.MaxHistory())
	assert.False(t, h.HasUnsavedChanges(), "saved action is still on top")
}

func TestClear(t *testing.T) {
	h := NewManager(nil, 0)
	value := 0
	h.Perform(&counter{value: &value})
	h.Perform(&counter{value: &value})
	h.Undo()

	h.Clear()
	assert.Zero(t, h.UndoCount())
	assert.Zero(t, h.RedoCount())
	assert.False(t, h.HasUnsavedChanges())
}

func TestHistoryChangedEvents(t *testing.T) {
	bus := event.NewManager()
	var got []event.HistoryChangedData
	bus.Subscribe(event.TypeHistoryChanged, func(e event.Event) bool {
		got = append(got, e.Data.(event.HistoryChangedData))
		return false
	})
	var saved []string
	bus.Subscribe(event.TypeMapSaved, func(e event.Event) bool {
		saved = append(saved, e.Data.(event.MapSavedData).Path)
		return false
	})

	m := beatmap.New(4)
	h := NewManager(bus, 0)
	h.Perform(action.NewPlaceHitObject(m, bus, &beatmap.HitObjectInfo{StartTime: 1, Lane: 1}))
	h.Undo()
	h.Redo()
	h.MarkSaved("out.toml")
	h.Clear()

	require.Len(t, got, 4)
	assert.Equal(t, event.HistoryChangedData{Op: event.OpPerform, Action: "Place Note", UndoCount: 1, Unsaved: true}, got[0])
	assert.Equal(t, event.HistoryChangedData{Op: event.OpUndo, Action: "Place Note", RedoCount: 1}, got[1])
	assert.Equal(t, event.OpRedo, got[2].Op)
	assert.Equal(t, event.HistoryChangedData{Op: event.OpClear}, got[3])
	assert.Equal(t, []string{"out.toml"}, saved)
}

func TestActionEventPrecedesHistoryChanged(t *testing.T) {
	bus := event.NewManager()
	var order []event.Type
	bus.SubscribeAll(func(e event.Event) bool {
		order = append(order, e.Type)
		return false
	}, event.TypeHitObjectPlaced, event.TypeHistoryChanged)

	m := beatmap.New(4)
	h := NewManager(bus, 0)
	h.Perform(action.NewPlaceHitObject(m, bus, &beatmap.HitObjectInfo{StartTime: 1, Lane: 1}))
	assert.Equal(t, []event.Type{event.TypeHitObjectPlaced, event.TypeHistoryChanged}, order)
}

func TestReentrantPerformPanics(t *testing.T) {
	bus := event.NewManager()
	m := beatmap.New(4)
	h := NewManager(bus, 0)

	bus.Subscribe(event.TypeHitObjectPlaced, func(e event.Event) bool {
		h.Perform(action.NewFlipHitObjects(m, bus, nil))
		return false
	})
	assert.Panics(t, func() {
		h.Perform(action.NewPlaceHitObject(m, bus, &beatmap.HitObjectInfo{StartTime: 1, Lane: 1}))
	})
}

func TestListenerMaySaveOnHistoryChanged(t *testing.T) {
	bus := event.NewManager()
	h := NewManager(bus, 0)
	bus.Subscribe(event.TypeHistoryChanged, func(e event.Event) bool {
		if e.Data.(event.HistoryChangedData).Op == event.OpPerform {
			h.MarkSaved("auto")
		}
		return false
	})
	value := 0
	assert.NotPanics(t, func() { h.Perform(&counter{value: &value}) })
	assert.False(t, h.HasUnsavedChanges())
}
