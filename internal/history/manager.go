// Package history sequences actions on a single linear undo/redo timeline and
// tracks whether the map differs from its last saved state.
package history

import (
	"github.com/bethropolis/tempo/internal/action"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/logger"
)

const DefaultMaxHistory = 1000

// Manager owns the undo and redo stacks.
//
// It is not safe for concurrent use. Calling Perform, Undo or Redo while an
// action is running (from inside the action or from one of its event
// listeners) panics.
type Manager struct {
	events     *event.Manager
	undo       []action.Action
	redo       []action.Action
	maxHistory int

	lastSave action.Action
	// lostSave is set once the saved state can no longer be reached by
	// undo/redo, e.g. after its action was evicted.
	lostSave bool

	running bool
}

// NewManager creates a history manager that reports on events.
// maxHistory <= 0 selects DefaultMaxHistory.
func NewManager(events *event.Manager, maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{
		events:     events,
		maxHistory: maxHistory,
	}
}

// Perform runs a, pushes it onto the undo stack and clears the redo stack.
func (m *Manager) Perform(a action.Action) {
	if a == nil {
		logger.Warnf("History: ignoring nil action")
		return
	}
	m.run(a.Perform)

	if m.lastSave != nil && contains(m.redo, m.lastSave) {
		m.lostSave = true
	}
	clear(m.redo)
	m.redo = m.redo[:0]

	m.undo = append(m.undo, a)
	m.evict()

	logger.DebugTagf("history", "Performed %v. Undo: %d", a.Type(), len(m.undo))
	m.changed(event.OpPerform, a)
}

// Undo reverts the most recent action. It reports false when there is
// nothing to undo.
func (m *Manager) Undo() bool {
	if len(m.undo) == 0 {
		logger.DebugTagf("history", "Nothing to undo.")
		return false
	}
	a := m.undo[len(m.undo)-1]
	m.run(a.Undo)

	m.undo[len(m.undo)-1] = nil
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, a)

	logger.DebugTagf("history", "Undid %v. Undo: %d, Redo: %d", a.Type(), len(m.undo), len(m.redo))
	m.changed(event.OpUndo, a)
	return true
}

// Redo performs the most recently undone action again. It reports false when
// there is nothing to redo.
func (m *Manager) Redo() bool {
	if len(m.redo) == 0 {
		logger.DebugTagf("history", "Nothing to redo.")
		return false
	}
	a := m.redo[len(m.redo)-1]
	m.run(a.Perform)

	m.redo[len(m.redo)-1] = nil
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, a)

	logger.DebugTagf("history", "Redid %v. Undo: %d, Redo: %d", a.Type(), len(m.undo), len(m.redo))
	m.changed(event.OpRedo, a)
	return true
}

// HasUnsavedChanges reports whether the map differs from its last saved state.
func (m *Manager) HasUnsavedChanges() bool {
	if m.lostSave {
		return true
	}
	if len(m.undo) == 0 {
		return m.lastSave != nil
	}
	return m.undo[len(m.undo)-1] != m.lastSave
}

// MarkSaved records the current state as saved to path.
func (m *Manager) MarkSaved(path string) {
	m.lastSave = m.PeekUndo()
	m.lostSave = false
	logger.DebugTagf("history", "Marked saved at %q (undo depth %d)", path, len(m.undo))
	m.events.Dispatch(event.TypeMapSaved, event.MapSavedData{Path: path})
}

// Clear empties both stacks and treats the current state as saved. Call it
// after loading a map.
func (m *Manager) Clear() {
	clear(m.undo)
	clear(m.redo)
	m.undo = m.undo[:0]
	m.redo = m.redo[:0]
	m.lastSave = nil
	m.lostSave = false
	logger.DebugTagf("history", "Cleared.")
	m.changed(event.OpClear, nil)
}

// CanUndo returns true if there are actions that can be undone.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo returns true if there are actions that can be redone.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

func (m *Manager) UndoCount() int { return len(m.undo) }
func (m *Manager) RedoCount() int { return len(m.redo) }

// PeekUndo returns the action Undo would revert, or nil.
func (m *Manager) PeekUndo() action.Action {
	if len(m.undo) == 0 {
		return nil
	}
	return m.undo[len(m.undo)-1]
}

// PeekRedo returns the action Redo would perform, or nil.
func (m *Manager) PeekRedo() action.Action {
	if len(m.redo) == 0 {
		return nil
	}
	return m.redo[len(m.redo)-1]
}

// MaxHistory returns the undo stack limit.
func (m *Manager) MaxHistory() int { return m.maxHistory }

// SetMaxHistory changes the undo stack limit, evicting the oldest actions if needed.
func (m *Manager) SetMaxHistory(n int) {
	if n <= 0 {
		n = DefaultMaxHistory
	}
	m.maxHistory = n
	m.evict()
}

func (m *Manager) run(fn func()) {
	if m.running {
		panic("history: Perform/Undo/Redo called while an action is running")
	}
	m.running = true
	defer func() { m.running = false }()
	fn()
}

// evict drops the oldest actions beyond maxHistory.
func (m *Manager) evict() {
	excess := len(m.undo) - m.maxHistory
	if excess <= 0 {
		return
	}
	// The saved state was at or below the evicted entries.
	if m.lastSave == nil || contains(m.undo[:excess], m.lastSave) {
		m.lostSave = true
	}
	clear(m.undo[:excess])
	m.undo = append(m.undo[:0], m.undo[excess:]...)
	logger.DebugTagf("history", "Evicted %d oldest actions", excess)
}

func (m *Manager) changed(op event.HistoryOp, a action.Action) {
	data := event.HistoryChangedData{
		Op:        op,
		UndoCount: len(m.undo),
		RedoCount: len(m.redo),
		Unsaved:   m.HasUnsavedChanges(),
	}
	if a != nil {
		data.Action = a.Type().String()
	}
	m.events.Dispatch(event.TypeHistoryChanged, data)
}

func contains(stack []action.Action, a action.Action) bool {
	for _, s := range stack {
		if s == a {
			return true
		}
	}
	return false
}
