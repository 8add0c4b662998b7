// Package editor is the editing session around one map: it validates user
// input, builds actions and runs them through the history manager, and keeps
// session state such as the selection and active snap divisors.
package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bethropolis/tempo/internal/action"
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/clipboard"
	"github.com/bethropolis/tempo/internal/config"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/history"
	"github.com/bethropolis/tempo/internal/logger"
	"github.com/bethropolis/tempo/internal/mapfile"
	"github.com/bethropolis/tempo/internal/plugin"
	"github.com/bethropolis/tempo/internal/statusbar"
	"github.com/gdamore/tcell/v2"
)

var (
	ErrEmptySelection = errors.New("no notes selected")
	ErrInvalidSnap    = errors.New("invalid snap divisors")
	ErrInvalidLane    = errors.New("lane out of range")
	ErrInvalidTime    = errors.New("invalid time")
	ErrInvalidLayer   = errors.New("no such layer")
	ErrInvalidValue   = errors.New("invalid value")
	ErrNotInMap       = errors.New("object is not part of the map")
	ErrNoPath         = errors.New("map has no file path")
	ErrUnknownCommand = errors.New("unknown command")
)

// Ensure Session implements plugin.EditorAPI.
var _ plugin.EditorAPI = (*Session)(nil)

// Options configures a Session.
type Options struct {
	SnapDivisors      []int
	MaxHistory        int
	SystemClipboard   bool
	DefaultLayerColor tcell.Color
	StatusBar         statusbar.Config
	PluginConfig      map[string]map[string]interface{}
}

// DefaultOptions returns the options used without a config file.
func DefaultOptions() Options {
	return Options{
		SnapDivisors:      slices.Clone(config.DefaultSnapDivisors),
		MaxHistory:        config.DefaultMaxHistory,
		DefaultLayerColor: tcell.ColorDefault,
		StatusBar:         statusbar.DefaultConfig(),
	}
}

// OptionsFromConfig maps the [editor] and [plugins] config sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.SnapDivisors = slices.Clone(cfg.Editor.SnapDivisors)
	opts.MaxHistory = cfg.Editor.MaxHistory
	opts.SystemClipboard = cfg.Editor.SystemClipboard
	if color, err := beatmap.ParseLayerColor(cfg.Editor.DefaultLayerColor); err == nil {
		opts.DefaultLayerColor = color
	}
	opts.StatusBar.MessageTimeout = cfg.Editor.MessageTimeout
	opts.PluginConfig = cfg.Plugins
	return opts
}

// Session edits one map. It is not safe for concurrent use.
type Session struct {
	m         *beatmap.Map
	path      string
	events    *event.Manager
	history   *history.Manager
	clipboard *clipboard.Clipboard
	statusBar *statusbar.StatusBar
	commands  map[string]plugin.CommandFunc

	selection    []*beatmap.HitObjectInfo
	selected     map[*beatmap.HitObjectInfo]struct{}
	snaps        []int
	layerColor   tcell.Color
	pluginConfig map[string]map[string]interface{}
}

// NewSession starts editing m, which was loaded from path ("" for a new map).
func NewSession(m *beatmap.Map, path string, opts Options) *Session {
	snaps, err := config.ValidateSnapDivisors(opts.SnapDivisors)
	if err != nil {
		logger.Warnf("Editor: %v; using default snap divisors", err)
		snaps = slices.Clone(config.DefaultSnapDivisors)
	}

	events := event.NewManager()
	s := &Session{
		m:            m,
		path:         path,
		events:       events,
		history:      history.NewManager(events, opts.MaxHistory),
		clipboard:    clipboard.New(opts.SystemClipboard),
		statusBar:    statusbar.New(opts.StatusBar),
		commands:     make(map[string]plugin.CommandFunc),
		selected:     make(map[*beatmap.HitObjectInfo]struct{}),
		snaps:        snaps,
		layerColor:   opts.DefaultLayerColor,
		pluginConfig: opts.PluginConfig,
	}

	s.statusBar.Attach(events)
	events.Subscribe(event.TypeHitObjectRemoved, s.handleObjectRemoved)
	events.Subscribe(event.TypeHitObjectBatchRemoved, s.handleObjectRemoved)
	registerBuiltinCommands(s)

	s.statusBar.SetSelectionInfo(0, s.snaps)
	events.Dispatch(event.TypeMapLoaded, event.MapLoadedData{Path: path, Map: m})
	logger.Debugf("Editor: session started for '%s' (%d notes)", path, len(m.HitObjects))
	return s
}

// Open loads the map at path and starts a session for it.
func Open(path string, opts Options) (*Session, error) {
	m, err := mapfile.Load(path)
	if err != nil {
		return nil, err
	}
	return NewSession(m, path, opts), nil
}

// Map returns the map being edited. Change it only through the session.
func (s *Session) Map() *beatmap.Map { return s.m }

// MapPath returns the file the map is saved to.
func (s *Session) MapPath() string { return s.path }

func (s *Session) Events() *event.Manager         { return s.events }
func (s *Session) History() *history.Manager      { return s.history }
func (s *Session) StatusBar() *statusbar.StatusBar { return s.statusBar }

// Perform runs a prepared action through the history.
func (s *Session) Perform(a action.Action) {
	s.history.Perform(a)
}

// Undo reverts the last action and reports it on the status bar.
func (s *Session) Undo() bool {
	a := s.history.PeekUndo()
	if !s.history.Undo() {
		s.statusBar.SetTemporaryMessage("Nothing to undo")
		return false
	}
	s.statusBar.SetTemporaryMessage("Undo: %s", a.Type())
	return true
}

// Redo performs the last undone action again.
func (s *Session) Redo() bool {
	a := s.history.PeekRedo()
	if !s.history.Redo() {
		s.statusBar.SetTemporaryMessage("Nothing to redo")
		return false
	}
	s.statusBar.SetTemporaryMessage("Redo: %s", a.Type())
	return true
}

// HasUnsavedChanges reports whether the map differs from the saved file.
func (s *Session) HasUnsavedChanges() bool {
	return s.history.HasUnsavedChanges()
}

// Save writes the map to its path.
func (s *Session) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	return s.SaveAs(s.path)
}

// SaveAs writes the map to path, which becomes the session's path.
func (s *Session) SaveAs(path string) error {
	if path == "" {
		return ErrNoPath
	}
	if err := mapfile.Save(path, s.m); err != nil {
		s.statusBar.SetTemporaryMessage("Save failed: %v", err)
		return err
	}
	s.path = path
	s.history.MarkSaved(path)
	return nil
}

// Snaps returns the active snap divisors.
func (s *Session) Snaps() []int {
	return slices.Clone(s.snaps)
}

// SetSnaps changes the active snap divisors.
func (s *Session) SetSnaps(snaps []int) error {
	valid, err := validateSnaps(snaps)
	if err != nil {
		return err
	}
	s.snaps = valid
	s.statusBar.SetSelectionInfo(len(s.selection), s.snaps)
	return nil
}

func validateSnaps(snaps []int) ([]int, error) {
	valid, err := config.ValidateSnapDivisors(snaps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnap, err)
	}
	return valid, nil
}

// --- plugin.EditorAPI ---

func (s *Session) SubscribeEvent(eventType event.Type, handler event.Handler) event.SubscriptionID {
	return s.events.Subscribe(eventType, handler)
}

func (s *Session) UnsubscribeEvent(id event.SubscriptionID) bool {
	return s.events.Unsubscribe(id)
}

func (s *Session) SetStatusMessage(format string, args ...interface{}) {
	s.statusBar.SetTemporaryMessage(format, args...)
}

func (s *Session) PluginConfigValue(plugin, key string) (interface{}, bool) {
	table, ok := s.pluginConfig[plugin]
	if !ok {
		return nil, false
	}
	v, ok := table[key]
	return v, ok
}
