package statusbar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bethropolis/tempo/internal/event"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Config defines the appearance and behavior of the status bar.
type Config struct {
	StyleDefault   tcell.Style
	StyleModified  tcell.Style // the [Modified] indicator
	StyleMessage   tcell.Style // temporary messages
	MessageTimeout time.Duration
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		StyleDefault:   tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorBlue),
		StyleModified:  tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlue).Bold(true),
		StyleMessage:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlue).Bold(true),
		MessageTimeout: 4 * time.Second,
	}
}

// StatusBar is the editor's status line: map name, modified flag, history
// position and temporary messages such as resnap feedback.
type StatusBar struct {
	config Config
	mu     sync.RWMutex
	now    func() time.Time

	mapName    string
	isModified bool
	lastAction string
	undoCount  int
	redoCount  int
	selected   int
	snaps      []int

	tempMessage     string
	tempMessageTime time.Time
}

// New creates a new StatusBar with the given configuration.
func New(config Config) *StatusBar {
	return &StatusBar{
		config: config,
		now:    time.Now,
	}
}

// Attach keeps the bar in sync with history, save and load events.
func (sb *StatusBar) Attach(events *event.Manager) []event.SubscriptionID {
	return []event.SubscriptionID{
		events.Subscribe(event.TypeHistoryChanged, func(e event.Event) bool {
			data, ok := e.Data.(event.HistoryChangedData)
			if ok {
				sb.SetHistoryInfo(data.Action, data.UndoCount, data.RedoCount, data.Unsaved)
			}
			return false
		}),
		events.Subscribe(event.TypeMapSaved, func(e event.Event) bool {
			sb.mu.Lock()
			sb.isModified = false
			sb.mu.Unlock()
			if data, ok := e.Data.(event.MapSavedData); ok && data.Path != "" {
				sb.SetTemporaryMessage("Saved %s", data.Path)
			}
			return false
		}),
		events.Subscribe(event.TypeMapLoaded, func(e event.Event) bool {
			if data, ok := e.Data.(event.MapLoadedData); ok {
				name := data.Path
				if data.Map != nil && data.Map.Title != "" {
					name = data.Map.Title
				}
				sb.SetMapInfo(name, false)
			}
			return false
		}),
	}
}

// SetMapInfo updates the map name shown in the status bar.
func (sb *StatusBar) SetMapInfo(name string, modified bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.mapName = name
	sb.isModified = modified
}

// SetHistoryInfo updates the history position. action is the label of the
// last performed, undone or redone action.
func (sb *StatusBar) SetHistoryInfo(action string, undoCount, redoCount int, modified bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.lastAction = action
	sb.undoCount = undoCount
	sb.redoCount = redoCount
	sb.isModified = modified
}

// SetSelectionInfo updates the selected note count and active snap divisors.
func (sb *StatusBar) SetSelectionInfo(selected int, snaps []int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.selected = selected
	sb.snaps = append(sb.snaps[:0], snaps...)
}

// SetTemporaryMessage displays a message for the configured duration.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempMessageTime = sb.now()
}

// ResetTemporaryMessage clears any temporary message being displayed.
func (sb *StatusBar) ResetTemporaryMessage() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}
}

// Message returns the active temporary message, or "".
func (sb *StatusBar) Message() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.expireMessage() {
		return sb.tempMessage
	}
	return ""
}

// expireMessage clears a timed-out message and reports whether one is active.
// Callers hold the write lock.
func (sb *StatusBar) expireMessage() bool {
	if sb.tempMessageTime.IsZero() {
		return false
	}
	if sb.now().Sub(sb.tempMessageTime) <= sb.config.MessageTimeout {
		return true
	}
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}
	return false
}

// segment is a run of text drawn in one style.
type segment struct {
	text  string
	style tcell.Style
}

func (sb *StatusBar) segments() []segment {
	if sb.expireMessage() {
		return []segment{{sb.tempMessage, sb.config.StyleMessage}}
	}

	name := sb.mapName
	if name == "" {
		name = "[No Name]"
	}
	segs := []segment{{name, sb.config.StyleDefault}}
	if sb.isModified {
		segs = append(segs, segment{" [Modified]", sb.config.StyleModified})
	}

	var info strings.Builder
	fmt.Fprintf(&info, " -- Undo: %d, Redo: %d", sb.undoCount, sb.redoCount)
	if sb.lastAction != "" {
		fmt.Fprintf(&info, " (%s)", sb.lastAction)
	}
	if sb.selected > 0 {
		fmt.Fprintf(&info, " -- %d selected", sb.selected)
	}
	if len(sb.snaps) > 0 {
		parts := make([]string, len(sb.snaps))
		for i, s := range sb.snaps {
			parts[i] = fmt.Sprintf("1/%d", s)
		}
		fmt.Fprintf(&info, " -- Snap: %s", strings.Join(parts, " "))
	}
	return append(segs, segment{info.String(), sb.config.StyleDefault})
}

// Text returns the line Draw would render.
func (sb *StatusBar) Text() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	var b strings.Builder
	for _, s := range sb.segments() {
		b.WriteString(s.text)
	}
	return b.String()
}

// Draw renders the status bar onto the last line of the screen using visual widths.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1

	sb.mu.Lock()
	segs := sb.segments()
	sb.mu.Unlock()

	fill := segs[0].style
	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, fill)
	}

	x := 0
	for _, s := range segs {
		gr := uniseg.NewGraphemes(s.text)
		for gr.Next() {
			w := gr.Width()
			if x+w > width {
				return
			}
			runes := gr.Runes()
			if len(runes) > 0 {
				screen.SetContent(x, y, runes[0], runes[1:], s.style)
			}
			x += w
		}
	}
}
