package plugin

import (
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
)

// CommandFunc is the signature for commands registered by plugins.
type CommandFunc func(args []string) error

// EditorAPI defines the methods plugins can use to interact with the editor.
// Plugins read the map but change it only through registered commands and
// the editor's own operations, so every edit stays undoable.
type EditorAPI interface {
	// --- Map Access (read-only) ---
	Map() *beatmap.Map
	MapPath() string
	HasUnsavedChanges() bool

	// --- Persistence ---
	Save() error

	// --- Event Bus Interaction ---
	SubscribeEvent(eventType event.Type, handler event.Handler) event.SubscriptionID
	UnsubscribeEvent(id event.SubscriptionID) bool

	// --- Command Registration ---
	RegisterCommand(name string, cmdFunc CommandFunc) error

	// --- Status Bar ---
	SetStatusMessage(format string, args ...interface{})

	// --- Configuration ---
	// PluginConfigValue returns a key from the [plugins.<plugin>] config table.
	PluginConfigValue(plugin, key string) (interface{}, bool)
}

// Plugin defines the interface that all plugins must implement.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Initialize is called once when the plugin is loaded. Used for setup,
	// subscribing to events and registering commands.
	Initialize(api EditorAPI) error

	// Shutdown is called once when the editor is closing.
	Shutdown() error
}
