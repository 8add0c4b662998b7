package autosave

import (
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/logger"
	"github.com/bethropolis/tempo/internal/plugin"
)

// Ensure AutoSave implements plugin.Plugin
var _ plugin.Plugin = (*AutoSave)(nil)

const (
	// Default configuration values
	defaultEnabled = false
	defaultEvery   = 10
)

// AutoSave saves the map after every N performed actions while it has
// unsaved changes. It runs on the editing goroutine from a history listener.
type AutoSave struct {
	api plugin.EditorAPI

	// Configuration
	enabled bool
	every   int

	// Runtime state
	performed int
	sub       event.SubscriptionID
}

// New creates a new instance of the AutoSave plugin.
func New() plugin.Plugin {
	return &AutoSave{
		enabled: defaultEnabled,
		every:   defaultEvery,
	}
}

// Name returns the unique name of the plugin.
func (p *AutoSave) Name() string {
	return "autosave"
}

// Initialize reads configuration and subscribes to history changes if enabled.
func (p *AutoSave) Initialize(api plugin.EditorAPI) error {
	p.api = api
	pluginName := p.Name()

	logger.Debugf("%s: Initializing...", pluginName)

	if enabledVal, ok := api.PluginConfigValue(pluginName, "enabled"); ok {
		if boolVal, isBool := enabledVal.(bool); isBool {
			p.enabled = boolVal
		} else {
			logger.Warnf("%s: Invalid type for 'enabled' config (%T), using default (%v)", pluginName, enabledVal, p.enabled)
		}
	}

	// TOML integers decode as int64.
	if everyVal, ok := api.PluginConfigValue(pluginName, "every"); ok {
		switch v := everyVal.(type) {
		case int64:
			if v > 0 {
				p.every = int(v)
			} else {
				logger.Warnf("%s: 'every' config must be positive (%d). Using default (%d)", pluginName, v, p.every)
			}
		case int:
			if v > 0 {
				p.every = v
			} else {
				logger.Warnf("%s: 'every' config must be positive (%d). Using default (%d)", pluginName, v, p.every)
			}
		default:
			logger.Warnf("%s: Invalid type for 'every' config (%T), using default (%d)", pluginName, everyVal, p.every)
		}
	}

	logger.Infof("%s initialized. Enabled: %v, Every: %d actions", pluginName, p.enabled, p.every)

	if p.enabled {
		p.sub = api.SubscribeEvent(event.TypeHistoryChanged, p.handleHistoryChanged)
	}
	return nil
}

// Shutdown unsubscribes from history changes.
func (p *AutoSave) Shutdown() error {
	if p.enabled && p.sub != 0 {
		p.api.UnsubscribeEvent(p.sub)
		p.sub = 0
		logger.Debugf("%s: Unsubscribed.", p.Name())
	}
	return nil
}

func (p *AutoSave) handleHistoryChanged(e event.Event) bool {
	data, ok := e.Data.(event.HistoryChangedData)
	if !ok || data.Op != event.OpPerform {
		return false
	}
	p.performed++
	if p.performed < p.every {
		return false
	}
	p.performed = 0
	p.saveIfModified()
	return false
}

// saveIfModified saves the map when it has unsaved changes and a path.
func (p *AutoSave) saveIfModified() {
	if !p.api.HasUnsavedChanges() {
		logger.Debugf("%s: Map not modified, skipping auto-save.", p.Name())
		return
	}

	filePath := p.api.MapPath()
	if filePath == "" {
		logger.Debugf("%s: Map is modified but has no path, skipping auto-save.", p.Name())
		return
	}

	logger.Infof("%s: Auto-saving modified map: %s", p.Name(), filePath)
	if err := p.api.Save(); err != nil {
		logger.Errorf("%s: Auto-save failed for '%s': %v", p.Name(), filePath, err)
		p.api.SetStatusMessage("%s: Auto-save failed: %v", p.Name(), err)
		return
	}
	logger.Debugf("%s: Auto-save successful for '%s'", p.Name(), filePath)
}
