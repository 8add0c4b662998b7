package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger  logger.Config                     `toml:"logger"`
	Editor  EditorConfig                      `toml:"editor"`
	Plugins map[string]map[string]interface{} `toml:"plugins"` // [plugins.<name>] tables
}

// EditorConfig holds editor-specific settings.
type EditorConfig struct {
	SnapDivisors      []int         `toml:"snap_divisors"`
	MaxHistory        int           `toml:"max_history"`
	SystemClipboard   bool          `toml:"system_clipboard"`
	DefaultLayerColor string        `toml:"default_layer_color"`
	MessageTimeout    time.Duration `toml:"message_timeout"`
}

var (
	loadedConfig *Config
	loadedMu     sync.RWMutex
)

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Editor: EditorConfig{
			SnapDivisors:      slices.Clone(DefaultSnapDivisors),
			MaxHistory:        DefaultMaxHistory,
			SystemClipboard:   SystemClipboard,
			DefaultLayerColor: DefaultLayerColor,
			MessageTimeout:    MessageTimeout,
		},
	}
}

// DefaultPath returns the config file location under the user config directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(configDir, AppName, DefaultConfigFileName), nil
}

// loadFromFile decodes filePath on top of cfg. A missing file is not an error.
func loadFromFile(cfg *Config, filePath string) error {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		logger.Debugf("Config file not found: %s", filePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		// Plugin tables are free-form; only complain about the rest.
		var unknown []string
		for _, key := range undecoded {
			if len(key) > 0 && key[0] == "plugins" {
				continue
			}
			unknown = append(unknown, key.String())
		}
		if len(unknown) > 0 {
			logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, unknown)
		}
	}
	logger.Debugf("Loaded configuration from: %s", filePath)
	return nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if divisors, err := ValidateSnapDivisors(c.Editor.SnapDivisors); err != nil {
		logger.Warnf("Config: %v; using default snap divisors", err)
		c.Editor.SnapDivisors = defaults.Editor.SnapDivisors
	} else {
		c.Editor.SnapDivisors = divisors
	}
	if c.Editor.MaxHistory <= 0 {
		c.Editor.MaxHistory = defaults.Editor.MaxHistory
	}
	if _, err := beatmap.ParseLayerColor(c.Editor.DefaultLayerColor); err != nil {
		logger.Warnf("Config: %v; using default layer colour", err)
		c.Editor.DefaultLayerColor = defaults.Editor.DefaultLayerColor
	}
	if c.Editor.MessageTimeout <= 0 {
		c.Editor.MessageTimeout = defaults.Editor.MessageTimeout
	}

	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if _, ok := logger.ParseLevel(c.Logger.LogLevel); !ok {
		logger.Warnf("Config: unknown log level %q; using %s", c.Logger.LogLevel, defaults.Logger.LogLevel)
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
}

// Load builds a configuration from defaults, the file at configFilePath (or
// the default location when empty) and flag overrides, then validates it.
// The returned config is always usable; the error reports a file problem.
func Load(configFilePath string, flags *Flags) (*Config, error) {
	cfg := NewDefaultConfig()

	effectivePath := configFilePath
	if effectivePath == "" {
		if p, err := DefaultPath(); err == nil {
			effectivePath = p
		}
	}

	var loadErr error
	if effectivePath != "" {
		fileCfg := NewDefaultConfig()
		if err := loadFromFile(fileCfg, effectivePath); err != nil {
			loadErr = err
		} else {
			cfg = fileCfg
		}
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}
	cfg.validate()
	return cfg, loadErr
}

// LoadConfig runs Load and stores the result for Get.
func LoadConfig(configFilePath string, flags *Flags) (*Config, error) {
	cfg, err := Load(configFilePath, flags)
	loadedMu.Lock()
	loadedConfig = cfg
	loadedMu.Unlock()
	return cfg, err
}

// Get returns the loaded application configuration. Panics if LoadConfig wasn't called.
func Get() *Config {
	loadedMu.RLock()
	defer loadedMu.RUnlock()
	if loadedConfig == nil {
		panic("config.Get() called before config.LoadConfig()")
	}
	return loadedConfig
}

// PluginValue returns a setting from the [plugins.<plugin>] table.
func (c *Config) PluginValue(plugin, key string) (interface{}, bool) {
	table, ok := c.Plugins[plugin]
	if !ok {
		return nil, false
	}
	v, ok := table[key]
	return v, ok
}

// ParseSnapDivisors parses a comma-separated divisor list such as "4,8,12".
func ParseSnapDivisors(list string) ([]int, error) {
	var divisors []int
	for _, item := range splitCommaList(list) {
		d, err := strconv.Atoi(strings.TrimPrefix(item, "1/"))
		if err != nil {
			return nil, fmt.Errorf("invalid snap divisor %q", item)
		}
		divisors = append(divisors, d)
	}
	return ValidateSnapDivisors(divisors)
}

// ValidateSnapDivisors rejects empty lists and divisors outside
// 1..MaxSnapDivisor, and drops duplicates keeping the first occurrence.
func ValidateSnapDivisors(divisors []int) ([]int, error) {
	if len(divisors) == 0 {
		return nil, fmt.Errorf("no snap divisors given")
	}
	out := make([]int, 0, len(divisors))
	for _, d := range divisors {
		if d < 1 || d > MaxSnapDivisor {
			return nil, fmt.Errorf("snap divisor %d out of range 1..%d", d, MaxSnapDivisor)
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out, nil
}
