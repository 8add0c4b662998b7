package config

import "time"

// Base application details
const AppName = "tempo"
const Version = "0.1.0"
const DefaultConfigFileName = "config.toml"
const DefaultLogFileName = "tempo.log"

// Editor
const DefaultMaxHistory = 1000
const DefaultLayerColor = "default"
const SystemClipboard = true

// Largest snap divisor accepted from config or flags.
const MaxSnapDivisor = 64

// Status Bar
const MessageTimeout = 4 * time.Second

// DefaultSnapDivisors is the grid offered when none is configured.
var DefaultSnapDivisors = []int{4, 8, 12, 16}
