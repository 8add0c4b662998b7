package notestats

import (
	"fmt"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/plugin"
)

// Ensure NoteStats implements plugin.Plugin
var _ plugin.Plugin = (*NoteStats)(nil)

// NoteStats registers the :stats command, which summarises the map.
type NoteStats struct {
	api plugin.EditorAPI
}

// New creates a new instance of the NoteStats plugin.
func New() *NoteStats {
	return &NoteStats{}
}

// Name returns the unique name of the plugin.
func (p *NoteStats) Name() string {
	return "NoteStats"
}

// Initialize registers the :stats command.
func (p *NoteStats) Initialize(api plugin.EditorAPI) error {
	p.api = api
	if err := api.RegisterCommand("stats", p.executeStats); err != nil {
		return fmt.Errorf("failed to register 'stats' command: %w", err)
	}
	return nil
}

// Shutdown performs cleanup (nothing needed for this simple plugin).
func (p *NoteStats) Shutdown() error {
	return nil
}

func (p *NoteStats) executeStats(args []string) error {
	if p.api == nil {
		return fmt.Errorf("notestats plugin not initialized with API")
	}
	p.api.SetStatusMessage(Summary(p.api.Map()))
	return nil
}

// Summary describes the note counts and length of m.
func Summary(m *beatmap.Map) string {
	longNotes := 0
	for _, h := range m.HitObjects {
		if h.IsLongNote() {
			longNotes++
		}
	}
	return fmt.Sprintf("Notes: %d, Long notes: %d, Layers: %d, Timing points: %d, Length: %s",
		len(m.HitObjects), longNotes, len(m.EditorLayers), len(m.TimingPoints), formatLength(m.Length()))
}

// formatLength renders milliseconds as m:ss.
func formatLength(ms int) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
