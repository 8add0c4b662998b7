// Package clipboard stores copied hit objects and mirrors them to the system
// clipboard as TOML.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	sysclip "github.com/atotto/clipboard"
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/logger"
)

// ErrEmpty is returned when there is nothing to paste.
var ErrEmpty = errors.New("clipboard is empty")

const kind = "tempo-notes"

// document is the serialized form. Times are relative to the earliest copied start.
type document struct {
	Kind  string `toml:"kind"`
	Notes []note `toml:"notes"`
}

type note struct {
	Offset int `toml:"offset"`
	Length int `toml:"length,omitempty"`
	Lane   int `toml:"lane"`
	Layer  int `toml:"layer,omitempty"`
}

// Clipboard holds copied hit objects. Pasting always yields fresh objects so
// the same clip can be pasted many times.
type Clipboard struct {
	notes     []note
	useSystem bool
}

// New creates a clipboard. When useSystem is set and the platform supports it,
// copies are also written to the system clipboard and pastes prefer its
// content when it holds notes.
func New(useSystem bool) *Clipboard {
	if useSystem && sysclip.Unsupported {
		logger.Warnf("Clipboard: system clipboard unsupported, using internal clipboard only")
		useSystem = false
	}
	return &Clipboard{useSystem: useSystem}
}

// Copy replaces the clipboard content with objs and returns how many were copied.
func (c *Clipboard) Copy(objs []*beatmap.HitObjectInfo) int {
	c.notes = toNotes(objs)
	logger.DebugTagf("clipboard", "Copied %d notes", len(c.notes))
	if c.useSystem && len(c.notes) > 0 {
		data, err := encode(c.notes)
		if err == nil {
			err = sysclip.WriteAll(string(data))
		}
		if err != nil {
			logger.Warnf("Clipboard: failed to write system clipboard: %v", err)
		}
	}
	return len(c.notes)
}

// Len returns the number of notes held by the internal clipboard.
func (c *Clipboard) Len() int {
	return len(c.notes)
}

// Objects returns new hit objects for the clipboard content with the earliest
// one starting at time.
func (c *Clipboard) Objects(time int) ([]*beatmap.HitObjectInfo, error) {
	notes := c.notes
	if c.useSystem {
		if text, err := sysclip.ReadAll(); err == nil && text != "" {
			if sys, err := Decode([]byte(text)); err == nil {
				notes = toNotes(sys)
			} else {
				logger.DebugTagf("clipboard", "System clipboard does not hold notes: %v", err)
			}
		}
	}
	if len(notes) == 0 {
		return nil, ErrEmpty
	}
	return fromNotes(notes, time), nil
}

// Encode serializes objs, relative to the earliest start time.
func Encode(objs []*beatmap.HitObjectInfo) ([]byte, error) {
	return encode(toNotes(objs))
}

// Decode parses data produced by Encode. The returned objects start at time 0.
func Decode(data []byte) ([]*beatmap.HitObjectInfo, error) {
	var doc document
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding clipboard: %w", err)
	}
	if doc.Kind != kind {
		return nil, fmt.Errorf("decoding clipboard: unexpected kind %q", doc.Kind)
	}
	return fromNotes(doc.Notes, 0), nil
}

func encode(notes []note) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(document{Kind: kind, Notes: notes}); err != nil {
		return nil, fmt.Errorf("encoding clipboard: %w", err)
	}
	return buf.Bytes(), nil
}

func toNotes(objs []*beatmap.HitObjectInfo) []note {
	if len(objs) == 0 {
		return nil
	}
	sorted := make([]*beatmap.HitObjectInfo, 0, len(objs))
	for _, h := range objs {
		if h != nil {
			sorted = append(sorted, h)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	origin := sorted[0].StartTime
	notes := make([]note, len(sorted))
	for i, h := range sorted {
		notes[i] = note{Offset: h.StartTime - origin, Lane: h.Lane, Layer: h.EditorLayer}
		if h.IsLongNote() {
			notes[i].Length = h.EndTime - h.StartTime
		}
	}
	return notes
}

func fromNotes(notes []note, time int) []*beatmap.HitObjectInfo {
	objs := make([]*beatmap.HitObjectInfo, len(notes))
	for i, n := range notes {
		h := &beatmap.HitObjectInfo{
			StartTime:   time + n.Offset,
			Lane:        n.Lane,
			EditorLayer: n.Layer,
		}
		if n.Length > 0 {
			h.EndTime = h.StartTime + n.Length
		}
		objs[i] = h
	}
	return objs
}
