// Package mapfile reads and writes maps as TOML documents.
package mapfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/logger"
)

// DefaultFileMode is the permission of newly created map files.
const DefaultFileMode os.FileMode = 0o644

type fileMap struct {
	Title            string           `toml:"title"`
	Artist           string           `toml:"artist,omitempty"`
	Difficulty       string           `toml:"difficulty,omitempty"`
	KeyCount         int              `toml:"key_count"`
	TimingPoints     []timingPoint    `toml:"timing_points"`
	ScrollVelocities []scrollVelocity `toml:"scroll_velocities,omitempty"`
	Layers           []layer          `toml:"layers,omitempty"`
	HitObjects       []hitObject      `toml:"hit_objects"`
}

type timingPoint struct {
	StartTime int     `toml:"start_time"`
	Bpm       float64 `toml:"bpm"`
	Signature int     `toml:"signature,omitzero"`
}

type scrollVelocity struct {
	StartTime  int     `toml:"start_time"`
	Multiplier float64 `toml:"multiplier"`
}

type layer struct {
	Name   string `toml:"name"`
	Color  string `toml:"color,omitempty"`
	Hidden bool   `toml:"hidden,omitempty"`
}

type hitObject struct {
	StartTime int `toml:"start_time"`
	EndTime   int `toml:"end_time,omitzero"`
	Lane      int `toml:"lane"`
	Layer     int `toml:"layer,omitzero"`
}

// Load reads the map at path.
func Load(path string) (*beatmap.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening map: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading map '%s': %w", path, err)
	}
	logger.Infof("Loaded map '%s': %d notes, %d timing points", path, len(m.HitObjects), len(m.TimingPoints))
	return m, nil
}

// Decode parses a TOML map document.
func Decode(r io.Reader) (*beatmap.Map, error) {
	var fm fileMap
	md, err := toml.NewDecoder(r).Decode(&fm)
	if err != nil {
		return nil, fmt.Errorf("parsing map: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logger.Warnf("Map: unrecognized keys: %v", undecoded)
	}

	m := beatmap.New(fm.KeyCount)
	m.Title, m.Artist, m.Difficulty = fm.Title, fm.Artist, fm.Difficulty

	for _, tp := range fm.TimingPoints {
		if tp.Bpm <= 0 {
			return nil, fmt.Errorf("timing point at %d: bpm must be positive, got %v", tp.StartTime, tp.Bpm)
		}
		sig := tp.Signature
		if sig <= 0 {
			sig = 4
		}
		m.TimingPoints = append(m.TimingPoints, &beatmap.TimingPointInfo{StartTime: tp.StartTime, Bpm: tp.Bpm, Signature: sig})
	}
	m.SortTimingPoints()

	for _, sv := range fm.ScrollVelocities {
		m.ScrollVelocities = append(m.ScrollVelocities, &beatmap.ScrollVelocityInfo{StartTime: sv.StartTime, Multiplier: sv.Multiplier})
	}
	m.SortScrollVelocities()

	for i, l := range fm.Layers {
		color, err := beatmap.ParseLayerColor(l.Color)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		m.EditorLayers = append(m.EditorLayers, &beatmap.EditorLayerInfo{Name: l.Name, Color: color, Hidden: l.Hidden})
	}

	for _, h := range fm.HitObjects {
		if h.Lane < 1 || h.Lane > m.KeyCount {
			return nil, fmt.Errorf("note at %d: lane %d outside 1..%d", h.StartTime, h.Lane, m.KeyCount)
		}
		if h.EndTime != 0 && h.EndTime <= h.StartTime {
			return nil, fmt.Errorf("note at %d: end time %d is not after start", h.StartTime, h.EndTime)
		}
		obj := &beatmap.HitObjectInfo{StartTime: h.StartTime, EndTime: h.EndTime, Lane: h.Lane, EditorLayer: h.Layer}
		if h.Layer < 0 || h.Layer > len(m.EditorLayers) {
			logger.Warnf("Map: note at %d references missing layer %d; moved to default layer", h.StartTime, h.Layer)
			obj.EditorLayer = beatmap.DefaultLayer
		}
		m.HitObjects = append(m.HitObjects, obj)
	}
	return m, nil
}

// Encode writes m as a TOML document. Notes are written in time order.
func Encode(w io.Writer, m *beatmap.Map) error {
	fm := fileMap{
		Title:      m.Title,
		Artist:     m.Artist,
		Difficulty: m.Difficulty,
		KeyCount:   m.KeyCount,
	}
	for _, tp := range m.TimingPoints {
		fm.TimingPoints = append(fm.TimingPoints, timingPoint{StartTime: tp.StartTime, Bpm: tp.Bpm, Signature: tp.Signature})
	}
	for _, sv := range m.ScrollVelocities {
		fm.ScrollVelocities = append(fm.ScrollVelocities, scrollVelocity{StartTime: sv.StartTime, Multiplier: sv.Multiplier})
	}
	for _, l := range m.EditorLayers {
		fm.Layers = append(fm.Layers, layer{Name: l.Name, Color: beatmap.FormatLayerColor(l.Color), Hidden: l.Hidden})
	}

	objs := make([]*beatmap.HitObjectInfo, len(m.HitObjects))
	copy(objs, m.HitObjects)
	sort.SliceStable(objs, func(i, j int) bool {
		if objs[i].StartTime != objs[j].StartTime {
			return objs[i].StartTime < objs[j].StartTime
		}
		return objs[i].Lane < objs[j].Lane
	})
	for _, h := range objs {
		fm.HitObjects = append(fm.HitObjects, hitObject{StartTime: h.StartTime, EndTime: h.EndTime, Lane: h.Lane, Layer: h.EditorLayer})
	}

	if err := toml.NewEncoder(w).Encode(fm); err != nil {
		return fmt.Errorf("encoding map: %w", err)
	}
	return nil
}

// Save writes m to path, replacing the file only once the new content is
// fully written.
func Save(path string, m *beatmap.Map) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("saving map: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("saving map: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("saving map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving map: %w", err)
	}
	// CreateTemp opens with 0600; keep the mode of the file being replaced.
	if err := os.Chmod(tmp.Name(), fileMode(path)); err != nil {
		return fmt.Errorf("saving map: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving map: %w", err)
	}
	logger.Infof("Saved map '%s' (%d notes)", path, len(m.HitObjects))
	return nil
}

// fileMode returns the permission bits of the existing file at path, or
// DefaultFileMode when there is none.
func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return DefaultFileMode
}
