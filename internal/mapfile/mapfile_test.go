package mapfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
title = "Sample"
artist = "Someone"
key_count = 4

[[timing_points]]
start_time = 1000
bpm = 180.0

[[timing_points]]
start_time = 0
bpm = 120.0
signature = 3

[[scroll_velocities]]
start_time = 500
multiplier = 1.5

[[layers]]
name = "Drums"
color = "255,0,0"

[[hit_objects]]
start_time = 250
lane = 2
layer = 1

[[hit_objects]]
start_time = 0
end_time = 500
lane = 4

[[hit_objects]]
start_time = 125
lane = 1
layer = 7
`

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "Sample", m.Title)
	assert.Equal(t, 4, m.KeyCount)
	require.Len(t, m.TimingPoints, 2)
	assert.Equal(t, 0, m.TimingPoints[0].StartTime, "timing points are sorted")
	assert.Equal(t, 3, m.TimingPoints[0].Signature)
	assert.Equal(t, 4, m.TimingPoints[1].Signature, "signature defaults to 4")
	require.Len(t, m.ScrollVelocities, 1)

	require.Len(t, m.EditorLayers, 1)
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), m.EditorLayers[0].Color)

	require.Len(t, m.HitObjects, 3)
	assert.Equal(t, 1, m.HitObjects[0].EditorLayer)
	assert.True(t, m.HitObjects[1].IsLongNote())
	assert.Equal(t, beatmap.DefaultLayer, m.HitObjects[2].EditorLayer, "missing layer falls back to default")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", "title = ", "parsing map"},
		{"lane", "key_count = 4\n[[hit_objects]]\nstart_time = 0\nlane = 5\n", "lane 5 outside 1..4"},
		{"end before start", "[[hit_objects]]\nstart_time = 100\nend_time = 50\nlane = 1\n", "not after start"},
		{"bpm", "[[timing_points]]\nstart_time = 0\nbpm = 0.0\n", "bpm must be positive"},
		{"colour", "[[layers]]\nname = \"x\"\ncolor = \"nope\"\n", "layer 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "map.toml")
	require.NoError(t, Save(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Title, loaded.Title)
	assert.Equal(t, m.Artist, loaded.Artist)
	assert.Equal(t, m.KeyCount, loaded.KeyCount)
	assert.Equal(t, m.TimingPoints, loaded.TimingPoints)
	assert.Equal(t, m.ScrollVelocities, loaded.ScrollVelocities)
	assert.Equal(t, m.EditorLayers, loaded.EditorLayers)
	assert.ElementsMatch(t, m.HitObjects, loaded.HitObjects)

	// Notes are written in time order.
	assert.Equal(t, 0, loaded.HitObjects[0].StartTime)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestEncodeOmitsZeroFields(t *testing.T) {
	m, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, Encode(&buf, m))
	out := buf.String()
	assert.Contains(t, out, "end_time = 500")
	assert.Contains(t, out, "layer = 1")
	assert.NotContains(t, out, "end_time = 0")
	assert.NotContains(t, out, "layer = 0")
	assert.NotContains(t, out, "signature = 0")
}

func TestSaveFileMode(t *testing.T) {
	dir := t.TempDir()
	m := beatmap.New(4)

	created := filepath.Join(dir, "new.toml")
	require.NoError(t, Save(created, m))
	info, err := os.Stat(created)
	require.NoError(t, err)
	assert.Equal(t, DefaultFileMode, info.Mode().Perm())

	existing := filepath.Join(dir, "existing.toml")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))
	require.NoError(t, os.Chmod(existing, 0o640))
	require.NoError(t, Save(existing, m))
	info, err = os.Stat(existing)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSaveIntoMissingDirectory(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "nope", "map.toml"), beatmap.New(4))
	assert.ErrorContains(t, err, "saving map")
}
