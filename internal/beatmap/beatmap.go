// Package beatmap holds the in-memory map document edited by the action subsystem.
//
// All mutation of a Map owned by an editing session goes through actions
// (see package action). The raw mutators here are their building blocks.
package beatmap

import (
	"sort"

	"github.com/bethropolis/tempo/internal/logger"
)

// DefaultKeyCount is used when a map does not declare its lane count.
const DefaultKeyCount = 4

// HitObjectInfo is a single note. Identity is the pointer: undo/redo mutate
// objects in place and must find the same instance again.
type HitObjectInfo struct {
	StartTime   int // ms
	EndTime     int // ms, 0 unless the object is a long note
	Lane        int // 1-based
	EditorLayer int // 0 is the default layer, i refers to Map.EditorLayers[i-1]
}

// IsLongNote reports whether the object has a hold duration.
func (h *HitObjectInfo) IsLongNote() bool {
	return h.EndTime > 0
}

// Clone returns a copy with a new identity.
func (h *HitObjectInfo) Clone() *HitObjectInfo {
	c := *h
	return &c
}

// Map is the working map.
type Map struct {
	Title      string
	Artist     string
	Difficulty string
	KeyCount   int

	// HitObjects is unordered at storage level; ordering is a view concern.
	HitObjects []*HitObjectInfo
	// TimingPoints and ScrollVelocities are kept sorted by StartTime.
	TimingPoints     []*TimingPointInfo
	ScrollVelocities []*ScrollVelocityInfo
	EditorLayers     []*EditorLayerInfo
}

// New creates an empty map with the given lane count.
func New(keyCount int) *Map {
	if keyCount <= 0 {
		keyCount = DefaultKeyCount
	}
	return &Map{KeyCount: keyCount}
}

// AddHitObject appends h to the map.
func (m *Map) AddHitObject(h *HitObjectInfo) {
	m.HitObjects = append(m.HitObjects, h)
}

// RemoveHitObject removes h by identity. It reports whether h was present.
func (m *Map) RemoveHitObject(h *HitObjectInfo) bool {
	for i, obj := range m.HitObjects {
		if obj == h {
			m.HitObjects = append(m.HitObjects[:i], m.HitObjects[i+1:]...)
			return true
		}
	}
	logger.Debugf("Map: hit object at %d (lane %d) not found for removal", h.StartTime, h.Lane)
	return false
}

// RemoveHitObjects removes every object in hs, preserving the order of the rest.
func (m *Map) RemoveHitObjects(hs []*HitObjectInfo) int {
	if len(hs) == 0 {
		return 0
	}
	drop := make(map[*HitObjectInfo]struct{}, len(hs))
	for _, h := range hs {
		drop[h] = struct{}{}
	}
	kept := m.HitObjects[:0]
	removed := 0
	for _, obj := range m.HitObjects {
		if _, ok := drop[obj]; ok {
			removed++
			continue
		}
		kept = append(kept, obj)
	}
	// Release references held past the new length.
	for i := len(kept); i < len(m.HitObjects); i++ {
		m.HitObjects[i] = nil
	}
	m.HitObjects = kept
	return removed
}

// ContainsHitObject reports whether h is part of the map.
func (m *Map) ContainsHitObject(h *HitObjectInfo) bool {
	for _, obj := range m.HitObjects {
		if obj == h {
			return true
		}
	}
	return false
}

// SortHitObjects orders hit objects by start time, then lane.
func (m *Map) SortHitObjects() {
	sort.SliceStable(m.HitObjects, func(i, j int) bool {
		a, b := m.HitObjects[i], m.HitObjects[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.Lane < b.Lane
	})
}

// HitObjectsInLayer returns the objects assigned to the given editor layer index.
func (m *Map) HitObjectsInLayer(layer int) []*HitObjectInfo {
	var out []*HitObjectInfo
	for _, h := range m.HitObjects {
		if h.EditorLayer == layer {
			out = append(out, h)
		}
	}
	return out
}

// Length returns the time of the last hit object end.
func (m *Map) Length() int {
	length := 0
	for _, h := range m.HitObjects {
		end := h.StartTime
		if h.IsLongNote() && h.EndTime > end {
			end = h.EndTime
		}
		if end > length {
			length = end
		}
	}
	return length
}
