package editor

import (
	"slices"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
)

// Selection returns the selected objects in selection order.
func (s *Session) Selection() []*beatmap.HitObjectInfo {
	return slices.Clone(s.selection)
}

// IsSelected reports whether h is selected.
func (s *Session) IsSelected(h *beatmap.HitObjectInfo) bool {
	_, ok := s.selected[h]
	return ok
}

// Select adds objects of the map to the selection. Objects not in the map
// are ignored.
func (s *Session) Select(objs ...*beatmap.HitObjectInfo) {
	inMap := make(map[*beatmap.HitObjectInfo]struct{}, len(s.m.HitObjects))
	for _, h := range s.m.HitObjects {
		inMap[h] = struct{}{}
	}
	for _, h := range objs {
		if _, ok := inMap[h]; !ok {
			continue
		}
		if _, dup := s.selected[h]; dup {
			continue
		}
		s.selected[h] = struct{}{}
		s.selection = append(s.selection, h)
	}
	s.selectionChanged()
}

// SelectAll selects every object of the map.
func (s *Session) SelectAll() {
	s.Select(s.m.HitObjects...)
}

// SelectLayer selects every object on the given editor layer.
func (s *Session) SelectLayer(layer int) error {
	if layer < beatmap.DefaultLayer || layer > len(s.m.EditorLayers) {
		return ErrInvalidLayer
	}
	s.Select(s.m.HitObjectsInLayer(layer)...)
	return nil
}

// SelectRange selects objects starting within [from, to].
func (s *Session) SelectRange(from, to int) {
	var objs []*beatmap.HitObjectInfo
	for _, h := range s.m.HitObjects {
		if h.StartTime >= from && h.StartTime <= to {
			objs = append(objs, h)
		}
	}
	s.Select(objs...)
}

// Deselect removes objects from the selection.
func (s *Session) Deselect(objs ...*beatmap.HitObjectInfo) {
	drop := make(map[*beatmap.HitObjectInfo]struct{}, len(objs))
	for _, h := range objs {
		if _, ok := s.selected[h]; ok {
			drop[h] = struct{}{}
			delete(s.selected, h)
		}
	}
	if len(drop) == 0 {
		return
	}
	s.selection = slices.DeleteFunc(s.selection, func(h *beatmap.HitObjectInfo) bool {
		_, ok := drop[h]
		return ok
	})
	s.selectionChanged()
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	clear(s.selected)
	s.selection = nil
	s.selectionChanged()
}

func (s *Session) selectionChanged() {
	s.statusBar.SetSelectionInfo(len(s.selection), s.snaps)
}

// handleObjectRemoved drops objects that left the map from the selection.
func (s *Session) handleObjectRemoved(e event.Event) bool {
	switch data := e.Data.(type) {
	case event.HitObjectData:
		s.Deselect(data.Object)
	case event.HitObjectBatchData:
		s.Deselect(data.Objects...)
	}
	return false
}
