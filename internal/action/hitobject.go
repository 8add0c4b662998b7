package action

import (
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/logger"
)

// PlaceHitObject inserts one hit object.
type PlaceHitObject struct {
	base
	Object *beatmap.HitObjectInfo
	placed bool
}

// NewPlaceHitObject creates an action placing h into m.
func NewPlaceHitObject(m *beatmap.Map, events *event.Manager, h *beatmap.HitObjectInfo) *PlaceHitObject {
	return &PlaceHitObject{base: base{m, events}, Object: h}
}

func (a *PlaceHitObject) Type() Type { return TypePlaceHitObject }

func (a *PlaceHitObject) Perform() {
	a.placed = !a.m.ContainsHitObject(a.Object)
	if !a.placed {
		logger.Warnf("PlaceHitObject: object at %d lane %d is already in the map", a.Object.StartTime, a.Object.Lane)
		return
	}
	a.m.AddHitObject(a.Object)
	logger.DebugTagf("action", "Placed note at %d lane %d", a.Object.StartTime, a.Object.Lane)
	a.dispatch(event.TypeHitObjectPlaced, event.HitObjectData{Object: a.Object})
}

func (a *PlaceHitObject) Undo() {
	if !a.placed {
		return
	}
	a.m.RemoveHitObject(a.Object)
	a.placed = false
	a.dispatch(event.TypeHitObjectRemoved, event.HitObjectData{Object: a.Object})
}

// RemoveHitObject deletes one hit object.
type RemoveHitObject struct {
	base
	Object  *beatmap.HitObjectInfo
	removed bool
}

// NewRemoveHitObject creates an action removing h from m.
func NewRemoveHitObject(m *beatmap.Map, events *event.Manager, h *beatmap.HitObjectInfo) *RemoveHitObject {
	return &RemoveHitObject{base: base{m, events}, Object: h}
}

func (a *RemoveHitObject) Type() Type { return TypeRemoveHitObject }

func (a *RemoveHitObject) Perform() {
	a.removed = a.m.RemoveHitObject(a.Object)
	if !a.removed {
		return
	}
	logger.DebugTagf("action", "Removed note at %d lane %d", a.Object.StartTime, a.Object.Lane)
	a.dispatch(event.TypeHitObjectRemoved, event.HitObjectData{Object: a.Object})
}

func (a *RemoveHitObject) Undo() {
	if !a.removed {
		return
	}
	a.m.AddHitObject(a.Object)
	a.removed = false
	a.dispatch(event.TypeHitObjectPlaced, event.HitObjectData{Object: a.Object})
}

// PlaceHitObjectBatch inserts several hit objects as one edit.
type PlaceHitObjectBatch struct {
	base
	Objects []*beatmap.HitObjectInfo
	placed  []*beatmap.HitObjectInfo
}

// NewPlaceHitObjectBatch creates an action placing objs into m.
func NewPlaceHitObjectBatch(m *beatmap.Map, events *event.Manager, objs []*beatmap.HitObjectInfo) *PlaceHitObjectBatch {
	return &PlaceHitObjectBatch{base: base{m, events}, Objects: objs}
}

func (a *PlaceHitObjectBatch) Type() Type { return TypePlaceHitObjectBatch }

func (a *PlaceHitObjectBatch) Perform() {
	present := make(map[*beatmap.HitObjectInfo]struct{}, len(a.m.HitObjects))
	for _, h := range a.m.HitObjects {
		present[h] = struct{}{}
	}
	a.placed = nil
	for _, h := range a.Objects {
		if _, ok := present[h]; ok {
			continue
		}
		present[h] = struct{}{}
		a.m.AddHitObject(h)
		a.placed = append(a.placed, h)
	}
	logger.DebugTagf("action", "Placed %d of %d notes", len(a.placed), len(a.Objects))
	a.dispatch(event.TypeHitObjectBatchPlaced, event.HitObjectBatchData{Objects: a.placed})
}

func (a *PlaceHitObjectBatch) Undo() {
	a.m.RemoveHitObjects(a.placed)
	removed := a.placed
	a.placed = nil
	a.dispatch(event.TypeHitObjectBatchRemoved, event.HitObjectBatchData{Objects: removed})
}

// RemoveHitObjectBatch deletes several hit objects as one edit.
type RemoveHitObjectBatch struct {
	base
	Objects []*beatmap.HitObjectInfo
	removed []*beatmap.HitObjectInfo
}

// NewRemoveHitObjectBatch creates an action removing objs from m.
func NewRemoveHitObjectBatch(m *beatmap.Map, events *event.Manager, objs []*beatmap.HitObjectInfo) *RemoveHitObjectBatch {
	return &RemoveHitObjectBatch{base: base{m, events}, Objects: objs}
}

func (a *RemoveHitObjectBatch) Type() Type { return TypeRemoveHitObjectBatch }

func (a *RemoveHitObjectBatch) Perform() {
	present := make(map[*beatmap.HitObjectInfo]struct{}, len(a.m.HitObjects))
	for _, h := range a.m.HitObjects {
		present[h] = struct{}{}
	}
	a.removed = nil
	for _, h := range a.Objects {
		if _, ok := present[h]; ok {
			delete(present, h)
			a.removed = append(a.removed, h)
		}
	}
	a.m.RemoveHitObjects(a.removed)
	logger.DebugTagf("action", "Removed %d of %d notes", len(a.removed), len(a.Objects))
	a.dispatch(event.TypeHitObjectBatchRemoved, event.HitObjectBatchData{Objects: a.removed})
}

func (a *RemoveHitObjectBatch) Undo() {
	for _, h := range a.removed {
		a.m.AddHitObject(h)
	}
	restored := a.removed
	a.removed = nil
	a.dispatch(event.TypeHitObjectBatchPlaced, event.HitObjectBatchData{Objects: restored})
}

// ResizeLongNote changes the end time of a hit object. An end time of 0 turns
// a long note into a regular note.
type ResizeLongNote struct {
	base
	Object          *beatmap.HitObjectInfo
	NewEndTime      int
	originalEndTime int
}

// NewResizeLongNote creates an action setting h's end time to newEnd.
func NewResizeLongNote(m *beatmap.Map, events *event.Manager, h *beatmap.HitObjectInfo, newEnd int) *ResizeLongNote {
	return &ResizeLongNote{base: base{m, events}, Object: h, NewEndTime: newEnd}
}

func (a *ResizeLongNote) Type() Type { return TypeResizeLongNote }

func (a *ResizeLongNote) Perform() {
	a.originalEndTime = a.Object.EndTime
	a.Object.EndTime = a.NewEndTime
	a.dispatch(event.TypeLongNoteResized, event.LongNoteResizedData{
		Object:          a.Object,
		OriginalEndTime: a.originalEndTime,
		NewEndTime:      a.NewEndTime,
	})
}

func (a *ResizeLongNote) Undo() {
	a.Object.EndTime = a.originalEndTime
	a.dispatch(event.TypeLongNoteResized, event.LongNoteResizedData{
		Object:          a.Object,
		OriginalEndTime: a.NewEndTime,
		NewEndTime:      a.originalEndTime,
	})
}

// FlipHitObjects mirrors objects across the lane axis. It is its own inverse.
type FlipHitObjects struct {
	base
	Objects []*beatmap.HitObjectInfo
}

// NewFlipHitObjects creates an action mirroring objs.
func NewFlipHitObjects(m *beatmap.Map, events *event.Manager, objs []*beatmap.HitObjectInfo) *FlipHitObjects {
	return &FlipHitObjects{base: base{m, events}, Objects: objs}
}

func (a *FlipHitObjects) Type() Type { return TypeFlipHitObjects }

func (a *FlipHitObjects) Perform() {
	for _, h := range a.Objects {
		h.Lane = a.m.KeyCount + 1 - h.Lane
	}
	a.dispatch(event.TypeHitObjectsFlipped, event.HitObjectsFlippedData{Objects: a.Objects})
}

func (a *FlipHitObjects) Undo() {
	a.Perform()
}

// MoveHitObjects shifts objects in time and across lanes.
type MoveHitObjects struct {
	base
	Objects    []*beatmap.HitObjectInfo
	TimeOffset int
	LaneOffset int

	longNotes []bool // captured on Perform, parallel to Objects
}

// NewMoveHitObjects creates an action shifting objs by the given offsets.
func NewMoveHitObjects(m *beatmap.Map, events *event.Manager, objs []*beatmap.HitObjectInfo, timeOffset, laneOffset int) *MoveHitObjects {
	return &MoveHitObjects{base: base{m, events}, Objects: objs, TimeOffset: timeOffset, LaneOffset: laneOffset}
}

func (a *MoveHitObjects) Type() Type { return TypeMoveHitObjects }

func (a *MoveHitObjects) Perform() {
	a.longNotes = make([]bool, len(a.Objects))
	for i, h := range a.Objects {
		a.longNotes[i] = h.IsLongNote()
	}
	a.shift(a.TimeOffset, a.LaneOffset)
}

func (a *MoveHitObjects) Undo() {
	a.shift(-a.TimeOffset, -a.LaneOffset)
}

func (a *MoveHitObjects) shift(dt, dl int) {
	for i, h := range a.Objects {
		h.StartTime += dt
		if i < len(a.longNotes) && a.longNotes[i] {
			h.EndTime += dt
		}
		h.Lane += dl
	}
	a.dispatch(event.TypeHitObjectsMoved, event.HitObjectsMovedData{
		Objects:    a.Objects,
		TimeOffset: dt,
		LaneOffset: dl,
	})
}
