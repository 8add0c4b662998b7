package action

import (
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/logger"
)

// layerChange remembers an object's EditorLayer before an action rewrote it.
type layerChange struct {
	object   *beatmap.HitObjectInfo
	previous int
}

func restoreLayers(changes []layerChange) []*beatmap.HitObjectInfo {
	objs := make([]*beatmap.HitObjectInfo, 0, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		changes[i].object.EditorLayer = changes[i].previous
	}
	for _, c := range changes {
		objs = append(objs, c.object)
	}
	return objs
}

func changedObjects(changes []layerChange) []*beatmap.HitObjectInfo {
	objs := make([]*beatmap.HitObjectInfo, 0, len(changes))
	for _, c := range changes {
		objs = append(objs, c.object)
	}
	return objs
}

// CreateLayer inserts a layer. Index 0 (or any out-of-range index) appends.
// Inserting before existing layers shifts the assignments of their objects so
// they keep pointing at the same layer.
type CreateLayer struct {
	base
	Layer   *beatmap.EditorLayerInfo
	Index   int
	created int
	shifted []layerChange
}

// NewCreateLayer creates an action inserting l at the given editor layer index.
func NewCreateLayer(m *beatmap.Map, events *event.Manager, l *beatmap.EditorLayerInfo, index int) *CreateLayer {
	return &CreateLayer{base: base{m, events}, Layer: l, Index: index}
}

func (a *CreateLayer) Type() Type { return TypeCreateLayer }

func (a *CreateLayer) Perform() {
	a.created = a.m.InsertLayer(a.Index, a.Layer)
	a.shifted = nil
	if a.created <= len(a.m.EditorLayers)-1 {
		for _, h := range a.m.HitObjects {
			if h.EditorLayer >= a.created {
				a.shifted = append(a.shifted, layerChange{h, h.EditorLayer})
				h.EditorLayer++
			}
		}
	}
	logger.DebugTagf("action", "Created layer '%s' at %d (%d notes shifted)", a.Layer.Name, a.created, len(a.shifted))
	a.dispatch(event.TypeLayerCreated, event.LayerData{
		Layer:      a.Layer,
		Index:      a.created,
		Reassigned: changedObjects(a.shifted),
	})
}

func (a *CreateLayer) Undo() {
	a.m.RemoveLayer(a.Layer)
	reassigned := restoreLayers(a.shifted)
	a.shifted = nil
	a.dispatch(event.TypeLayerRemoved, event.LayerData{
		Layer:      a.Layer,
		Index:      a.created,
		Reassigned: reassigned,
	})
}

// RemoveLayer deletes a layer. Its objects move to the default layer and
// objects of later layers shift down by one; both are recorded for Undo.
type RemoveLayer struct {
	base
	Layer      *beatmap.EditorLayerInfo
	index      int
	reassigned []layerChange
}

// NewRemoveLayer creates an action removing l.
func NewRemoveLayer(m *beatmap.Map, events *event.Manager, l *beatmap.EditorLayerInfo) *RemoveLayer {
	return &RemoveLayer{base: base{m, events}, Layer: l}
}

func (a *RemoveLayer) Type() Type { return TypeRemoveLayer }

func (a *RemoveLayer) Perform() {
	a.reassigned = nil
	a.index = a.m.LayerIndex(a.Layer)
	if a.index < 0 {
		logger.Warnf("RemoveLayer: layer '%s' is not part of the map", a.Layer.Name)
		return
	}
	for _, h := range a.m.HitObjects {
		switch {
		case h.EditorLayer == a.index:
			a.reassigned = append(a.reassigned, layerChange{h, h.EditorLayer})
			h.EditorLayer = beatmap.DefaultLayer
		case h.EditorLayer > a.index:
			a.reassigned = append(a.reassigned, layerChange{h, h.EditorLayer})
			h.EditorLayer--
		}
	}
	a.m.RemoveLayer(a.Layer)
	logger.DebugTagf("action", "Removed layer '%s' at %d (%d notes reassigned)", a.Layer.Name, a.index, len(a.reassigned))
	a.dispatch(event.TypeLayerRemoved, event.LayerData{
		Layer:      a.Layer,
		Index:      a.index,
		Reassigned: changedObjects(a.reassigned),
	})
}

func (a *RemoveLayer) Undo() {
	if a.index < 0 {
		return
	}
	a.m.InsertLayer(a.index, a.Layer)
	reassigned := restoreLayers(a.reassigned)
	a.reassigned = nil
	a.dispatch(event.TypeLayerCreated, event.LayerData{
		Layer:      a.Layer,
		Index:      a.index,
		Reassigned: reassigned,
	})
}

// EditLayer replaces a layer's name, colour and visibility in place.
type EditLayer struct {
	base
	Layer *beatmap.EditorLayerInfo
	New   beatmap.EditorLayerInfo
	old   beatmap.EditorLayerInfo
}

// NewEditLayer creates an action giving l the attributes of next.
func NewEditLayer(m *beatmap.Map, events *event.Manager, l *beatmap.EditorLayerInfo, next beatmap.EditorLayerInfo) *EditLayer {
	return &EditLayer{base: base{m, events}, Layer: l, New: next}
}

func (a *EditLayer) Type() Type { return TypeEditLayer }

func (a *EditLayer) Perform() {
	a.old = *a.Layer
	*a.Layer = a.New
	a.dispatch(event.TypeLayerEdited, event.LayerEditedData{
		Layer: a.Layer,
		Index: a.m.LayerIndex(a.Layer),
		Old:   a.old,
		New:   a.New,
	})
}

func (a *EditLayer) Undo() {
	*a.Layer = a.old
	a.dispatch(event.TypeLayerEdited, event.LayerEditedData{
		Layer: a.Layer,
		Index: a.m.LayerIndex(a.Layer),
		Old:   a.New,
		New:   a.old,
	})
}

// MoveHitObjectsToLayer assigns objects to one editor layer.
type MoveHitObjectsToLayer struct {
	base
	Objects []*beatmap.HitObjectInfo
	Layer   int
	changes []layerChange
}

// NewMoveHitObjectsToLayer creates an action assigning objs to the given layer index.
func NewMoveHitObjectsToLayer(m *beatmap.Map, events *event.Manager, objs []*beatmap.HitObjectInfo, layer int) *MoveHitObjectsToLayer {
	return &MoveHitObjectsToLayer{base: base{m, events}, Objects: objs, Layer: layer}
}

func (a *MoveHitObjectsToLayer) Type() Type { return TypeMoveHitObjectsToLayer }

func (a *MoveHitObjectsToLayer) Perform() {
	a.changes = nil
	for _, h := range a.Objects {
		if h.EditorLayer == a.Layer {
			continue
		}
		a.changes = append(a.changes, layerChange{h, h.EditorLayer})
		h.EditorLayer = a.Layer
	}
	a.dispatch(event.TypeHitObjectsLayerChanged, event.HitObjectsLayerChangedData{Objects: changedObjects(a.changes)})
}

func (a *MoveHitObjectsToLayer) Undo() {
	objs := restoreLayers(a.changes)
	a.changes = nil
	a.dispatch(event.TypeHitObjectsLayerChanged, event.HitObjectsLayerChangedData{Objects: objs})
}
