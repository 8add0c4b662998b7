// Package event is the change notification bus of the editor. Actions
// dispatch one typed event per kind after Perform and after Undo; the history
// manager adds TypeHistoryChanged on top.
package event

import (
	"fmt"

	"github.com/bethropolis/tempo/internal/beatmap"
)

// Type identifies the kind of event.
type Type int

const (
	TypeUnknown Type = iota

	// Hit objects
	TypeHitObjectPlaced
	TypeHitObjectRemoved
	TypeHitObjectBatchPlaced
	TypeHitObjectBatchRemoved
	TypeLongNoteResized
	TypeHitObjectsFlipped
	TypeHitObjectsMoved
	TypeHitObjectsResnapped

	// Layers
	TypeLayerCreated
	TypeLayerRemoved
	TypeLayerEdited
	TypeHitObjectsLayerChanged

	// Timing points
	TypeTimingPointAdded
	TypeTimingPointRemoved
	TypeTimingPointBatchAdded
	TypeTimingPointBatchRemoved
	TypeTimingPointsChanged

	// Scroll velocities
	TypeScrollVelocityAdded
	TypeScrollVelocityRemoved
	TypeScrollVelocityBatchAdded
	TypeScrollVelocityBatchRemoved
	TypeScrollVelocitiesChanged

	// Session
	TypeHistoryChanged // after every Perform/Undo/Redo through the history manager
	TypeMapSaved
	TypeMapLoaded

	typeCount
)

var typeNames = [...]string{
	TypeUnknown:                    "Unknown",
	TypeHitObjectPlaced:            "HitObjectPlaced",
	TypeHitObjectRemoved:           "HitObjectRemoved",
	TypeHitObjectBatchPlaced:       "HitObjectBatchPlaced",
	TypeHitObjectBatchRemoved:      "HitObjectBatchRemoved",
	TypeLongNoteResized:            "LongNoteResized",
	TypeHitObjectsFlipped:          "HitObjectsFlipped",
	TypeHitObjectsMoved:            "HitObjectsMoved",
	TypeHitObjectsResnapped:        "HitObjectsResnapped",
	TypeLayerCreated:               "LayerCreated",
	TypeLayerRemoved:               "LayerRemoved",
	TypeLayerEdited:                "LayerEdited",
	TypeHitObjectsLayerChanged:     "HitObjectsLayerChanged",
	TypeTimingPointAdded:           "TimingPointAdded",
	TypeTimingPointRemoved:         "TimingPointRemoved",
	TypeTimingPointBatchAdded:      "TimingPointBatchAdded",
	TypeTimingPointBatchRemoved:    "TimingPointBatchRemoved",
	TypeTimingPointsChanged:        "TimingPointsChanged",
	TypeScrollVelocityAdded:        "ScrollVelocityAdded",
	TypeScrollVelocityRemoved:      "ScrollVelocityRemoved",
	TypeScrollVelocityBatchAdded:   "ScrollVelocityBatchAdded",
	TypeScrollVelocityBatchRemoved: "ScrollVelocityBatchRemoved",
	TypeScrollVelocitiesChanged:    "ScrollVelocitiesChanged",
	TypeHistoryChanged:             "HistoryChanged",
	TypeMapSaved:                   "MapSaved",
	TypeMapLoaded:                  "MapLoaded",
}

func (t Type) String() string {
	if t >= 0 && t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Event is the structure passed through the bus.
type Event struct {
	Type Type
	Data interface{}
}

// --- Payloads ---
// Object and point references are live: listeners read current field values.

// HitObjectData accompanies TypeHitObjectPlaced and TypeHitObjectRemoved.
type HitObjectData struct {
	Object *beatmap.HitObjectInfo
}

// HitObjectBatchData accompanies the batch place/remove events.
type HitObjectBatchData struct {
	Objects []*beatmap.HitObjectInfo
}

// LongNoteResizedData carries the end times before and after the change.
type LongNoteResizedData struct {
	Object          *beatmap.HitObjectInfo
	OriginalEndTime int
	NewEndTime      int
}

// HitObjectsFlippedData lists the mirrored objects.
type HitObjectsFlippedData struct {
	Objects []*beatmap.HitObjectInfo
}

// HitObjectsMovedData carries the offsets that were applied; undo reports the
// negated offsets.
type HitObjectsMovedData struct {
	Objects    []*beatmap.HitObjectInfo
	TimeOffset int
	LaneOffset int
}

// HitObjectsResnappedData carries the divisors used and the objects whose times changed.
type HitObjectsResnappedData struct {
	Snaps   []int
	Objects []*beatmap.HitObjectInfo
}

// LayerData accompanies layer creation and removal. Reassigned lists objects
// whose EditorLayer changed as a side effect.
type LayerData struct {
	Layer      *beatmap.EditorLayerInfo
	Index      int
	Reassigned []*beatmap.HitObjectInfo
}

// LayerEditedData carries the layer state before and after the edit.
type LayerEditedData struct {
	Layer *beatmap.EditorLayerInfo
	Index int
	Old   beatmap.EditorLayerInfo
	New   beatmap.EditorLayerInfo
}

// HitObjectsLayerChangedData lists objects whose EditorLayer changed.
type HitObjectsLayerChangedData struct {
	Objects []*beatmap.HitObjectInfo
}

// TimingPointData accompanies single timing point add/remove.
type TimingPointData struct {
	Point *beatmap.TimingPointInfo
}

// TimingPointBatchData accompanies batch add/remove and in-place changes.
type TimingPointBatchData struct {
	Points []*beatmap.TimingPointInfo
}

// ScrollVelocityData accompanies single scroll velocity add/remove.
type ScrollVelocityData struct {
	Point *beatmap.ScrollVelocityInfo
}

// ScrollVelocityBatchData accompanies batch add/remove and in-place changes.
type ScrollVelocityBatchData struct {
	Points []*beatmap.ScrollVelocityInfo
}

// HistoryOp says which history manager call produced a TypeHistoryChanged event.
type HistoryOp int

const (
	OpPerform HistoryOp = iota
	OpUndo
	OpRedo
	OpClear
)

func (o HistoryOp) String() string {
	switch o {
	case OpPerform:
		return "Perform"
	case OpUndo:
		return "Undo"
	case OpRedo:
		return "Redo"
	case OpClear:
		return "Clear"
	}
	return fmt.Sprintf("HistoryOp(%d)", int(o))
}

// HistoryChangedData summarises the history state after an operation.
type HistoryChangedData struct {
	Op        HistoryOp
	Action    string // label of the action involved, empty for OpClear
	UndoCount int
	RedoCount int
	Unsaved   bool
}

// MapSavedData accompanies TypeMapSaved.
type MapSavedData struct {
	Path string
}

// MapLoadedData accompanies TypeMapLoaded.
type MapLoadedData struct {
	Path string
	Map  *beatmap.Map
}
