// Package action implements the editor's edit commands.
//
// Every Action applies one edit to a beatmap.Map in Perform and restores the
// exact prior state in Undo. Perform captures whatever Undo needs at the
// moment it runs, so an action can be performed again after being undone
// (redo) without relying on state left over from the previous run.
//
// Actions dispatch their typed event after both Perform and Undo. Pair-inverse
// actions (place/remove, add/remove, create/remove) report the opposite kind
// on Undo; the rest report their own kind.
//
// Actions assume well-formed input; validation belongs to the caller. They
// are not safe for concurrent use and must not be run from inside another
// action.
package action

import (
	"fmt"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
)

// Type identifies an action variant.
type Type int

const (
	TypeUnknown Type = iota

	TypePlaceHitObject
	TypeRemoveHitObject
	TypePlaceHitObjectBatch
	TypeRemoveHitObjectBatch
	TypeResizeLongNote
	TypeFlipHitObjects
	TypeMoveHitObjects
	TypeResnapHitObjects

	TypeCreateLayer
	TypeRemoveLayer
	TypeEditLayer
	TypeMoveHitObjectsToLayer

	TypeAddTimingPoint
	TypeRemoveTimingPoint
	TypeAddTimingPointBatch
	TypeRemoveTimingPointBatch
	TypeChangeTimingPointOffsetBatch
	TypeChangeTimingPointBpmBatch

	TypeAddScrollVelocity
	TypeRemoveScrollVelocity
	TypeAddScrollVelocityBatch
	TypeRemoveScrollVelocityBatch
	TypeChangeScrollVelocityOffsetBatch
	TypeChangeScrollVelocityMultiplierBatch

	typeCount
)

// Menu labels.
var typeLabels = [...]string{
	TypeUnknown:                             "Unknown",
	TypePlaceHitObject:                      "Place Note",
	TypeRemoveHitObject:                     "Delete Note",
	TypePlaceHitObjectBatch:                 "Place Notes",
	TypeRemoveHitObjectBatch:                "Delete Notes",
	TypeResizeLongNote:                      "Resize Long Note",
	TypeFlipHitObjects:                      "Flip Notes",
	TypeMoveHitObjects:                      "Move Notes",
	TypeResnapHitObjects:                    "Resnap Notes",
	TypeCreateLayer:                         "Create Layer",
	TypeRemoveLayer:                         "Delete Layer",
	TypeEditLayer:                           "Edit Layer",
	TypeMoveHitObjectsToLayer:               "Move Notes To Layer",
	TypeAddTimingPoint:                      "Add Timing Point",
	TypeRemoveTimingPoint:                   "Delete Timing Point",
	TypeAddTimingPointBatch:                 "Add Timing Points",
	TypeRemoveTimingPointBatch:              "Delete Timing Points",
	TypeChangeTimingPointOffsetBatch:        "Change Timing Point Offsets",
	TypeChangeTimingPointBpmBatch:           "Change Timing Point BPM",
	TypeAddScrollVelocity:                   "Add Scroll Velocity",
	TypeRemoveScrollVelocity:                "Delete Scroll Velocity",
	TypeAddScrollVelocityBatch:              "Add Scroll Velocities",
	TypeRemoveScrollVelocityBatch:           "Delete Scroll Velocities",
	TypeChangeScrollVelocityOffsetBatch:     "Change Scroll Velocity Offsets",
	TypeChangeScrollVelocityMultiplierBatch: "Change Scroll Velocity Multipliers",
}

// String returns the human-readable label used in menus and the status bar.
func (t Type) String() string {
	if t >= 0 && t < typeCount {
		return typeLabels[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Action is a reversible edit.
type Action interface {
	Type() Type
	Perform()
	Undo()
}

// base carries what every action needs: the document and the bus to report on.
type base struct {
	m      *beatmap.Map
	events *event.Manager
}

func (b base) dispatch(t event.Type, data interface{}) {
	b.events.Dispatch(t, data)
}
