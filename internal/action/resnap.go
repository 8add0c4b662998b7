package action

import (
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/logger"
	"github.com/bethropolis/tempo/internal/snap"
)

// ResnapHitObjects moves objects onto the nearest tick of any of Snaps.
//
// Perform recomputes the adjustments every time it runs; Undo restores the
// recorded original times and discards them. Objects without a covering
// timing point are left alone.
type ResnapHitObjects struct {
	base
	Snaps   []int
	Objects []*beatmap.HitObjectInfo

	adjustments []snap.Adjustment
}

// NewResnapHitObjects creates a resnap of objs onto the grid of snaps.
func NewResnapHitObjects(m *beatmap.Map, events *event.Manager, snaps []int, objs []*beatmap.HitObjectInfo) *ResnapHitObjects {
	return &ResnapHitObjects{base: base{m, events}, Snaps: snaps, Objects: objs}
}

func (a *ResnapHitObjects) Type() Type { return TypeResnapHitObjects }

func (a *ResnapHitObjects) Perform() {
	a.adjustments = snap.Resnap(a.m, a.Objects, a.Snaps)
	for _, adj := range a.adjustments {
		adj.Apply()
	}
	if len(a.adjustments) == 0 {
		logger.DebugTagf("resnap", "No notes resnapped (%d checked)", len(a.Objects))
	} else {
		logger.DebugTagf("resnap", "Resnapped %d of %d notes to %v", len(a.adjustments), len(a.Objects), a.Snaps)
	}
	a.dispatch(event.TypeHitObjectsResnapped, event.HitObjectsResnappedData{
		Snaps:   a.Snaps,
		Objects: a.AffectedObjects(),
	})
}

func (a *ResnapHitObjects) Undo() {
	affected := a.AffectedObjects()
	// Reverse order keeps restoration exact even if an object appears twice.
	for i := len(a.adjustments) - 1; i >= 0; i-- {
		a.adjustments[i].Revert()
	}
	a.adjustments = nil
	a.dispatch(event.TypeHitObjectsResnapped, event.HitObjectsResnappedData{
		Snaps:   a.Snaps,
		Objects: affected,
	})
}

// Adjustments returns the changes made by the last Perform, or nil after Undo.
func (a *ResnapHitObjects) Adjustments() []snap.Adjustment {
	return a.adjustments
}

// HadEffect reports whether the last Perform moved any object.
func (a *ResnapHitObjects) HadEffect() bool {
	return len(a.adjustments) > 0
}

// AffectedObjects lists the objects moved by the last Perform.
func (a *ResnapHitObjects) AffectedObjects() []*beatmap.HitObjectInfo {
	objs := make([]*beatmap.HitObjectInfo, 0, len(a.adjustments))
	for _, adj := range a.adjustments {
		objs = append(objs, adj.Object)
	}
	return objs
}
