package action

import (
	"slices"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/logger"
)

// AddScrollVelocity inserts one scroll velocity at its sorted position.
type AddScrollVelocity struct {
	base
	Point *beatmap.ScrollVelocityInfo
}

// NewAddScrollVelocity creates an action adding sv to m.
func NewAddScrollVelocity(m *beatmap.Map, events *event.Manager, sv *beatmap.ScrollVelocityInfo) *AddScrollVelocity {
	return &AddScrollVelocity{base: base{m, events}, Point: sv}
}

func (a *AddScrollVelocity) Type() Type { return TypeAddScrollVelocity }

func (a *AddScrollVelocity) Perform() {
	a.m.InsertScrollVelocity(a.Point)
	logger.DebugTagf("action", "Added SV at %d (%.2fx)", a.Point.StartTime, a.Point.Multiplier)
	a.dispatch(event.TypeScrollVelocityAdded, event.ScrollVelocityData{Point: a.Point})
}

func (a *AddScrollVelocity) Undo() {
	a.m.RemoveScrollVelocity(a.Point)
	a.dispatch(event.TypeScrollVelocityRemoved, event.ScrollVelocityData{Point: a.Point})
}

// RemoveScrollVelocity deletes one scroll velocity; Undo restores its position.
type RemoveScrollVelocity struct {
	base
	Point *beatmap.ScrollVelocityInfo
	index int
}

// NewRemoveScrollVelocity creates an action removing sv from m.
func NewRemoveScrollVelocity(m *beatmap.Map, events *event.Manager, sv *beatmap.ScrollVelocityInfo) *RemoveScrollVelocity {
	return &RemoveScrollVelocity{base: base{m, events}, Point: sv, index: -1}
}

func (a *RemoveScrollVelocity) Type() Type { return TypeRemoveScrollVelocity }

func (a *RemoveScrollVelocity) Perform() {
	a.index = slices.Index(a.m.ScrollVelocities, a.Point)
	if a.index < 0 {
		logger.Warnf("RemoveScrollVelocity: no SV at %d in the map", a.Point.StartTime)
		return
	}
	a.m.ScrollVelocities = slices.Delete(a.m.ScrollVelocities, a.index, a.index+1)
	a.dispatch(event.TypeScrollVelocityRemoved, event.ScrollVelocityData{Point: a.Point})
}

func (a *RemoveScrollVelocity) Undo() {
	if a.index < 0 {
		return
	}
	a.m.ScrollVelocities = slices.Insert(a.m.ScrollVelocities, a.index, a.Point)
	a.index = -1
	a.dispatch(event.TypeScrollVelocityAdded, event.ScrollVelocityData{Point: a.Point})
}

// AddScrollVelocityBatch inserts several scroll velocities.
type AddScrollVelocityBatch struct {
	base
	Points []*beatmap.ScrollVelocityInfo
}

// NewAddScrollVelocityBatch creates an action adding svs to m.
func NewAddScrollVelocityBatch(m *beatmap.Map, events *event.Manager, svs []*beatmap.ScrollVelocityInfo) *AddScrollVelocityBatch {
	return &AddScrollVelocityBatch{base: base{m, events}, Points: svs}
}

func (a *AddScrollVelocityBatch) Type() Type { return TypeAddScrollVelocityBatch }

func (a *AddScrollVelocityBatch) Perform() {
	for _, sv := range a.Points {
		a.m.InsertScrollVelocity(sv)
	}
	a.dispatch(event.TypeScrollVelocityBatchAdded, event.ScrollVelocityBatchData{Points: a.Points})
}

func (a *AddScrollVelocityBatch) Undo() {
	for _, sv := range a.Points {
		a.m.RemoveScrollVelocity(sv)
	}
	a.dispatch(event.TypeScrollVelocityBatchRemoved, event.ScrollVelocityBatchData{Points: a.Points})
}

// RemoveScrollVelocityBatch deletes several scroll velocities.
type RemoveScrollVelocityBatch struct {
	base
	Points []*beatmap.ScrollVelocityInfo
	before []*beatmap.ScrollVelocityInfo
}

// NewRemoveScrollVelocityBatch creates an action removing svs from m.
func NewRemoveScrollVelocityBatch(m *beatmap.Map, events *event.Manager, svs []*beatmap.ScrollVelocityInfo) *RemoveScrollVelocityBatch {
	return &RemoveScrollVelocityBatch{base: base{m, events}, Points: svs}
}

func (a *RemoveScrollVelocityBatch) Type() Type { return TypeRemoveScrollVelocityBatch }

func (a *RemoveScrollVelocityBatch) Perform() {
	a.before = slices.Clone(a.m.ScrollVelocities)
	a.m.ScrollVelocities = slices.DeleteFunc(a.m.ScrollVelocities, func(sv *beatmap.ScrollVelocityInfo) bool {
		return slices.Contains(a.Points, sv)
	})
	a.dispatch(event.TypeScrollVelocityBatchRemoved, event.ScrollVelocityBatchData{Points: a.Points})
}

func (a *RemoveScrollVelocityBatch) Undo() {
	a.m.ScrollVelocities = a.before
	a.before = nil
	a.dispatch(event.TypeScrollVelocityBatchAdded, event.ScrollVelocityBatchData{Points: a.Points})
}

// ChangeScrollVelocityOffsetBatch shifts scroll velocities in time.
type ChangeScrollVelocityOffsetBatch struct {
	base
	Points []*beatmap.ScrollVelocityInfo
	Offset int
	before []*beatmap.ScrollVelocityInfo
}

// NewChangeScrollVelocityOffsetBatch creates an action moving svs by offset milliseconds.
func NewChangeScrollVelocityOffsetBatch(m *beatmap.Map, events *event.Manager, svs []*beatmap.ScrollVelocityInfo, offset int) *ChangeScrollVelocityOffsetBatch {
	return &ChangeScrollVelocityOffsetBatch{base: base{m, events}, Points: svs, Offset: offset}
}

func (a *ChangeScrollVelocityOffsetBatch) Type() Type { return TypeChangeScrollVelocityOffsetBatch }

func (a *ChangeScrollVelocityOffsetBatch) Perform() {
	a.before = slices.Clone(a.m.ScrollVelocities)
	for _, sv := range a.Points {
		sv.StartTime += a.Offset
	}
	a.m.SortScrollVelocities()
	a.dispatch(event.TypeScrollVelocitiesChanged, event.ScrollVelocityBatchData{Points: a.Points})
}

func (a *ChangeScrollVelocityOffsetBatch) Undo() {
	for _, sv := range a.Points {
		sv.StartTime -= a.Offset
	}
	a.m.ScrollVelocities = a.before
	a.before = nil
	a.dispatch(event.TypeScrollVelocitiesChanged, event.ScrollVelocityBatchData{Points: a.Points})
}

// ChangeScrollVelocityMultiplierBatch sets the multiplier of several scroll velocities.
type ChangeScrollVelocityMultiplierBatch struct {
	base
	Points     []*beatmap.ScrollVelocityInfo
	Multiplier float64
	old        []float64
}

// NewChangeScrollVelocityMultiplierBatch creates an action giving svs the given multiplier.
func NewChangeScrollVelocityMultiplierBatch(m *beatmap.Map, events *event.Manager, svs []*beatmap.ScrollVelocityInfo, multiplier float64) *ChangeScrollVelocityMultiplierBatch {
	return &ChangeScrollVelocityMultiplierBatch{base: base{m, events}, Points: svs, Multiplier: multiplier}
}

func (a *ChangeScrollVelocityMultiplierBatch) Type() Type { return TypeChangeScrollVelocityMultiplierBatch }

func (a *ChangeScrollVelocityMultiplierBatch) Perform() {
	a.old = make([]float64, len(a.Points))
	for i, sv := range a.Points {
		a.old[i] = sv.Multiplier
		sv.Multiplier = a.Multiplier
	}
	a.dispatch(event.TypeScrollVelocitiesChanged, event.ScrollVelocityBatchData{Points: a.Points})
}

func (a *ChangeScrollVelocityMultiplierBatch) Undo() {
	for i := len(a.Points) - 1; i >= 0; i-- {
		a.Points[i].Multiplier = a.old[i]
	}
	a.old = nil
	a.dispatch(event.TypeScrollVelocitiesChanged, event.ScrollVelocityBatchData{Points: a.Points})
}
