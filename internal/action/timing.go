package action

import (
	"slices"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/bethropolis/tempo/internal/logger"
)

// AddTimingPoint inserts one timing point at its sorted position.
type AddTimingPoint struct {
	base
	Point *beatmap.TimingPointInfo
}

// NewAddTimingPoint creates an action adding tp to m.
func NewAddTimingPoint(m *beatmap.Map, events *event.Manager, tp *beatmap.TimingPointInfo) *AddTimingPoint {
	return &AddTimingPoint{base: base{m, events}, Point: tp}
}

func (a *AddTimingPoint) Type() Type { return TypeAddTimingPoint }

func (a *AddTimingPoint) Perform() {
	a.m.InsertTimingPoint(a.Point)
	logger.DebugTagf("action", "Added timing point at %d (%.2f bpm)", a.Point.StartTime, a.Point.Bpm)
	a.dispatch(event.TypeTimingPointAdded, event.TimingPointData{Point: a.Point})
}

func (a *AddTimingPoint) Undo() {
	a.m.RemoveTimingPoint(a.Point)
	a.dispatch(event.TypeTimingPointRemoved, event.TimingPointData{Point: a.Point})
}

// RemoveTimingPoint deletes one timing point. Undo puts it back at the same position.
type RemoveTimingPoint struct {
	base
	Point *beatmap.TimingPointInfo
	index int
}

// NewRemoveTimingPoint creates an action removing tp from m.
func NewRemoveTimingPoint(m *beatmap.Map, events *event.Manager, tp *beatmap.TimingPointInfo) *RemoveTimingPoint {
	return &RemoveTimingPoint{base: base{m, events}, Point: tp, index: -1}
}

func (a *RemoveTimingPoint) Type() Type { return TypeRemoveTimingPoint }

func (a *RemoveTimingPoint) Perform() {
	a.index = slices.Index(a.m.TimingPoints, a.Point)
	if a.index < 0 {
		logger.Warnf("RemoveTimingPoint: no timing point at %d in the map", a.Point.StartTime)
		return
	}
	a.m.TimingPoints = slices.Delete(a.m.TimingPoints, a.index, a.index+1)
	a.dispatch(event.TypeTimingPointRemoved, event.TimingPointData{Point: a.Point})
}

func (a *RemoveTimingPoint) Undo() {
	if a.index < 0 {
		return
	}
	a.m.TimingPoints = slices.Insert(a.m.TimingPoints, a.index, a.Point)
	a.index = -1
	a.dispatch(event.TypeTimingPointAdded, event.TimingPointData{Point: a.Point})
}

// AddTimingPointBatch inserts several timing points.
type AddTimingPointBatch struct {
	base
	Points []*beatmap.TimingPointInfo
}

// NewAddTimingPointBatch creates an action adding tps to m.
func NewAddTimingPointBatch(m *beatmap.Map, events *event.Manager, tps []*beatmap.TimingPointInfo) *AddTimingPointBatch {
	return &AddTimingPointBatch{base: base{m, events}, Points: tps}
}

func (a *AddTimingPointBatch) Type() Type { return TypeAddTimingPointBatch }

func (a *AddTimingPointBatch) Perform() {
	for _, tp := range a.Points {
		a.m.InsertTimingPoint(tp)
	}
	a.dispatch(event.TypeTimingPointBatchAdded, event.TimingPointBatchData{Points: a.Points})
}

func (a *AddTimingPointBatch) Undo() {
	for _, tp := range a.Points {
		a.m.RemoveTimingPoint(tp)
	}
	a.dispatch(event.TypeTimingPointBatchRemoved, event.TimingPointBatchData{Points: a.Points})
}

// RemoveTimingPointBatch deletes several timing points. Undo restores the
// exact order the list had before.
type RemoveTimingPointBatch struct {
	base
	Points []*beatmap.TimingPointInfo
	before []*beatmap.TimingPointInfo
}

// NewRemoveTimingPointBatch creates an action removing tps from m.
func NewRemoveTimingPointBatch(m *beatmap.Map, events *event.Manager, tps []*beatmap.TimingPointInfo) *RemoveTimingPointBatch {
	return &RemoveTimingPointBatch{base: base{m, events}, Points: tps}
}

func (a *RemoveTimingPointBatch) Type() Type { return TypeRemoveTimingPointBatch }

func (a *RemoveTimingPointBatch) Perform() {
	a.before = slices.Clone(a.m.TimingPoints)
	a.m.TimingPoints = slices.DeleteFunc(a.m.TimingPoints, func(tp *beatmap.TimingPointInfo) bool {
		return slices.Contains(a.Points, tp)
	})
	a.dispatch(event.TypeTimingPointBatchRemoved, event.TimingPointBatchData{Points: a.Points})
}

func (a *RemoveTimingPointBatch) Undo() {
	a.m.TimingPoints = a.before
	a.before = nil
	a.dispatch(event.TypeTimingPointBatchAdded, event.TimingPointBatchData{Points: a.Points})
}

// ChangeTimingPointOffsetBatch shifts timing points in time and re-sorts the list.
type ChangeTimingPointOffsetBatch struct {
	base
	Points []*beatmap.TimingPointInfo
	Offset int
	before []*beatmap.TimingPointInfo
}

// NewChangeTimingPointOffsetBatch creates an action moving tps by offset milliseconds.
func NewChangeTimingPointOffsetBatch(m *beatmap.Map, events *event.Manager, tps []*beatmap.TimingPointInfo, offset int) *ChangeTimingPointOffsetBatch {
	return &ChangeTimingPointOffsetBatch{base: base{m, events}, Points: tps, Offset: offset}
}

func (a *ChangeTimingPointOffsetBatch) Type() Type { return TypeChangeTimingPointOffsetBatch }

func (a *ChangeTimingPointOffsetBatch) Perform() {
	a.before = slices.Clone(a.m.TimingPoints)
	for _, tp := range a.Points {
		tp.StartTime += a.Offset
	}
	a.m.SortTimingPoints()
	a.dispatch(event.TypeTimingPointsChanged, event.TimingPointBatchData{Points: a.Points})
}

func (a *ChangeTimingPointOffsetBatch) Undo() {
	for _, tp := range a.Points {
		tp.StartTime -= a.Offset
	}
	a.m.TimingPoints = a.before
	a.before = nil
	a.dispatch(event.TypeTimingPointsChanged, event.TimingPointBatchData{Points: a.Points})
}

// ChangeTimingPointBpmBatch sets the BPM of several timing points.
type ChangeTimingPointBpmBatch struct {
	base
	Points []*beatmap.TimingPointInfo
	Bpm    float64
	old    []float64
}

// NewChangeTimingPointBpmBatch creates an action giving tps the given BPM.
func NewChangeTimingPointBpmBatch(m *beatmap.Map, events *event.Manager, tps []*beatmap.TimingPointInfo, bpm float64) *ChangeTimingPointBpmBatch {
	return &ChangeTimingPointBpmBatch{base: base{m, events}, Points: tps, Bpm: bpm}
}

func (a *ChangeTimingPointBpmBatch) Type() Type { return TypeChangeTimingPointBpmBatch }

func (a *ChangeTimingPointBpmBatch) Perform() {
	a.old = make([]float64, len(a.Points))
	for i, tp := range a.Points {
		a.old[i] = tp.Bpm
		tp.Bpm = a.Bpm
	}
	a.dispatch(event.TypeTimingPointsChanged, event.TimingPointBatchData{Points: a.Points})
}

func (a *ChangeTimingPointBpmBatch) Undo() {
	for i := len(a.Points) - 1; i >= 0; i-- {
		a.Points[i].Bpm = a.old[i]
	}
	a.old = nil
	a.dispatch(event.TypeTimingPointsChanged, event.TimingPointBatchData{Points: a.Points})
}
