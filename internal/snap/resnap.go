package snap

import (
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/logger"
)

// NoteAdjustment records the times of one hit object before and after a resnap.
type NoteAdjustment struct {
	OriginalStartTime int
	OriginalEndTime   int
	NewStartTime      int
	NewEndTime        int
	IsLongNote        bool
}

// StartTimeWasChanged reports whether the start moved.
func (a NoteAdjustment) StartTimeWasChanged() bool {
	return a.OriginalStartTime != a.NewStartTime
}

// EndTimeWasChanged reports whether the end of a long note moved.
func (a NoteAdjustment) EndTimeWasChanged() bool {
	return a.IsLongNote && a.OriginalEndTime != a.NewEndTime
}

// NoteWasMoved reports whether either end moved.
func (a NoteAdjustment) NoteWasMoved() bool {
	return a.StartTimeWasChanged() || a.EndTimeWasChanged()
}

// Adjustment ties a NoteAdjustment to the object it applies to.
type Adjustment struct {
	Object *beatmap.HitObjectInfo
	NoteAdjustment
}

// Apply writes the new times onto the object.
func (a Adjustment) Apply() {
	a.Object.StartTime = a.NewStartTime
	if a.IsLongNote {
		a.Object.EndTime = a.NewEndTime
	}
}

// Revert restores the original times.
func (a Adjustment) Revert() {
	a.Object.StartTime = a.OriginalStartTime
	if a.IsLongNote {
		a.Object.EndTime = a.OriginalEndTime
	}
}

// Resnap computes, for each object, its nearest tick across divisors and
// returns an Adjustment for every object that would move, in input order.
// Long note ends are snapped independently of starts. An end that would land
// on or before the new start is handled by validEnd. Objects are not modified.
func Resnap(m TimingLookup, objects []*beatmap.HitObjectInfo, divisors []int) []Adjustment {
	var adjustments []Adjustment
	seen := make(map[*beatmap.HitObjectInfo]struct{}, len(objects))

	for _, h := range objects {
		if h == nil {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}

		adj := NoteAdjustment{
			OriginalStartTime: h.StartTime,
			OriginalEndTime:   h.EndTime,
			NewStartTime:      ClosestTickOverall(m, h.StartTime, divisors),
			NewEndTime:        h.EndTime,
			IsLongNote:        h.IsLongNote(),
		}
		if adj.IsLongNote {
			end := ClosestTickOverall(m, h.EndTime, divisors)
			if end > adj.NewStartTime {
				adj.NewEndTime = end
			} else {
				adj.NewEndTime = validEnd(m, adj, divisors)
				logger.DebugTagf("resnap", "long note at %d: snapped end %d collapses it, using %d",
					h.StartTime, end, adj.NewEndTime)
			}
		}

		if adj.NoteWasMoved() {
			adjustments = append(adjustments, Adjustment{Object: h, NoteAdjustment: adj})
		}
	}

	logger.DebugTagf("resnap", "%d of %d objects need adjusting for divisors %v", len(adjustments), len(objects), divisors)
	return adjustments
}

// validEnd picks the end of a long note whose snapped end fell on or before
// its new start. The old end is kept while it is still after the new start;
// otherwise the end moves to the next tick of the finest divisor after the
// new start, or keeps the original duration when there is no grid.
func validEnd(m TimingLookup, adj NoteAdjustment, divisors []int) int {
	if adj.OriginalEndTime > adj.NewStartTime {
		return adj.OriginalEndTime
	}
	finest := 0
	for _, d := range divisors {
		finest = max(finest, d)
	}
	if tp := m.TimingPointAt(adj.NewStartTime); Interval(tp, finest) > 0 {
		if end := roundMs(NearestTick(tp, finest, float64(adj.NewStartTime), true)); end > adj.NewStartTime {
			return end
		}
	}
	return adj.NewStartTime + max(adj.OriginalEndTime-adj.OriginalStartTime, 1)
}
