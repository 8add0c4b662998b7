// Package snap quantizes hit object times onto the beat grid of the active
// timing point.
//
// A snap divisor d splits each beat into d ticks, so ticks of timing point tp
// lie at tp.StartTime + k * 60000/tp.Bpm/d for integer k. Everything here is
// a pure function of its inputs; the resnap action applies and inverts the
// adjustments this package computes.
package snap

import (
	"math"

	"github.com/bethropolis/tempo/internal/beatmap"
)

// TieTolerance is how close, in ms, the forward and backward candidates may be
// before the tie-break rule applies.
const TieTolerance = 2

// Interval returns the tick spacing in ms for divisor at tp's tempo, or 0 when
// either is unusable.
func Interval(tp *beatmap.TimingPointInfo, divisor int) float64 {
	if tp == nil || divisor <= 0 || tp.Bpm <= 0 {
		return 0
	}
	return 60000 / tp.Bpm / float64(divisor)
}

// NearestTick returns the grid tick adjacent to t in the given direction.
// Scanning forward yields the first tick strictly after t when t is on the
// grid, otherwise the next tick above t; backward mirrors that. The result is
// unrounded.
func NearestTick(tp *beatmap.TimingPointInfo, divisor int, t float64, forwards bool) float64 {
	interval := Interval(tp, divisor)
	if interval == 0 {
		return t
	}
	start := float64(tp.StartTime)

	step := interval
	if !forwards {
		step = -interval
	}
	n := math.Round((t + step - start) / interval)
	tick := n*interval + start
	if math.Abs(tick-t) <= interval {
		return tick
	}
	// Rounding landed two ticks away; pull one tick back towards t.
	if forwards {
		n--
	} else {
		n++
	}
	return n*interval + start
}

// ClosestTick returns the tick of divisor nearest to t, rounded to whole ms.
//
// When the forward and backward candidates are within TieTolerance of being
// equidistant, the backward tick is taken relative to t plus one interval.
// That keeps objects already on the grid in place.
func ClosestTick(tp *beatmap.TimingPointInfo, divisor int, t int) int {
	interval := Interval(tp, divisor)
	if interval == 0 {
		return t
	}
	fwd := roundMs(NearestTick(tp, divisor, float64(t), true))
	bwd := roundMs(NearestTick(tp, divisor, float64(t), false))
	fwdDiff := absInt(t - fwd)
	bwdDiff := absInt(t - bwd)

	if absInt(fwdDiff-bwdDiff) <= TieTolerance {
		return roundMs(NearestTick(tp, divisor, float64(t)+interval, false))
	}
	if fwdDiff < bwdDiff {
		return fwd
	}
	return bwd
}

// ClosestTickOverall picks, across divisors, the tick nearest to t under the
// timing point active at t. Ties go to the earlier divisor in the list. Without
// an active timing point or usable divisor t is returned unchanged.
func ClosestTickOverall(m TimingLookup, t int, divisors []int) int {
	tp := m.TimingPointAt(t)
	if tp == nil {
		return t
	}
	best := t
	minDiff := math.MaxInt
	for _, d := range divisors {
		if Interval(tp, d) == 0 {
			continue
		}
		candidate := ClosestTick(tp, d, t)
		if diff := absInt(candidate - t); diff < minDiff {
			best, minDiff = candidate, diff
		}
	}
	return best
}

// TimingLookup is the document surface the resnap algorithm needs.
type TimingLookup interface {
	TimingPointAt(t int) *beatmap.TimingPointInfo
}

func roundMs(v float64) int {
	return int(math.Round(v))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
