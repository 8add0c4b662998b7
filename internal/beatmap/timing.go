package beatmap

import (
	"sort"

	"github.com/bethropolis/tempo/internal/logger"
)

// TimingPointInfo sets tempo and beat signature from StartTime until the next point.
type TimingPointInfo struct {
	StartTime int // ms
	Bpm       float64
	Signature int // beats per measure
}

// MillisecondsPerBeat is the length of one beat at this point's tempo.
func (tp *TimingPointInfo) MillisecondsPerBeat() float64 {
	if tp.Bpm <= 0 {
		return 0
	}
	return 60000 / tp.Bpm
}

// ScrollVelocityInfo changes the scroll speed from StartTime onwards.
type ScrollVelocityInfo struct {
	StartTime  int // ms
	Multiplier float64
}

// TimingPointAt returns the timing point active at t: the latest one with
// StartTime <= t. It returns nil when t precedes every timing point.
func (m *Map) TimingPointAt(t int) *TimingPointInfo {
	// First index whose StartTime is strictly after t.
	i := sort.Search(len(m.TimingPoints), func(i int) bool {
		return m.TimingPoints[i].StartTime > t
	})
	if i == 0 {
		return nil
	}
	return m.TimingPoints[i-1]
}

// InsertTimingPoint adds tp at its sorted position, after any point with the same time.
func (m *Map) InsertTimingPoint(tp *TimingPointInfo) {
	i := sort.Search(len(m.TimingPoints), func(i int) bool {
		return m.TimingPoints[i].StartTime > tp.StartTime
	})
	m.TimingPoints = append(m.TimingPoints, nil)
	copy(m.TimingPoints[i+1:], m.TimingPoints[i:])
	m.TimingPoints[i] = tp
}

// RemoveTimingPoint removes tp by identity.
func (m *Map) RemoveTimingPoint(tp *TimingPointInfo) bool {
	for i, p := range m.TimingPoints {
		if p == tp {
			m.TimingPoints = append(m.TimingPoints[:i], m.TimingPoints[i+1:]...)
			return true
		}
	}
	logger.Debugf("Map: timing point at %d not found for removal", tp.StartTime)
	return false
}

// SortTimingPoints restores StartTime order after in-place edits.
func (m *Map) SortTimingPoints() {
	sort.SliceStable(m.TimingPoints, func(i, j int) bool {
		return m.TimingPoints[i].StartTime < m.TimingPoints[j].StartTime
	})
}

// ScrollVelocityAt returns the scroll velocity active at t, or nil.
func (m *Map) ScrollVelocityAt(t int) *ScrollVelocityInfo {
	i := sort.Search(len(m.ScrollVelocities), func(i int) bool {
		return m.ScrollVelocities[i].StartTime > t
	})
	if i == 0 {
		return nil
	}
	return m.ScrollVelocities[i-1]
}

// InsertScrollVelocity adds sv at its sorted position.
func (m *Map) InsertScrollVelocity(sv *ScrollVelocityInfo) {
	i := sort.Search(len(m.ScrollVelocities), func(i int) bool {
		return m.ScrollVelocities[i].StartTime > sv.StartTime
	})
	m.ScrollVelocities = append(m.ScrollVelocities, nil)
	copy(m.ScrollVelocities[i+1:], m.ScrollVelocities[i:])
	m.ScrollVelocities[i] = sv
}

// RemoveScrollVelocity removes sv by identity.
func (m *Map) RemoveScrollVelocity(sv *ScrollVelocityInfo) bool {
	for i, p := range m.ScrollVelocities {
		if p == sv {
			m.ScrollVelocities = append(m.ScrollVelocities[:i], m.ScrollVelocities[i+1:]...)
			return true
		}
	}
	logger.Debugf("Map: scroll velocity at %d not found for removal", sv.StartTime)
	return false
}

// SortScrollVelocities restores StartTime order after in-place edits.
func (m *Map) SortScrollVelocities() {
	sort.SliceStable(m.ScrollVelocities, func(i, j int) bool {
		return m.ScrollVelocities[i].StartTime < m.ScrollVelocities[j].StartTime
	})
}
