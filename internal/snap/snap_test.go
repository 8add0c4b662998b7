package snap

import (
	"testing"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMap(points ...*beatmap.TimingPointInfo) *beatmap.Map {
	m := beatmap.New(4)
	for _, tp := range points {
		m.InsertTimingPoint(tp)
	}
	return m
}

var tp120 = &beatmap.TimingPointInfo{StartTime: 0, Bpm: 120, Signature: 4}

func TestInterval(t *testing.T) {
	assert.InDelta(t, 125.0, Interval(tp120, 4), 1e-9)
	assert.InDelta(t, 166.6667, Interval(tp120, 3), 1e-3)
	assert.Zero(t, Interval(tp120, 0))
	assert.Zero(t, Interval(&beatmap.TimingPointInfo{Bpm: 0}, 4))
	assert.Zero(t, Interval(nil, 4))
}

func TestNearestTick(t *testing.T) {
	tests := []struct {
		name     string
		time     float64
		forwards bool
		want     float64
	}{
		{"forward between ticks", 100, true, 125},
		{"backward between ticks", 100, false, 0},
		{"forward from tick skips it", 125, true, 250},
		{"backward from tick skips it", 125, false, 0},
		{"forward just past tick", 130, true, 250},
		{"backward far into interval", 240, false, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NearestTick(tp120, 4, tt.time, tt.forwards), 1e-9)
		})
	}
}

func TestClosestTick(t *testing.T) {
	tests := []struct {
		name    string
		divisor int
		time    int
		want    int
	}{
		{"nearer backward", 4, 30, 0},
		{"nearer forward", 4, 100, 125},
		{"on tick stays", 4, 250, 250},
		{"near tie resolves via tick below time plus interval", 4, 62, 125},
		{"other side of near tie", 4, 63, 125},
		{"outside tolerance picks nearer", 4, 61, 0},
		{"thirds round to whole ms", 3, 150, 167},
		{"rounded third tick stays", 3, 167, 167},
		{"unusable divisor", 0, 99, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClosestTick(tp120, tt.divisor, tt.time))
		})
	}
}

func TestClosestTickOverall(t *testing.T) {
	m := newTestMap(tp120)

	t.Run("scenario 1 single divisor", func(t *testing.T) {
		assert.Equal(t, 125, ClosestTickOverall(m, 100, []int{4}))
	})
	t.Run("scenario 2 smaller distance wins", func(t *testing.T) {
		assert.Equal(t, 167, ClosestTickOverall(m, 150, []int{4, 3}))
	})
	t.Run("equal distance goes to first divisor", func(t *testing.T) {
		assert.Equal(t, 125, ClosestTickOverall(m, 146, []int{4, 3}))
		assert.Equal(t, 167, ClosestTickOverall(m, 146, []int{3, 4}))
	})
	t.Run("no divisors leaves time", func(t *testing.T) {
		assert.Equal(t, 146, ClosestTickOverall(m, 146, nil))
		assert.Equal(t, 146, ClosestTickOverall(m, 146, []int{0, -4}))
	})
}

func TestClosestTickOverallTimingRegions(t *testing.T) {
	late := &beatmap.TimingPointInfo{StartTime: 1000, Bpm: 180, Signature: 4}
	m := newTestMap(tp120, late)

	// Grid of the second point: ticks at 1000, 1333.33, ...
	assert.Equal(t, 1333, ClosestTickOverall(m, 1300, []int{1}))
	// Still governed by the first point even though the tick lands at 1000.
	assert.Equal(t, 1000, ClosestTickOverall(m, 990, []int{1}))
}

func TestClosestTickOverallWithoutTimingPoint(t *testing.T) {
	m := newTestMap(&beatmap.TimingPointInfo{StartTime: 1000, Bpm: 120})
	assert.Equal(t, 500, ClosestTickOverall(m, 500, []int{4}))
	assert.Equal(t, 500, ClosestTickOverall(newTestMap(), 500, []int{4}))
}

func TestResnapLongNote(t *testing.T) {
	m := newTestMap(tp120)
	ln := &beatmap.HitObjectInfo{StartTime: 100, EndTime: 900, Lane: 1}

	adjs := Resnap(m, []*beatmap.HitObjectInfo{ln}, []int{4})
	require.Len(t, adjs, 1)
	adj := adjs[0]
	assert.Same(t, ln, adj.Object)
	assert.Equal(t, 125, adj.NewStartTime)
	assert.Equal(t, 875, adj.NewEndTime)
	assert.True(t, adj.StartTimeWasChanged())
	assert.True(t, adj.EndTimeWasChanged())
	assert.True(t, adj.NoteWasMoved())

	// Resnap computes only.
	assert.Equal(t, 100, ln.StartTime)

	adj.Apply()
	assert.Equal(t, 125, ln.StartTime)
	assert.Equal(t, 875, ln.EndTime)
	adj.Revert()
	assert.Equal(t, 100, ln.StartTime)
	assert.Equal(t, 900, ln.EndTime)
}

func TestResnapKeepsCollapsingLongNoteEnd(t *testing.T) {
	m := newTestMap(tp120)
	// Start snaps to 125, end would snap to 125 as well.
	ln := &beatmap.HitObjectInfo{StartTime: 110, EndTime: 130}

	adjs := Resnap(m, []*beatmap.HitObjectInfo{ln}, []int{4})
	require.Len(t, adjs, 1)
	assert.Equal(t, 125, adjs[0].NewStartTime)
	assert.Equal(t, 130, adjs[0].NewEndTime)
	assert.False(t, adjs[0].EndTimeWasChanged())
}

func TestResnapMovesEndPastNewStart(t *testing.T) {
	m := newTestMap(tp120)
	tests := []struct {
		name     string
		divisors []int
		want     int
	}{
		{"next tick of only divisor", []int{4}, 250},
		{"next tick of finest divisor", []int{4, 16}, 156},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Start snaps to 125; the old end at 110 would sit before it.
			ln := &beatmap.HitObjectInfo{StartTime: 100, EndTime: 110, Lane: 1}

			adjs := Resnap(m, []*beatmap.HitObjectInfo{ln}, tt.divisors)
			require.Len(t, adjs, 1)
			assert.Equal(t, 125, adjs[0].NewStartTime)
			assert.Equal(t, tt.want, adjs[0].NewEndTime)

			adjs[0].Apply()
			assert.Greater(t, ln.EndTime, ln.StartTime)
			adjs[0].Revert()
			assert.Equal(t, 100, ln.StartTime)
			assert.Equal(t, 110, ln.EndTime)
		})
	}
}

func TestResnapNoEffect(t *testing.T) {
	m := newTestMap(tp120)
	objs := []*beatmap.HitObjectInfo{
		{StartTime: 0, Lane: 1},
		{StartTime: 125, Lane: 2},
		{StartTime: 250, EndTime: 500, Lane: 3},
	}
	assert.Empty(t, Resnap(m, objs, []int{4}))
}

func TestResnapIdempotent(t *testing.T) {
	m := newTestMap(tp120)
	objs := []*beatmap.HitObjectInfo{
		{StartTime: 100, Lane: 1},
		{StartTime: 150, Lane: 2},
		{StartTime: 333, Lane: 3},
		{StartTime: 100, EndTime: 910, Lane: 4},
	}
	divisors := []int{4, 3}

	first := Resnap(m, objs, divisors)
	require.NotEmpty(t, first)
	for _, adj := range first {
		adj.Apply()
	}
	assert.Equal(t, 125, objs[0].StartTime)
	assert.Equal(t, 167, objs[1].StartTime)
	assert.Equal(t, 333, objs[2].StartTime)
	assert.Equal(t, 875, objs[3].EndTime)

	assert.Empty(t, Resnap(m, objs, divisors))
}

func TestResnapSkipsDuplicatesAndNil(t *testing.T) {
	m := newTestMap(tp120)
	h := &beatmap.HitObjectInfo{StartTime: 100}
	adjs := Resnap(m, []*beatmap.HitObjectInfo{h, nil, h}, []int{4})
	assert.Len(t, adjs, 1)
}
