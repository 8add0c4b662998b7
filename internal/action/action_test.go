package action

import (
	"testing"

	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/event"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects every event dispatched on a bus.
type recorder struct {
	events []event.Event
}

func (r *recorder) types() []event.Type {
	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newFixture(t *testing.T) (*beatmap.Map, *event.Manager, *recorder) {
	t.Helper()
	m := beatmap.New(4)
	m.InsertTimingPoint(&beatmap.TimingPointInfo{StartTime: 0, Bpm: 120, Signature: 4})
	bus := event.NewManager()
	rec := &recorder{}
	all := make([]event.Type, 0, int(event.TypeMapLoaded))
	for ty := event.TypeHitObjectPlaced; ty <= event.TypeMapLoaded; ty++ {
		all = append(all, ty)
	}
	bus.SubscribeAll(func(e event.Event) bool {
		rec.events = append(rec.events, e)
		return false
	}, all...)
	return m, bus, rec
}

// values copies hit object fields so state can be compared after mutation.
func values(objs []*beatmap.HitObjectInfo) []beatmap.HitObjectInfo {
	out := make([]beatmap.HitObjectInfo, len(objs))
	for i, h := range objs {
		out[i] = *h
	}
	return out
}

func TestPlaceHitObjectRoundTrip(t *testing.T) {
	m, bus, rec := newFixture(t)
	h := &beatmap.HitObjectInfo{StartTime: 500, Lane: 2}

	a := NewPlaceHitObject(m, bus, h)
	assert.Equal(t, TypePlaceHitObject, a.Type())

	a.Perform()
	require.Len(t, m.HitObjects, 1)
	assert.Same(t, h, m.HitObjects[0])

	a.Undo()
	assert.Empty(t, m.HitObjects)

	a.Perform()
	assert.True(t, m.ContainsHitObject(h))

	assert.Equal(t, []event.Type{
		event.TypeHitObjectPlaced,
		event.TypeHitObjectRemoved,
		event.TypeHitObjectPlaced,
	}, rec.types())
	data := rec.events[0].Data.(event.HitObjectData)
	assert.Same(t, h, data.Object)
}

func TestPlaceHitObjectAlreadyPresentIsNoOp(t *testing.T) {
	m, bus, rec := newFixture(t)
	h := &beatmap.HitObjectInfo{StartTime: 500, Lane: 2}
	m.AddHitObject(h)

	a := NewPlaceHitObject(m, bus, h)
	a.Perform()
	a.Undo()

	assert.Len(t, m.HitObjects, 1)
	assert.Empty(t, rec.events)
}

func TestRemoveHitObjectRestoresSameInstance(t *testing.T) {
	m, bus, rec := newFixture(t)
	h := &beatmap.HitObjectInfo{StartTime: 250, Lane: 1}
	other := &beatmap.HitObjectInfo{StartTime: 750, Lane: 3}
	m.AddHitObject(h)
	m.AddHitObject(other)

	a := NewRemoveHitObject(m, bus, h)
	a.Perform()
	assert.False(t, m.ContainsHitObject(h))

	a.Undo()
	assert.True(t, m.ContainsHitObject(h))
	assert.Len(t, m.HitObjects, 2)
	assert.Equal(t, []event.Type{event.TypeHitObjectRemoved, event.TypeHitObjectPlaced}, rec.types())
}

func TestBatchPlaceAndRemove(t *testing.T) {
	m, bus, _ := newFixture(t)
	existing := &beatmap.HitObjectInfo{StartTime: 0, Lane: 1}
	m.AddHitObject(existing)
	a := &beatmap.HitObjectInfo{StartTime: 100, Lane: 2}
	b := &beatmap.HitObjectInfo{StartTime: 200, Lane: 3}

	place := NewPlaceHitObjectBatch(m, bus, []*beatmap.HitObjectInfo{existing, a, b, a})
	place.Perform()
	assert.Len(t, m.HitObjects, 3)

	place.Undo()
	require.Len(t, m.HitObjects, 1)
	assert.Same(t, existing, m.HitObjects[0])

	m.AddHitObject(a)
	m.AddHitObject(b)
	before := values(m.HitObjects)

	remove := NewRemoveHitObjectBatch(m, bus, []*beatmap.HitObjectInfo{a, b, &beatmap.HitObjectInfo{StartTime: 999}})
	remove.Perform()
	require.Len(t, m.HitObjects, 1)

	remove.Undo()
	assert.ElementsMatch(t, before, values(m.HitObjects))
	assert.True(t, m.ContainsHitObject(a))
	assert.True(t, m.ContainsHitObject(b))
}

func TestResizeLongNoteCapturesOnEachPerform(t *testing.T) {
	m, bus, rec := newFixture(t)
	h := &beatmap.HitObjectInfo{StartTime: 100, EndTime: 400, Lane: 1}
	m.AddHitObject(h)

	a := NewResizeLongNote(m, bus, h, 800)
	a.Perform()
	assert.Equal(t, 800, h.EndTime)
	a.Undo()
	assert.Equal(t, 400, h.EndTime)

	// Changed outside the action between undo and redo.
	h.EndTime = 600
	a.Perform()
	a.Undo()
	assert.Equal(t, 600, h.EndTime)

	data := rec.events[1].Data.(event.LongNoteResizedData)
	assert.Equal(t, 800, data.OriginalEndTime)
	assert.Equal(t, 400, data.NewEndTime)
}

func TestResizeToZeroMakesRegularNote(t *testing.T) {
	m, bus, _ := newFixture(t)
	h := &beatmap.HitObjectInfo{StartTime: 100, EndTime: 400, Lane: 1}
	m.AddHitObject(h)

	a := NewResizeLongNote(m, bus, h, 0)
	a.Perform()
	assert.False(t, h.IsLongNote())
	a.Undo()
	assert.True(t, h.IsLongNote())
}

func TestFlipHitObjectsIsSelfInverse(t *testing.T) {
	m, bus, rec := newFixture(t)
	objs := []*beatmap.HitObjectInfo{
		{StartTime: 0, Lane: 1},
		{StartTime: 0, Lane: 2},
		{StartTime: 0, Lane: 4},
	}
	for _, h := range objs {
		m.AddHitObject(h)
	}

	a := NewFlipHitObjects(m, bus, objs)
	a.Perform()
	assert.Equal(t, []int{4, 3, 1}, []int{objs[0].Lane, objs[1].Lane, objs[2].Lane})

	a.Undo()
	assert.Equal(t, []int{1, 2, 4}, []int{objs[0].Lane, objs[1].Lane, objs[2].Lane})
	assert.Equal(t, []event.Type{event.TypeHitObjectsFlipped, event.TypeHitObjectsFlipped}, rec.types())
}

func TestMoveHitObjectsShiftsLongNoteEnds(t *testing.T) {
	m, bus, rec := newFixture(t)
	note := &beatmap.HitObjectInfo{StartTime: 100, Lane: 1}
	ln := &beatmap.HitObjectInfo{StartTime: 200, EndTime: 500, Lane: 2}
	m.AddHitObject(note)
	m.AddHitObject(ln)
	before := values(m.HitObjects)

	a := NewMoveHitObjects(m, bus, []*beatmap.HitObjectInfo{note, ln}, 50, 1)
	a.Perform()
	assert.Equal(t, beatmap.HitObjectInfo{StartTime: 150, Lane: 2}, *note)
	assert.Equal(t, beatmap.HitObjectInfo{StartTime: 250, EndTime: 550, Lane: 3}, *ln)

	a.Undo()
	assert.Equal(t, before, values(m.HitObjects))

	undone := rec.events[1].Data.(event.HitObjectsMovedData)
	assert.Equal(t, -50, undone.TimeOffset)
	assert.Equal(t, -1, undone.LaneOffset)
}

func TestMoveLongNoteBeforeZeroAndBack(t *testing.T) {
	m, bus, _ := newFixture(t)
	ln := &beatmap.HitObjectInfo{StartTime: 100, EndTime: 150, Lane: 1}
	m.AddHitObject(ln)

	a := NewMoveHitObjects(m, bus, []*beatmap.HitObjectInfo{ln}, -200, 0)
	a.Perform()
	assert.Equal(t, beatmap.HitObjectInfo{StartTime: -100, EndTime: -50, Lane: 1}, *ln)

	a.Undo()
	assert.Equal(t, beatmap.HitObjectInfo{StartTime: 100, EndTime: 150, Lane: 1}, *ln)

	a.Perform()
	a.Undo()
	assert.Equal(t, 150, ln.EndTime)
}

func TestResnapHitObjects(t *testing.T) {
	m, bus, rec := newFixture(t)
	off := &beatmap.HitObjectInfo{StartTime: 100, Lane: 1}
	on := &beatmap.HitObjectInfo{StartTime: 250, Lane: 2}
	ln := &beatmap.HitObjectInfo{StartTime: 100, EndTime: 900, Lane: 3}
	objs := []*beatmap.HitObjectInfo{off, on, ln}
	for _, h := range objs {
		m.AddHitObject(h)
	}
	before := values(m.HitObjects)

	a := NewResnapHitObjects(m, bus, []int{4}, objs)
	a.Perform()
	assert.True(t, a.HadEffect())
	assert.Equal(t, 125, off.StartTime)
	assert.Equal(t, 250, on.StartTime)
	assert.Equal(t, 125, ln.StartTime)
	assert.Equal(t, 875, ln.EndTime)
	assert.ElementsMatch(t, []*beatmap.HitObjectInfo{off, ln}, a.AffectedObjects())

	data := rec.events[0].Data.(event.HitObjectsResnappedData)
	assert.Equal(t, []int{4}, data.Snaps)
	assert.Len(t, data.Objects, 2)

	a.Undo()
	assert.Equal(t, before, values(m.HitObjects))
	assert.Nil(t, a.Adjustments())

	// Redo recomputes against the current state.
	a.Perform()
	assert.Equal(t, 125, off.StartTime)
	assert.Len(t, a.Adjustments(), 2)
}

func TestResnapOnGridHasNoEffect(t *testing.T) {
	m, bus, _ := newFixture(t)
	h := &beatmap.HitObjectInfo{StartTime: 375, Lane: 1}
	m.AddHitObject(h)

	a := NewResnapHitObjects(m, bus, []int{4}, []*beatmap.HitObjectInfo{h})
	a.Perform()
	assert.False(t, a.HadEffect())
	assert.Empty(t, a.AffectedObjects())
	assert.Equal(t, 375, h.StartTime)
}

func newLayers(m *beatmap.Map, names ...string) []*beatmap.EditorLayerInfo {
	var layers []*beatmap.EditorLayerInfo
	for _, n := range names {
		l := &beatmap.EditorLayerInfo{Name: n, Color: tcell.ColorDefault}
		m.InsertLayer(0, l)
		layers = append(layers, l)
	}
	return layers
}

func TestRemoveLayerReassignsAndRestores(t *testing.T) {
	m, bus, rec := newFixture(t)
	layers := newLayers(m, "A", "B", "C")
	objs := []*beatmap.HitObjectInfo{
		{StartTime: 0, Lane: 1, EditorLayer: 0},
		{StartTime: 1, Lane: 1, EditorLayer: 1},
		{StartTime: 2, Lane: 1, EditorLayer: 2},
		{StartTime: 3, Lane: 1, EditorLayer: 3},
	}
	for _, h := range objs {
		m.AddHitObject(h)
	}

	a := NewRemoveLayer(m, bus, layers[1])
	a.Perform()
	assert.Equal(t, []*beatmap.EditorLayerInfo{layers[0], layers[2]}, m.EditorLayers)
	assert.Equal(t, []int{0, 1, 0, 2}, layersOf(objs))

	data := rec.events[0].Data.(event.LayerData)
	assert.Equal(t, 2, data.Index)
	assert.Len(t, data.Reassigned, 2)

	a.Undo()
	assert.Equal(t, layers, m.EditorLayers)
	assert.Equal(t, []int{0, 1, 2, 3}, layersOf(objs))
	assert.Equal(t, []event.Type{event.TypeLayerRemoved, event.TypeLayerCreated}, rec.types())
}

func TestRemoveLayerNotInMap(t *testing.T) {
	m, bus, rec := newFixture(t)
	a := NewRemoveLayer(m, bus, &beatmap.EditorLayerInfo{Name: "ghost"})
	a.Perform()
	a.Undo()
	assert.Empty(t, m.EditorLayers)
	assert.Empty(t, rec.events)
}

func TestCreateLayerShiftsLaterAssignments(t *testing.T) {
	m, bus, _ := newFixture(t)
	layers := newLayers(m, "A", "B")
	objs := []*beatmap.HitObjectInfo{
		{StartTime: 0, EditorLayer: 0},
		{StartTime: 1, EditorLayer: 1},
		{StartTime: 2, EditorLayer: 2},
	}
	for _, h := range objs {
		m.AddHitObject(h)
	}

	created := &beatmap.EditorLayerInfo{Name: "new"}
	a := NewCreateLayer(m, bus, created, 1)
	a.Perform()
	assert.Equal(t, 1, m.LayerIndex(created))
	assert.Equal(t, []int{0, 2, 3}, layersOf(objs))
	assert.Same(t, layers[0], m.Layer(2))

	a.Undo()
	assert.Equal(t, layers, m.EditorLayers)
	assert.Equal(t, []int{0, 1, 2}, layersOf(objs))

	appended := NewCreateLayer(m, bus, created, 0)
	appended.Perform()
	assert.Equal(t, 3, m.LayerIndex(created))
	assert.Equal(t, []int{0, 1, 2}, layersOf(objs))
}

func TestEditLayer(t *testing.T) {
	m, bus, rec := newFixture(t)
	l := newLayers(m, "A")[0]

	next := beatmap.EditorLayerInfo{Name: "Drums", Color: tcell.ColorRed, Hidden: true}
	a := NewEditLayer(m, bus, l, next)
	a.Perform()
	assert.Equal(t, next, *l)

	a.Undo()
	assert.Equal(t, "A", l.Name)
	assert.False(t, l.Hidden)

	data := rec.events[1].Data.(event.LayerEditedData)
	assert.Equal(t, "Drums", data.Old.Name)
	assert.Equal(t, "A", data.New.Name)
}

func TestMoveHitObjectsToLayer(t *testing.T) {
	m, bus, rec := newFixture(t)
	newLayers(m, "A", "B")
	objs := []*beatmap.HitObjectInfo{
		{StartTime: 0, EditorLayer: 0},
		{StartTime: 1, EditorLayer: 2},
		{StartTime: 2, EditorLayer: 1},
	}

	a := NewMoveHitObjectsToLayer(m, bus, objs, 2)
	a.Perform()
	assert.Equal(t, []int{2, 2, 2}, layersOf(objs))
	data := rec.events[0].Data.(event.HitObjectsLayerChangedData)
	assert.Len(t, data.Objects, 2)

	a.Undo()
	assert.Equal(t, []int{0, 2, 1}, layersOf(objs))
}

func layersOf(objs []*beatmap.HitObjectInfo) []int {
	out := make([]int, len(objs))
	for i, h := range objs {
		out[i] = h.EditorLayer
	}
	return out
}

func TestTimingPointActions(t *testing.T) {
	m, bus, rec := newFixture(t)
	first := m.TimingPoints[0]
	tp := &beatmap.TimingPointInfo{StartTime: 1000, Bpm: 180, Signature: 4}

	add := NewAddTimingPoint(m, bus, tp)
	add.Perform()
	assert.Same(t, tp, m.TimingPointAt(1500))
	add.Undo()
	assert.Same(t, first, m.TimingPointAt(1500))

	m.InsertTimingPoint(tp)
	remove := NewRemoveTimingPoint(m, bus, first)
	remove.Perform()
	assert.Nil(t, m.TimingPointAt(500))
	remove.Undo()
	assert.Equal(t, []*beatmap.TimingPointInfo{first, tp}, m.TimingPoints)

	assert.Equal(t, []event.Type{
		event.TypeTimingPointAdded, event.TypeTimingPointRemoved,
		event.TypeTimingPointRemoved, event.TypeTimingPointAdded,
	}, rec.types())
}

func TestTimingPointBatchActions(t *testing.T) {
	m, bus, _ := newFixture(t)
	first := m.TimingPoints[0]
	a := &beatmap.TimingPointInfo{StartTime: 1000, Bpm: 150}
	b := &beatmap.TimingPointInfo{StartTime: 2000, Bpm: 200}

	add := NewAddTimingPointBatch(m, bus, []*beatmap.TimingPointInfo{b, a})
	add.Perform()
	assert.Equal(t, []*beatmap.TimingPointInfo{first, a, b}, m.TimingPoints)
	add.Undo()
	assert.Equal(t, []*beatmap.TimingPointInfo{first}, m.TimingPoints)

	add.Perform()
	remove := NewRemoveTimingPointBatch(m, bus, []*beatmap.TimingPointInfo{first, b})
	remove.Perform()
	assert.Equal(t, []*beatmap.TimingPointInfo{a}, m.TimingPoints)
	remove.Undo()
	assert.Equal(t, []*beatmap.TimingPointInfo{first, a, b}, m.TimingPoints)

	bpm := NewChangeTimingPointBpmBatch(m, bus, []*beatmap.TimingPointInfo{a, b}, 100)
	bpm.Perform()
	assert.Equal(t, 100.0, a.Bpm)
	assert.Equal(t, 100.0, b.Bpm)
	bpm.Undo()
	assert.Equal(t, 150.0, a.Bpm)
	assert.Equal(t, 200.0, b.Bpm)
}

func TestChangeTimingPointOffsetBatchResortsAndRestores(t *testing.T) {
	m, bus, rec := newFixture(t)
	first := m.TimingPoints[0]
	a := &beatmap.TimingPointInfo{StartTime: 1000, Bpm: 150}
	b := &beatmap.TimingPointInfo{StartTime: 2000, Bpm: 200}
	m.InsertTimingPoint(a)
	m.InsertTimingPoint(b)

	move := NewChangeTimingPointOffsetBatch(m, bus, []*beatmap.TimingPointInfo{a}, 1500)
	move.Perform()
	assert.Equal(t, 2500, a.StartTime)
	assert.Equal(t, []*beatmap.TimingPointInfo{first, b, a}, m.TimingPoints)

	move.Undo()
	assert.Equal(t, 1000, a.StartTime)
	assert.Equal(t, []*beatmap.TimingPointInfo{first, a, b}, m.TimingPoints)
	assert.Equal(t, []event.Type{event.TypeTimingPointsChanged, event.TypeTimingPointsChanged}, rec.types())
}

func TestScrollVelocityActions(t *testing.T) {
	m, bus, rec := newFixture(t)
	slow := &beatmap.ScrollVelocityInfo{StartTime: 0, Multiplier: 0.5}
	fast := &beatmap.ScrollVelocityInfo{StartTime: 1000, Multiplier: 2}

	add := NewAddScrollVelocity(m, bus, slow)
	add.Perform()
	assert.Same(t, slow, m.ScrollVelocityAt(10))
	add.Undo()
	assert.Nil(t, m.ScrollVelocityAt(10))

	batch := NewAddScrollVelocityBatch(m, bus, []*beatmap.ScrollVelocityInfo{fast, slow})
	batch.Perform()
	assert.Equal(t, []*beatmap.ScrollVelocityInfo{slow, fast}, m.ScrollVelocities)

	remove := NewRemoveScrollVelocity(m, bus, slow)
	remove.Perform()
	assert.Equal(t, []*beatmap.ScrollVelocityInfo{fast}, m.ScrollVelocities)
	remove.Undo()
	assert.Equal(t, []*beatmap.ScrollVelocityInfo{slow, fast}, m.ScrollVelocities)

	removeAll := NewRemoveScrollVelocityBatch(m, bus, []*beatmap.ScrollVelocityInfo{slow, fast})
	removeAll.Perform()
	assert.Empty(t, m.ScrollVelocities)
	removeAll.Undo()
	assert.Equal(t, []*beatmap.ScrollVelocityInfo{slow, fast}, m.ScrollVelocities)

	mult := NewChangeScrollVelocityMultiplierBatch(m, bus, []*beatmap.ScrollVelocityInfo{slow, fast}, 1)
	mult.Perform()
	assert.Equal(t, 1.0, slow.Multiplier)
	mult.Undo()
	assert.Equal(t, 0.5, slow.Multiplier)
	assert.Equal(t, 2.0, fast.Multiplier)

	move := NewChangeScrollVelocityOffsetBatch(m, bus, []*beatmap.ScrollVelocityInfo{slow}, 2000)
	move.Perform()
	assert.Equal(t, []*beatmap.ScrollVelocityInfo{fast, slow}, m.ScrollVelocities)
	move.Undo()
	assert.Equal(t, 0, slow.StartTime)
	assert.Equal(t, []*beatmap.ScrollVelocityInfo{slow, fast}, m.ScrollVelocities)

	assert.Equal(t, event.TypeScrollVelocitiesChanged, rec.events[len(rec.events)-1].Type)
}

func TestNilBusIsAllowed(t *testing.T) {
	m := beatmap.New(4)
	h := &beatmap.HitObjectInfo{StartTime: 1, Lane: 1}
	a := NewPlaceHitObject(m, nil, h)
	assert.NotPanics(t, a.Perform)
	assert.NotPanics(t, a.Undo)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "Resnap Notes", TypeResnapHitObjects.String())
	assert.Equal(t, "Type(99)", Type(99).String())
	for ty := TypeUnknown; ty < typeCount; ty++ {
		assert.NotEmpty(t, ty.String())
	}
}
