package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/bethropolis/tempo/internal/action"
	"github.com/bethropolis/tempo/internal/beatmap"
	"github.com/bethropolis/tempo/internal/clipboard"
	"github.com/bethropolis/tempo/internal/logger"
	"github.com/bethropolis/tempo/internal/snap"
)

// --- Hit objects ---

// PlaceHitObject adds a copy of h to the map and returns the placed object.
func (s *Session) PlaceHitObject(h beatmap.HitObjectInfo) (*beatmap.HitObjectInfo, error) {
	if err := s.validateObject(&h); err != nil {
		return nil, err
	}
	obj := h.Clone()
	s.history.Perform(action.NewPlaceHitObject(s.m, s.events, obj))
	return obj, nil
}

func (s *Session) validateObject(h *beatmap.HitObjectInfo) error {
	if h.Lane < 1 || h.Lane > s.m.KeyCount {
		return fmt.Errorf("%w: lane %d outside 1..%d", ErrInvalidLane, h.Lane, s.m.KeyCount)
	}
	if h.StartTime < 0 {
		return fmt.Errorf("%w: start %d", ErrInvalidTime, h.StartTime)
	}
	if h.EndTime != 0 && h.EndTime <= h.StartTime {
		return fmt.Errorf("%w: end %d not after start %d", ErrInvalidTime, h.EndTime, h.StartTime)
	}
	if h.EditorLayer < beatmap.DefaultLayer || h.EditorLayer > len(s.m.EditorLayers) {
		return fmt.Errorf("%w: %d", ErrInvalidLayer, h.EditorLayer)
	}
	return nil
}

// DeleteSelection removes the selected objects and returns how many were removed.
func (s *Session) DeleteSelection() (int, error) {
	objs := s.Selection()
	switch len(objs) {
	case 0:
		return 0, ErrEmptySelection
	case 1:
		s.history.Perform(action.NewRemoveHitObject(s.m, s.events, objs[0]))
	default:
		s.history.Perform(action.NewRemoveHitObjectBatch(s.m, s.events, objs))
	}
	return len(objs), nil
}

// FlipSelection mirrors the lanes of the selected objects.
func (s *Session) FlipSelection() error {
	objs := s.Selection()
	if len(objs) == 0 {
		return ErrEmptySelection
	}
	s.history.Perform(action.NewFlipHitObjects(s.m, s.events, objs))
	return nil
}

// MoveSelection shifts the selected objects in time and across lanes. The
// whole move is rejected when any object would leave the playfield.
func (s *Session) MoveSelection(timeOffset, laneOffset int) error {
	objs := s.Selection()
	if len(objs) == 0 {
		return ErrEmptySelection
	}
	if timeOffset == 0 && laneOffset == 0 {
		return nil
	}
	for _, h := range objs {
		if lane := h.Lane + laneOffset; lane < 1 || lane > s.m.KeyCount {
			return fmt.Errorf("%w: lane %d outside 1..%d", ErrInvalidLane, lane, s.m.KeyCount)
		}
		if h.StartTime+timeOffset < 0 {
			return fmt.Errorf("%w: start %d", ErrInvalidTime, h.StartTime+timeOffset)
		}
	}
	s.history.Perform(action.NewMoveHitObjects(s.m, s.events, objs, timeOffset, laneOffset))
	return nil
}

// ResizeLongNote sets the end time of h. An end of 0 turns it into a regular note.
func (s *Session) ResizeLongNote(h *beatmap.HitObjectInfo, endTime int) error {
	if !s.m.ContainsHitObject(h) {
		return ErrNotInMap
	}
	if endTime != 0 && endTime <= h.StartTime {
		return fmt.Errorf("%w: end %d not after start %d", ErrInvalidTime, endTime, h.StartTime)
	}
	if endTime == h.EndTime {
		return nil
	}
	s.history.Perform(action.NewResizeLongNote(s.m, s.events, h, endTime))
	return nil
}

// --- Resnap ---

// ResnapSelection snaps the selected objects to the given divisors, or to the
// session's divisors when snaps is empty. It returns how many notes moved.
func (s *Session) ResnapSelection(snaps []int) (int, error) {
	objs := s.Selection()
	if len(objs) == 0 {
		return 0, ErrEmptySelection
	}
	return s.resnap(objs, snaps)
}

// ResnapAll snaps every object of the map.
func (s *Session) ResnapAll(snaps []int) (int, error) {
	return s.resnap(s.m.HitObjects, snaps)
}

// ResnapLayer snaps the objects on one editor layer.
func (s *Session) ResnapLayer(layer int, snaps []int) (int, error) {
	if layer < beatmap.DefaultLayer || layer > len(s.m.EditorLayers) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLayer, layer)
	}
	return s.resnap(s.m.HitObjectsInLayer(layer), snaps)
}

func (s *Session) resnap(objs []*beatmap.HitObjectInfo, snaps []int) (int, error) {
	if len(snaps) == 0 {
		snaps = s.snaps
	}
	snaps, err := validateSnaps(snaps)
	if err != nil {
		return 0, err
	}

	// Nothing is recorded when the preview finds no note off the grid.
	if len(snap.Resnap(s.m, objs, snaps)) == 0 {
		s.statusBar.SetTemporaryMessage("No notes resnapped")
		logger.DebugTagf("resnap", "No notes resnapped out of %d", len(objs))
		return 0, nil
	}

	a := action.NewResnapHitObjects(s.m, s.events, snaps, objs)
	s.history.Perform(a)
	n := len(a.Adjustments())
	s.statusBar.SetTemporaryMessage("Resnapped %d notes", n)
	return n, nil
}

// --- Layers ---

// CreateLayer adds a layer with the session's default colour. index is the
// editor layer index it should get; 0 appends.
func (s *Session) CreateLayer(name string, index int) (*beatmap.EditorLayerInfo, error) {
	if err := beatmap.ValidateLayerName(name); err != nil {
		return nil, err
	}
	if index < 0 || index > len(s.m.EditorLayers)+1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLayer, index)
	}
	l := &beatmap.EditorLayerInfo{Name: name, Color: s.layerColor}
	s.history.Perform(action.NewCreateLayer(s.m, s.events, l, index))
	return l, nil
}

// RemoveLayer deletes the layer at index. Its objects move to the default layer.
func (s *Session) RemoveLayer(index int) error {
	l := s.m.Layer(index)
	if l == nil {
		return fmt.Errorf("%w: %d", ErrInvalidLayer, index)
	}
	s.history.Perform(action.NewRemoveLayer(s.m, s.events, l))
	return nil
}

// EditLayer replaces the name, colour and visibility of the layer at index.
func (s *Session) EditLayer(index int, next beatmap.EditorLayerInfo) error {
	l := s.m.Layer(index)
	if l == nil {
		return fmt.Errorf("%w: %d", ErrInvalidLayer, index)
	}
	if err := beatmap.ValidateLayerName(next.Name); err != nil {
		return err
	}
	if *l == next {
		return nil
	}
	s.history.Perform(action.NewEditLayer(s.m, s.events, l, next))
	return nil
}

// SetLayerHidden toggles visibility of the layer at index.
func (s *Session) SetLayerHidden(index int, hidden bool) error {
	l := s.m.Layer(index)
	if l == nil {
		return fmt.Errorf("%w: %d", ErrInvalidLayer, index)
	}
	next := *l
	next.Hidden = hidden
	return s.EditLayer(index, next)
}

// MoveSelectionToLayer assigns the selected objects to a layer.
func (s *Session) MoveSelectionToLayer(layer int) error {
	objs := s.Selection()
	if len(objs) == 0 {
		return ErrEmptySelection
	}
	if layer < beatmap.DefaultLayer || layer > len(s.m.EditorLayers) {
		return fmt.Errorf("%w: %d", ErrInvalidLayer, layer)
	}
	s.history.Perform(action.NewMoveHitObjectsToLayer(s.m, s.events, objs, layer))
	return nil
}

// --- Timing points ---

// AddTimingPoint inserts a timing point. A signature of 0 means 4/4.
func (s *Session) AddTimingPoint(startTime int, bpm float64, signature int) (*beatmap.TimingPointInfo, error) {
	if !validPositive(bpm) {
		return nil, fmt.Errorf("%w: bpm %v", ErrInvalidValue, bpm)
	}
	if signature < 0 {
		return nil, fmt.Errorf("%w: signature %d", ErrInvalidValue, signature)
	}
	if signature == 0 {
		signature = 4
	}
	tp := &beatmap.TimingPointInfo{StartTime: startTime, Bpm: bpm, Signature: signature}
	s.history.Perform(action.NewAddTimingPoint(s.m, s.events, tp))
	return tp, nil
}

// RemoveTimingPoints removes one or more timing points as a single step.
func (s *Session) RemoveTimingPoints(tps ...*beatmap.TimingPointInfo) error {
	switch len(tps) {
	case 0:
		return ErrEmptySelection
	case 1:
		s.history.Perform(action.NewRemoveTimingPoint(s.m, s.events, tps[0]))
	default:
		s.history.Perform(action.NewRemoveTimingPointBatch(s.m, s.events, tps))
	}
	return nil
}

// ShiftTimingPoints moves timing points by offset ms.
func (s *Session) ShiftTimingPoints(tps []*beatmap.TimingPointInfo, offset int) error {
	if len(tps) == 0 {
		return ErrEmptySelection
	}
	if offset == 0 {
		return nil
	}
	s.history.Perform(action.NewChangeTimingPointOffsetBatch(s.m, s.events, tps, offset))
	return nil
}

// SetTimingPointsBpm sets the tempo of timing points.
func (s *Session) SetTimingPointsBpm(tps []*beatmap.TimingPointInfo, bpm float64) error {
	if len(tps) == 0 {
		return ErrEmptySelection
	}
	if !validPositive(bpm) {
		return fmt.Errorf("%w: bpm %v", ErrInvalidValue, bpm)
	}
	s.history.Perform(action.NewChangeTimingPointBpmBatch(s.m, s.events, tps, bpm))
	return nil
}

// --- Scroll velocities ---

// AddScrollVelocity inserts a scroll velocity point.
func (s *Session) AddScrollVelocity(startTime int, multiplier float64) (*beatmap.ScrollVelocityInfo, error) {
	if !validMultiplier(multiplier) {
		return nil, fmt.Errorf("%w: multiplier %v", ErrInvalidValue, multiplier)
	}
	sv := &beatmap.ScrollVelocityInfo{StartTime: startTime, Multiplier: multiplier}
	s.history.Perform(action.NewAddScrollVelocity(s.m, s.events, sv))
	return sv, nil
}

// RemoveScrollVelocities removes one or more scroll velocity points as a single step.
func (s *Session) RemoveScrollVelocities(svs ...*beatmap.ScrollVelocityInfo) error {
	switch len(svs) {
	case 0:
		return ErrEmptySelection
	case 1:
		s.history.Perform(action.NewRemoveScrollVelocity(s.m, s.events, svs[0]))
	default:
		s.history.Perform(action.NewRemoveScrollVelocityBatch(s.m, s.events, svs))
	}
	return nil
}

// ShiftScrollVelocities moves scroll velocity points by offset ms.
func (s *Session) ShiftScrollVelocities(svs []*beatmap.ScrollVelocityInfo, offset int) error {
	if len(svs) == 0 {
		return ErrEmptySelection
	}
	if offset == 0 {
		return nil
	}
	s.history.Perform(action.NewChangeScrollVelocityOffsetBatch(s.m, s.events, svs, offset))
	return nil
}

// SetScrollVelocityMultiplier sets the multiplier of scroll velocity points.
func (s *Session) SetScrollVelocityMultiplier(svs []*beatmap.ScrollVelocityInfo, multiplier float64) error {
	if len(svs) == 0 {
		return ErrEmptySelection
	}
	if !validMultiplier(multiplier) {
		return fmt.Errorf("%w: multiplier %v", ErrInvalidValue, multiplier)
	}
	s.history.Perform(action.NewChangeScrollVelocityMultiplierBatch(s.m, s.events, svs, multiplier))
	return nil
}

func validPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func validMultiplier(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}

// --- Clipboard ---

// Copy puts the selection on the clipboard.
func (s *Session) Copy() (int, error) {
	objs := s.Selection()
	if len(objs) == 0 {
		return 0, ErrEmptySelection
	}
	n := s.clipboard.Copy(objs)
	s.statusBar.SetTemporaryMessage("Copied %d notes", n)
	return n, nil
}

// Cut copies the selection and deletes it.
func (s *Session) Cut() (int, error) {
	if _, err := s.Copy(); err != nil {
		return 0, err
	}
	return s.DeleteSelection()
}

// Paste places the clipboard content with its earliest note at time. The
// pasted notes become the selection.
func (s *Session) Paste(time int) (int, error) {
	if time < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTime, time)
	}
	objs, err := s.clipboard.Objects(time)
	if err != nil {
		if errors.Is(err, clipboard.ErrEmpty) {
			s.statusBar.SetTemporaryMessage("Clipboard is empty")
		}
		return 0, err
	}
	for _, h := range objs {
		if h.Lane < 1 || h.Lane > s.m.KeyCount {
			return 0, fmt.Errorf("%w: pasted lane %d outside 1..%d", ErrInvalidLane, h.Lane, s.m.KeyCount)
		}
		if s.m.Layer(h.EditorLayer) == nil {
			h.EditorLayer = beatmap.DefaultLayer
		}
	}

	if len(objs) == 1 {
		s.history.Perform(action.NewPlaceHitObject(s.m, s.events, objs[0]))
	} else {
		s.history.Perform(action.NewPlaceHitObjectBatch(s.m, s.events, objs))
	}
	s.ClearSelection()
	s.Select(objs...)
	s.statusBar.SetTemporaryMessage("Pasted %d notes", len(objs))
	return len(objs), nil
}
