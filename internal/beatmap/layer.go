package beatmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// DefaultLayer is the editor layer index of objects not assigned to a named layer.
const DefaultLayer = 0

// MaxLayerNameWidth is the widest layer name, in terminal cells, the editor accepts.
const MaxLayerNameWidth = 32

// ErrLayerNameTooWide is returned by ValidateLayerName.
var ErrLayerNameTooWide = errors.New("layer name too wide")

// EditorLayerInfo is a named grouping of hit objects.
type EditorLayerInfo struct {
	Name   string
	Color  tcell.Color
	Hidden bool
}

// Layer returns the layer addressed by a hit object's EditorLayer, or nil for
// the default layer and out-of-range indices.
func (m *Map) Layer(index int) *EditorLayerInfo {
	if index <= DefaultLayer || index > len(m.EditorLayers) {
		return nil
	}
	return m.EditorLayers[index-1]
}

// LayerIndex returns the editor layer index of l (1-based), or -1.
func (m *Map) LayerIndex(l *EditorLayerInfo) int {
	for i, layer := range m.EditorLayers {
		if layer == l {
			return i + 1
		}
	}
	return -1
}

// InsertLayer places l so that it gets the given editor layer index. An index
// outside 1..len+1 appends. It returns the index used. Hit object assignments
// are left alone; callers shift them as needed.
func (m *Map) InsertLayer(index int, l *EditorLayerInfo) int {
	if index <= DefaultLayer || index > len(m.EditorLayers)+1 {
		index = len(m.EditorLayers) + 1
	}
	pos := index - 1
	m.EditorLayers = append(m.EditorLayers, nil)
	copy(m.EditorLayers[pos+1:], m.EditorLayers[pos:])
	m.EditorLayers[pos] = l
	return index
}

// RemoveLayer removes l by identity and returns the editor layer index it had, or -1.
func (m *Map) RemoveLayer(l *EditorLayerInfo) int {
	index := m.LayerIndex(l)
	if index < 0 {
		return -1
	}
	pos := index - 1
	m.EditorLayers = append(m.EditorLayers[:pos], m.EditorLayers[pos+1:]...)
	return index
}

// ValidateLayerName rejects empty names and names wider than MaxLayerNameWidth cells.
func ValidateLayerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("layer name cannot be empty")
	}
	if w := uniseg.StringWidth(name); w > MaxLayerNameWidth {
		return fmt.Errorf("%w: %d cells, max %d", ErrLayerNameTooWide, w, MaxLayerNameWidth)
	}
	return nil
}

// ParseLayerColor accepts "#RRGGBB", "r,g,b" or a colour name known to tcell.
// An empty string yields tcell.ColorDefault.
func ParseLayerColor(s string) (tcell.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "default" {
		return tcell.ColorDefault, nil
	}
	if strings.HasPrefix(s, "#") {
		if len(s) != 7 {
			return tcell.ColorDefault, fmt.Errorf("invalid hex color format '%s', must be #RRGGBB", s)
		}
		val, err := strconv.ParseInt(s[1:], 16, 32)
		if err != nil {
			return tcell.ColorDefault, fmt.Errorf("invalid hex value '%s': %w", s, err)
		}
		return tcell.NewHexColor(int32(val)), nil
	}
	if parts := strings.Split(s, ","); len(parts) == 3 {
		var rgb [3]int32
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || v < 0 || v > 255 {
				return tcell.ColorDefault, fmt.Errorf("invalid rgb component '%s' in '%s'", p, s)
			}
			rgb[i] = int32(v)
		}
		return tcell.NewRGBColor(rgb[0], rgb[1], rgb[2]), nil
	}
	if c, ok := tcell.ColorNames[s]; ok {
		return c, nil
	}
	return tcell.ColorDefault, fmt.Errorf("unknown color format or name '%s'", s)
}

// FormatLayerColor renders c as "r,g,b", or "" for the default colour.
func FormatLayerColor(c tcell.Color) string {
	if c == tcell.ColorDefault || !c.Valid() {
		return ""
	}
	r, g, b := c.RGB()
	return fmt.Sprintf("%d,%d,%d", r, g, b)
}
