package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sync"

	"github.com/seenimoa/healthscatter/pkg/models"
)

// MarkKind identifies which of a record's two marks an event targets.
type MarkKind string

const (
	MarkCircle MarkKind = "circle"
	MarkText   MarkKind = "text"
)

// ParseMarkKind accepts "circle" or "text"; empty means circle.
func ParseMarkKind(s string) (MarkKind, error) {
	switch MarkKind(s) {
	case "", MarkCircle:
		return MarkCircle, nil
	case MarkText:
		return MarkText, nil
	}
	return "", fmt.Errorf("unknown mark kind %q", s)
}

// MarkGeometry locates a mark in chart-group coordinates.
type MarkGeometry struct {
	Kind   MarkKind `json:"kind"`
	Index  int      `json:"index"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Radius float64  `json:"radius,omitempty"` // circles only
	Height float64  `json:"height,omitempty"` // texts only: font size
}

// North is the top-centre point of the mark.
func (g MarkGeometry) North() (x, y float64) {
	if g.Kind == MarkText {
		return g.X, g.Y - g.Height
	}
	return g.X, g.Y - g.Radius
}

// TooltipState describes the tooltip after a hover event. Left/Top are the
// canvas coordinates of the anchor with the configured offset applied; the
// box sits above the anchor (direction "n").
type TooltipState struct {
	Visible   bool     `json:"visible"`
	Index     int      `json:"index"`
	Mark      MarkKind `json:"mark,omitempty"`
	HTML      string   `json:"html,omitempty"`
	Class     string   `json:"class"`
	Left      float64  `json:"left"`
	Top       float64  `json:"top"`
	Direction string   `json:"direction"`
}

// MarshalJSON encodes NaN positions as null.
func (t TooltipState) MarshalJSON() ([]byte, error) {
	type alias TooltipState
	return json.Marshal(struct {
		alias
		Left models.Float `json:"left"`
		Top  models.Float `json:"top"`
	}{alias(t), models.Float(t.Left), models.Float(t.Top)})
}

// Tooltip holds the show/hide handlers for one chart configuration.
type Tooltip struct {
	class  string
	offset TooltipOffset
	origin [2]float64
}

// NewTooltip creates the tooltip handlers for cfg.
func NewTooltip(cfg Config) Tooltip {
	return Tooltip{
		class:  cfg.Classes.Tooltip,
		offset: cfg.Tooltip,
		origin: [2]float64{float64(cfg.Layout.Margin.Left), float64(cfg.Layout.Margin.Top)},
	}
}

// Content is the tooltip body for r.
func (t Tooltip) Content(r models.Record) string {
	return fmt.Sprintf("%s<br>Poverty: %s%%<br>Healthcare: %s%%",
		html.EscapeString(r.State), models.FormatNumber(r.Poverty), models.FormatNumber(r.Healthcare))
}

// Show is the hover-enter handler.
func (t Tooltip) Show(r models.Record, g MarkGeometry) TooltipState {
	st := t.Hide(r, g)
	nx, ny := g.North()
	st.Visible = true
	st.HTML = t.Content(r)
	st.Left = t.origin[0] + nx + t.offset.Left
	st.Top = t.origin[1] + ny + t.offset.Top
	return st
}

// Hide is the hover-exit handler.
func (t Tooltip) Hide(_ models.Record, g MarkGeometry) TooltipState {
	return TooltipState{Index: g.Index, Mark: g.Kind, Class: t.class, Direction: "n"}
}

// ErrNoSuchMark is returned for hover events on marks the scene lacks.
var ErrNoSuchMark = errors.New("no such mark")

// Geometry returns the geometry of mark kind for record i.
func (s *Scene) Geometry(kind MarkKind, i int) (MarkGeometry, error) {
	switch kind {
	case MarkCircle:
		if i >= 0 && i < len(s.Circles) {
			c := s.Circles[i]
			return MarkGeometry{Kind: kind, Index: i, X: c.CX, Y: c.CY, Radius: c.R}, nil
		}
	case MarkText:
		if i >= 0 && i < len(s.Labels) {
			t := s.Labels[i]
			return MarkGeometry{Kind: kind, Index: i, X: t.X, Y: t.Y, Height: float64(t.FontSize)}, nil
		}
	default:
		return MarkGeometry{}, fmt.Errorf("%w: kind %q", ErrNoSuchMark, kind)
	}
	return MarkGeometry{}, fmt.Errorf("%w: %s %d of %d", ErrNoSuchMark, kind, i, len(s.Records))
}

// Hover returns the shown tooltip for a pointer entering mark kind of record i.
func (s *Scene) Hover(kind MarkKind, i int) (TooltipState, error) {
	g, err := s.Geometry(kind, i)
	if err != nil {
		return TooltipState{}, err
	}
	return s.Tooltip().Show(s.Records[i], g), nil
}

// TooltipsFor precomputes the shown tooltip of every record's kind mark.
func (s *Scene) TooltipsFor(kind MarkKind) []TooltipState {
	out := make([]TooltipState, 0, len(s.Records))
	for i := range s.Records {
		st, err := s.Hover(kind, i)
		if err != nil {
			break
		}
		out = append(out, st)
	}
	return out
}

// --- Hover tracking ---

// HoverTracker turns enter/leave events into tooltip states. At most one
// tooltip is visible: entering a mark replaces whatever was shown, and
// leaving hides only when the left record is the one shown.
type HoverTracker struct {
	mu      sync.Mutex
	scene   *Scene
	tip     Tooltip
	current TooltipState
}

// NewHoverTracker creates a tracker over s with nothing shown.
func NewHoverTracker(s *Scene) *HoverTracker {
	tip := s.Tooltip()
	return &HoverTracker{
		scene:   s,
		tip:     tip,
		current: TooltipState{Index: -1, Class: tip.class, Direction: "n"},
	}
}

// Enter handles a pointer entering a mark.
func (h *HoverTracker) Enter(kind MarkKind, i int) (TooltipState, error) {
	g, err := h.scene.Geometry(kind, i)
	if err != nil {
		return TooltipState{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = h.tip.Show(h.scene.Records[i], g)
	return h.current, nil
}

// Leave handles a pointer leaving a mark. Circle and text of one record
// share the tooltip, so leaving either hides it.
func (h *HoverTracker) Leave(kind MarkKind, i int) (TooltipState, error) {
	g, err := h.scene.Geometry(kind, i)
	if err != nil {
		return TooltipState{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current.Visible && h.current.Index == i {
		h.current = h.tip.Hide(h.scene.Records[i], g)
	}
	return h.current, nil
}

// Current returns the tooltip state as of the last event.
func (h *HoverTracker) Current() TooltipState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}
