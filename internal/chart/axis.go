package chart

import (
	"fmt"
)

// Orient is the side of the plot an axis is drawn on.
type Orient string

const (
	OrientBottom Orient = "bottom"
	OrientLeft   Orient = "left"
)

// Axis geometry constants, in pixels.
const (
	tickSize    = 6
	tickPadding = 3
	// crisp shifts 1px strokes onto pixel centres.
	crisp = 0.5
)

// Tick is one labelled tick mark.
type Tick struct {
	Value  float64 `json:"value"`
	Offset float64 `json:"offset"` // pixel position along the axis
	Label  string  `json:"label"`
}

// Axis is a rendered axis: its placement inside the chart group, the
// domain line and the ticks.
type Axis struct {
	Orient     Orient  `json:"orient"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	RangeStart float64 `json:"range_start"`
	RangeEnd   float64 `json:"range_end"`
	Ticks      []Tick  `json:"ticks"`
}

// NewAxis lays out an axis for scale s with about count ticks.
func NewAxis(orient Orient, s Linear, count int, tx, ty float64) *Axis {
	format := s.TickFormat(count)
	values := s.Ticks(count)
	ticks := make([]Tick, 0, len(values))
	for _, v := range values {
		ticks = append(ticks, Tick{Value: v, Offset: s.Map(v), Label: format(v)})
	}
	return &Axis{
		Orient:     orient,
		TranslateX: tx,
		TranslateY: ty,
		RangeStart: s.Range[0],
		RangeEnd:   s.Range[1],
		Ticks:      ticks,
	}
}

// DomainPath is the SVG path of the axis line with its outer ticks.
func (a *Axis) DomainPath() string {
	r0 := num(a.RangeStart + crisp)
	r1 := num(a.RangeEnd + crisp)
	if a.Orient == OrientLeft {
		return fmt.Sprintf("M-%d,%sH%sV%sH-%d", tickSize, r0, num(crisp), r1, tickSize)
	}
	return fmt.Sprintf("M%s,%dV%sH%sV%d", r0, tickSize, num(crisp), r1, tickSize)
}

func (a *Axis) textAnchor() string {
	if a.Orient == OrientLeft {
		return "end"
	}
	return "middle"
}

func (a *Axis) tickTransform(t Tick) string {
	if a.Orient == OrientLeft {
		return fmt.Sprintf("translate(0,%s)", num(t.Offset+crisp))
	}
	return fmt.Sprintf("translate(%s,0)", num(t.Offset+crisp))
}
