package chart

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Margin holds the insets between the canvas edge and the plot area.
type Margin struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Layout fixes the canvas size and margins.
type Layout struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Margin Margin `json:"margin"`
}

// PlotWidth is the canvas width minus the horizontal margins.
func (l Layout) PlotWidth() float64 {
	return float64(l.Width - l.Margin.Left - l.Margin.Right)
}

// PlotHeight is the canvas height minus the vertical margins.
func (l Layout) PlotHeight() float64 {
	return float64(l.Height - l.Margin.Top - l.Margin.Bottom)
}

// Marks holds the cosmetic constants of the per-record marks.
type Marks struct {
	Radius      float64 `json:"radius"`       // circle r
	Opacity     float64 `json:"opacity"`      // circle opacity
	FontSize    int     `json:"font_size"`    // label font size in px
	LabelFactor float64 `json:"label_factor"` // label y = y(healthcare * LabelFactor)
}

// Padding inflates the data extent into the scale domain: [min*Low, max*High].
type Padding struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// TooltipOffset is the [top, left] pixel offset of the tooltip from its anchor.
type TooltipOffset struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Classes are the CSS class names the stylesheet targets.
type Classes struct {
	Circle  string `json:"circle"`
	Text    string `json:"text"`
	Caption string `json:"caption"`
	Tooltip string `json:"tooltip"`
}

// Captions are the axis caption texts.
type Captions struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Config is the immutable description of one chart rendering. It is passed
// by value; nothing in this package mutates a Config it was given.
type Config struct {
	Variant   string        `json:"variant"`
	Layout    Layout        `json:"layout"`
	Marks     Marks         `json:"marks"`
	Padding   Padding       `json:"padding"`
	Tooltip   TooltipOffset `json:"tooltip"`
	Classes   Classes       `json:"classes"`
	Captions  Captions      `json:"captions"`
	TickCount int           `json:"tick_count"`
}

// Variant names.
const (
	VariantClassic = "classic"
	VariantStarter = "starter"
)

// DefaultVariant is used when no variant is configured.
const DefaultVariant = VariantClassic

var presets = map[string]func() Config{
	VariantClassic: Classic,
	VariantStarter: Starter,
}

// Classic is the 960×600 layout with 0.8/1.2 domain padding.
func Classic() Config {
	return Config{
		Variant: VariantClassic,
		Layout: Layout{
			Width:  960,
			Height: 600,
			Margin: Margin{Top: 20, Right: 40, Bottom: 90, Left: 100},
		},
		Marks:     Marks{Radius: 14, Opacity: 0.7, FontSize: 10, LabelFactor: 0.99},
		Padding:   Padding{Low: 0.8, High: 1.2},
		Tooltip:   TooltipOffset{Top: 90, Left: -60},
		Classes:   defaultClasses("aText"),
		Captions:  defaultCaptions(),
		TickCount: 10,
	}
}

// Starter is the 920×620 layout with 0.85/1.25 domain padding.
func Starter() Config {
	return Config{
		Variant: VariantStarter,
		Layout: Layout{
			Width:  920,
			Height: 620,
			Margin: Margin{Top: 20, Right: 40, Bottom: 90, Left: 100},
		},
		Marks:     Marks{Radius: 15, Opacity: 0.8, FontSize: 12, LabelFactor: 0.99},
		Padding:   Padding{Low: 0.85, High: 1.25},
		Tooltip:   TooltipOffset{Top: 85, Left: 85},
		Classes:   defaultClasses("axisText"),
		Captions:  defaultCaptions(),
		TickCount: 10,
	}
}

func defaultClasses(caption string) Classes {
	return Classes{
		Circle:  "stateCircle",
		Text:    "stateText",
		Caption: caption,
		Tooltip: "tooltip d3-tip",
	}
}

func defaultCaptions() Captions {
	return Captions{X: "In Poverty (%)", Y: "Lacks Healthcare(%)"}
}

// ErrUnknownVariant is returned by Preset for names with no preset.
var ErrUnknownVariant = errors.New("unknown chart variant")

// Preset returns the named preset. An empty name selects DefaultVariant.
func Preset(name string) (Config, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultVariant
	}
	fn, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q (have %s)", ErrUnknownVariant, name, strings.Join(Variants(), ", "))
	}
	return fn(), nil
}

// Variants lists the preset names in sorted order.
func Variants() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate reports configurations that cannot produce a plot.
func (c Config) Validate() error {
	if c.Layout.PlotWidth() <= 0 || c.Layout.PlotHeight() <= 0 {
		return fmt.Errorf("plot area %gx%g is empty: canvas %dx%d with margins %+v",
			c.Layout.PlotWidth(), c.Layout.PlotHeight(), c.Layout.Width, c.Layout.Height, c.Layout.Margin)
	}
	if c.Padding.Low <= 0 || c.Padding.High <= 0 {
		return fmt.Errorf("padding factors must be positive, got %g/%g", c.Padding.Low, c.Padding.High)
	}
	if c.Padding.Low > c.Padding.High {
		return fmt.Errorf("padding low %g exceeds high %g", c.Padding.Low, c.Padding.High)
	}
	if c.Marks.Radius < 0 {
		return fmt.Errorf("mark radius must not be negative, got %g", c.Marks.Radius)
	}
	if c.TickCount < 0 {
		return fmt.Errorf("tick count must not be negative, got %d", c.TickCount)
	}
	return nil
}
