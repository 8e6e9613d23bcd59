// Package chart builds the poverty vs. healthcare scatter plot: linear
// scales over padded data extents, bottom and left axes, one circle and one
// abbreviation label per record, hover tooltips and axis captions.
//
// Build is a pure function of a dataset and a Config. Renderer adds the
// load step in front of it and turns load failures into an empty canvas.
package chart

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/seenimoa/healthscatter/internal/datasource"
	"github.com/seenimoa/healthscatter/pkg/models"
)

// CircleMark is the circle drawn for one record.
type CircleMark struct {
	Index   int     `json:"index"`
	CX      float64 `json:"cx"`
	CY      float64 `json:"cy"`
	R       float64 `json:"r"`
	Opacity float64 `json:"opacity"`
	Class   string  `json:"class"`
}

// TextMark is the abbreviation label drawn over a record's circle.
type TextMark struct {
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize int     `json:"font_size"`
	Class    string  `json:"class"`
}

// Caption is an axis caption. Transform is applied before X/Y.
type Caption struct {
	Text      string  `json:"text"`
	Transform string  `json:"transform"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	DY        string  `json:"dy,omitempty"`
	Class     string  `json:"class"`
}

// Scene is the complete visual tree of one chart.
type Scene struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	OriginX    int     `json:"origin_x"` // chart group translation
	OriginY    int     `json:"origin_y"`
	PlotWidth  float64 `json:"plot_width"`
	PlotHeight float64 `json:"plot_height"`

	X     Linear `json:"x_scale"`
	Y     Linear `json:"y_scale"`
	XAxis *Axis  `json:"x_axis,omitempty"`
	YAxis *Axis  `json:"y_axis,omitempty"`

	Circles  []CircleMark   `json:"circles"`
	Labels   []TextMark     `json:"labels"`
	Captions []Caption      `json:"captions"`
	Records  models.Dataset `json:"records"`

	Config Config `json:"config"`

	// LoadErr is set when the dataset could not be loaded; the scene then
	// holds only the empty canvas and chart group.
	LoadErr error `json:"-"`
}

// emptyScene is the canvas and chart group without any content.
func emptyScene(cfg Config) *Scene {
	return &Scene{
		Width:      cfg.Layout.Width,
		Height:     cfg.Layout.Height,
		OriginX:    cfg.Layout.Margin.Left,
		OriginY:    cfg.Layout.Margin.Top,
		PlotWidth:  cfg.Layout.PlotWidth(),
		PlotHeight: cfg.Layout.PlotHeight(),
		Circles:    []CircleMark{},
		Labels:     []TextMark{},
		Captions:   []Caption{},
		Config:     cfg,
	}
}

// Build lays out the chart for ds. It never fails: malformed numbers end up
// as NaN coordinates.
func Build(ds models.Dataset, cfg Config) *Scene {
	s := emptyScene(cfg)
	s.Records = ds

	s.X = NewLinear(PaddedDomain(ds.Poverty(), cfg.Padding), [2]float64{0, s.PlotWidth})
	s.Y = NewLinear(PaddedDomain(ds.Healthcare(), cfg.Padding), [2]float64{s.PlotHeight, 0})

	s.XAxis = NewAxis(OrientBottom, s.X, cfg.TickCount, 0, s.PlotHeight)
	s.YAxis = NewAxis(OrientLeft, s.Y, cfg.TickCount, 0, 0)

	s.Circles = make([]CircleMark, len(ds))
	s.Labels = make([]TextMark, len(ds))
	for i, r := range ds {
		x := s.X.Map(r.Poverty)
		s.Circles[i] = CircleMark{
			Index:   i,
			CX:      x,
			CY:      s.Y.Map(r.Healthcare),
			R:       cfg.Marks.Radius,
			Opacity: cfg.Marks.Opacity,
			Class:   cfg.Classes.Circle,
		}
		s.Labels[i] = TextMark{
			Index:    i,
			X:        x,
			Y:        s.Y.Map(r.Healthcare * cfg.Marks.LabelFactor),
			Text:     r.Abbr,
			FontSize: cfg.Marks.FontSize,
			Class:    cfg.Classes.Text,
		}
	}

	s.Captions = []Caption{
		{
			Text:      cfg.Captions.Y,
			Transform: "rotate(-90)",
			Y:         float64(40 - cfg.Layout.Margin.Left),
			X:         -s.PlotHeight / 2,
			DY:        "1em",
			Class:     cfg.Classes.Caption,
		},
		{
			Text:      cfg.Captions.X,
			Transform: "translate(" + num(s.PlotWidth/2) + ", " + num(s.PlotHeight+float64(cfg.Layout.Margin.Top)+30) + ")",
			Class:     cfg.Classes.Caption,
		},
	}
	return s
}

// Failed reports whether the scene stands for a failed load.
func (s *Scene) Failed() bool { return s.LoadErr != nil }

// Tooltip returns the tooltip handlers bound to this scene's config.
func (s *Scene) Tooltip() Tooltip {
	return NewTooltip(s.Config)
}

// MarshalJSON encodes NaN coordinates as null.
func (m CircleMark) MarshalJSON() ([]byte, error) {
	type alias CircleMark
	return json.Marshal(struct {
		alias
		CX models.Float `json:"cx"`
		CY models.Float `json:"cy"`
	}{alias(m), models.Float(m.CX), models.Float(m.CY)})
}

// MarshalJSON encodes NaN coordinates as null.
func (m TextMark) MarshalJSON() ([]byte, error) {
	type alias TextMark
	return json.Marshal(struct {
		alias
		X models.Float `json:"x"`
		Y models.Float `json:"y"`
	}{alias(m), models.Float(m.X), models.Float(m.Y)})
}

// --- Renderer ---

// Renderer loads a dataset and builds its scene.
type Renderer struct {
	cfg Config
	src datasource.Source
	log *slog.Logger
}

// NewRenderer creates a renderer. A nil logger uses slog.Default().
func NewRenderer(cfg Config, src datasource.Source, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{cfg: cfg, src: src, log: log}
}

// Config returns the renderer's configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Render loads the dataset and builds the scene. A load failure is logged
// once and yields an empty canvas with LoadErr set; nothing is drawn.
func (r *Renderer) Render(ctx context.Context) *Scene {
	ds, err := r.src.Load(ctx)
	if err != nil {
		r.log.Error("dataset load failed", "source", r.src.Name(), "err", err)
		s := emptyScene(r.cfg)
		s.LoadErr = err
		return s
	}
	r.log.Debug("dataset loaded", "source", r.src.Name(), "records", len(ds))
	return Build(ds, r.cfg)
}
