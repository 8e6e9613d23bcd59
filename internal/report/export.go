package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/seenimoa/healthscatter/internal/chart"
)

// ════════════════════════════════════════════════════════════════════
// Image Export (gonum/plot)
// ════════════════════════════════════════════════════════════════════

// DPI converts layout pixels into plot lengths.
const DPI = 96

var (
	circleFill = color.NRGBA{R: 0x89, G: 0xbd, B: 0xd3, A: 0xff}
	labelColor = color.White
)

// Px converts a pixel size to a vg length at DPI.
func Px(n float64) vg.Length {
	return vg.Length(n * float64(vg.Inch) / DPI)
}

// Export draws the scene's dataset with gonum/plot in an image format
// (png, pdf, svg, eps, jpg, tif). Domains, captions, mark radius and
// labels follow the scene; records with non-finite values are skipped.
func Export(w io.Writer, s *chart.Scene, f Format) error {
	p, err := Plot(s)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Px(float64(s.Width)), Px(float64(s.Height)), string(f))
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	return nil
}

// Plot builds the gonum plot for s.
func Plot(s *chart.Scene) (*plot.Plot, error) {
	cfg := s.Config
	p := plot.New()
	p.X.Label.Text = cfg.Captions.X
	p.Y.Label.Text = cfg.Captions.Y
	p.X.Tick.Marker = plot.DefaultTicks{}
	p.Y.Tick.Marker = plot.DefaultTicks{}

	circles, labels := points(s)
	if len(circles) > 0 {
		sc, err := plotter.NewScatter(circles)
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = Px(cfg.Marks.Radius)
		fill := circleFill
		fill.A = uint8(math.Round(clamp01(cfg.Marks.Opacity) * 0xff))
		sc.GlyphStyle.Color = fill
		p.Add(sc)

		lb, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("labels: %w", err)
		}
		for i := range lb.TextStyle {
			lb.TextStyle[i].Color = labelColor
			lb.TextStyle[i].Font.Size = Px(float64(cfg.Marks.FontSize))
			lb.TextStyle[i].XAlign = text.XCenter
			lb.TextStyle[i].YAlign = text.YCenter
		}
		p.Add(lb)
	}

	// Pin the axes to the padded domains; an undefined domain falls back
	// to the unit square so an empty plot still draws.
	p.X.Min, p.X.Max = domainOr(s.X.Domain)
	p.Y.Min, p.Y.Max = domainOr(s.Y.Domain)
	return p, nil
}

func points(s *chart.Scene) (plotter.XYs, plotter.XYLabels) {
	var circles plotter.XYs
	labels := plotter.XYLabels{}
	factor := s.Config.Marks.LabelFactor
	for _, r := range s.Records {
		x, y, ly := r.Poverty, r.Healthcare, r.Healthcare*factor
		if !finite(x) || !finite(y) || !finite(ly) {
			continue
		}
		circles = append(circles, plotter.XY{X: x, Y: y})
		labels.XYs = append(labels.XYs, plotter.XY{X: x, Y: ly})
		labels.Labels = append(labels.Labels, r.Abbr)
	}
	return circles, labels
}

func domainOr(d [2]float64) (lo, hi float64) {
	if !finite(d[0]) || !finite(d[1]) {
		return 0, 1
	}
	lo, hi = math.Min(d[0], d[1]), math.Max(d[0], d[1])
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }
