package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/healthscatter/internal/datasource"
	"github.com/seenimoa/healthscatter/internal/infra"
	"github.com/seenimoa/healthscatter/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func twoStates() models.Dataset {
	return models.Dataset{
		{State: "Ohio", Abbr: "OH", Poverty: 14.2, Healthcare: 10.1},
		{State: "Texas", Abbr: "TX", Poverty: 18.0, Healthcare: 15.3},
	}
}

func parseSVG(t *testing.T, s *Scene) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.String()))
	if err != nil {
		t.Fatalf("parse svg: %v", err)
	}
	return doc
}

// ════════════════════════════════════════════════════════════════════
// Build
// ════════════════════════════════════════════════════════════════════

func TestBuild_TwoRecords(t *testing.T) {
	s := Build(twoStates(), Classic())
	doc := parseSVG(t, s)

	if n := doc.Find("circle.stateCircle").Length(); n != 2 {
		t.Errorf("expected 2 circles, got %d", n)
	}
	var labels []string
	doc.Find("text.stateText").Each(func(_ int, sel *goquery.Selection) {
		labels = append(labels, sel.Text())
	})
	if strings.Join(labels, ",") != "OH,TX" {
		t.Errorf("labels = %v, want [OH TX]", labels)
	}
	if n := doc.Find(`g[text-anchor="middle"] path.domain`).Length(); n != 1 {
		t.Errorf("expected 1 bottom axis, got %d", n)
	}
	if n := doc.Find(`g[text-anchor="end"] path.domain`).Length(); n != 1 {
		t.Errorf("expected 1 left axis, got %d", n)
	}
	if n := doc.Find("text.aText").Length(); n != 2 {
		t.Errorf("expected 2 captions, got %d", n)
	}
	if got, _ := doc.Find("svg").Attr("width"); got != "960" {
		t.Errorf("svg width = %q", got)
	}
	if got, _ := doc.Find("svg > g").First().Attr("transform"); got != "translate(100, 20)" {
		t.Errorf("chart group transform = %q", got)
	}
}

func TestBuild_MarksInsidePlot(t *testing.T) {
	ds := models.Dataset{
		{Abbr: "A", Poverty: 9.2, Healthcare: 4.6},
		{Abbr: "B", Poverty: 21.5, Healthcare: 24.9},
		{Abbr: "C", Poverty: 13, Healthcare: 12},
	}
	for _, cfg := range []Config{Classic(), Starter()} {
		s := Build(ds, cfg)
		for _, c := range s.Circles {
			if c.CX < 0 || c.CX > s.PlotWidth || c.CY < 0 || c.CY > s.PlotHeight {
				t.Errorf("%s: circle %d at (%g,%g) outside %gx%g", cfg.Variant, c.Index, c.CX, c.CY, s.PlotWidth, s.PlotHeight)
			}
			if c.R != cfg.Marks.Radius || c.Opacity != cfg.Marks.Opacity {
				t.Errorf("%s: circle %d has r=%g opacity=%g", cfg.Variant, c.Index, c.R, c.Opacity)
			}
		}
	}
}

func TestBuild_LabelOffset(t *testing.T) {
	s := Build(twoStates(), Classic())
	for i, l := range s.Labels {
		want := s.Y.Map(s.Records[i].Healthcare * 0.99)
		if l.Y != want || l.X != s.Circles[i].CX {
			t.Errorf("label %d at (%g,%g), want (%g,%g)", i, l.X, l.Y, s.Circles[i].CX, want)
		}
		if l.Y <= s.Circles[i].CY {
			t.Errorf("label %d should sit slightly below the circle centre", i)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	a := Build(twoStates(), Starter()).String()
	b := Build(twoStates(), Starter()).String()
	if a != b {
		t.Error("rendering the same input twice produced different SVG")
	}
}

func TestBuild_Captions(t *testing.T) {
	cfg := Starter()
	s := Build(twoStates(), cfg)
	if len(s.Captions) != 2 {
		t.Fatalf("expected 2 captions, got %d", len(s.Captions))
	}
	v, h := s.Captions[0], s.Captions[1]
	if v.Text != "Lacks Healthcare(%)" || v.Transform != "rotate(-90)" || v.Y != -60 || v.X != -s.PlotHeight/2 || v.DY != "1em" {
		t.Errorf("vertical caption = %+v", v)
	}
	if h.Text != "In Poverty (%)" || h.Transform != "translate(390, 560)" {
		t.Errorf("horizontal caption = %+v", h)
	}
	if v.Class != "axisText" || h.Class != "axisText" {
		t.Errorf("starter captions should use axisText, got %q/%q", v.Class, h.Class)
	}
}

func TestBuild_EmptyDataset(t *testing.T) {
	s := Build(models.Dataset{}, Classic())
	if len(s.Circles) != 0 || len(s.XAxis.Ticks) != 0 {
		t.Errorf("expected no marks or ticks, got %d circles %d ticks", len(s.Circles), len(s.XAxis.Ticks))
	}
	if _, err := json.Marshal(s); err != nil {
		t.Errorf("empty scene should marshal: %v", err)
	}
}

func TestBuild_NaNRecordMarshals(t *testing.T) {
	ds := append(twoStates(), models.Record{State: "Nowhere", Abbr: "NW", Poverty: math.NaN(), Healthcare: 3})
	s := Build(ds, Classic())
	if !math.IsNaN(s.Circles[2].CX) {
		t.Errorf("expected NaN cx, got %g", s.Circles[2].CX)
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"cx":null`) {
		t.Error("expected NaN cx encoded as null")
	}
	if !strings.Contains(s.String(), `cx="NaN"`) {
		t.Error("expected NaN cx attribute in SVG")
	}
}

// ════════════════════════════════════════════════════════════════════
// Renderer
// ════════════════════════════════════════════════════════════════════

func TestRenderer_Render(t *testing.T) {
	src := datasource.NewReaderSource("two", []byte("state,abbr,poverty,healthcare\nOhio,OH,14.2,10.1\nTexas,TX,18.0,15.3\n"))
	s := NewRenderer(Classic(), src, infra.Discard()).Render(context.Background())
	if s.Failed() {
		t.Fatalf("unexpected failure: %v", s.LoadErr)
	}
	if len(s.Circles) != 2 || s.Records[0].State != "Ohio" {
		t.Errorf("unexpected scene: %d circles, records %+v", len(s.Circles), s.Records)
	}
}

func TestRenderer_EmptyInputDrawsAxes(t *testing.T) {
	var buf bytes.Buffer
	log := infra.NewLogger(&buf, "debug", "json")
	s := NewRenderer(Classic(), datasource.NewReaderSource("empty", nil), log).Render(context.Background())
	if s.Failed() {
		t.Fatalf("empty input should not fail: %v", s.LoadErr)
	}
	if s.XAxis == nil || s.YAxis == nil || len(s.Circles) != 0 {
		t.Errorf("expected both axes and no marks, got %d circles", len(s.Circles))
	}
	if strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("unexpected error log:\n%s", buf.String())
	}
}

func TestRenderer_LoadFailure(t *testing.T) {
	var buf bytes.Buffer
	log := infra.NewLogger(&buf, "debug", "json")
	src := datasource.NewFileSource("testdata/does-not-exist.csv")

	s := NewRenderer(Classic(), src, log).Render(context.Background())
	if !s.Failed() {
		t.Fatal("expected failed scene")
	}
	if len(s.Circles) != 0 || len(s.Labels) != 0 || s.XAxis != nil {
		t.Errorf("failed scene should be empty, got %d circles", len(s.Circles))
	}
	if n := strings.Count(buf.String(), `"level":"ERROR"`); n != 1 {
		t.Errorf("expected exactly one error log, got %d:\n%s", n, buf.String())
	}

	doc := parseSVG(t, s)
	if n := doc.Find("circle").Length() + doc.Find("text").Length(); n != 0 {
		t.Errorf("expected no marks in SVG, got %d", n)
	}
	if n := doc.Find("svg > g").Length(); n != 1 {
		t.Errorf("expected the empty chart group, got %d groups", n)
	}
}
