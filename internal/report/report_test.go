package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleScene() *chart.Scene {
	ds := models.Dataset{
		{State: "Ohio", Abbr: "OH", Poverty: 14.2, Healthcare: 10.1},
		{State: "Texas", Abbr: "TX", Poverty: 18.0, Healthcare: 15.3},
		{State: "Alabama", Abbr: "AL", Poverty: 19.3, Healthcare: 13.9},
	}
	return chart.Build(ds, chart.Classic())
}

func failedScene() *chart.Scene {
	s := chart.Build(nil, chart.Classic())
	s.Records = nil
	return s
}

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"svg", FormatSVG},
		{" HTML ", FormatHTML},
		{"jpeg", FormatJPG},
		{"tiff", FormatTIF},
		{"png", FormatPNG},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("svg, html,svg,,png")
	if err != nil {
		t.Fatalf("ParseFormats: %v", err)
	}
	if len(got) != 3 || got[0] != FormatSVG || got[1] != FormatHTML || got[2] != FormatPNG {
		t.Errorf("ParseFormats = %v", got)
	}
	if _, err := ParseFormats(" , "); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestFormatMetadata(t *testing.T) {
	if FormatPNG.ContentType() != "image/png" || !FormatPNG.Exported() {
		t.Error("png metadata wrong")
	}
	if FormatSVG.Exported() || FormatSVG.Extension() != ".svg" {
		t.Error("svg metadata wrong")
	}
	if n := len(AllFormats()); n != 8 {
		t.Errorf("AllFormats: got %d formats", n)
	}
}

// ════════════════════════════════════════════════════════════════════
// HTML Page
// ════════════════════════════════════════════════════════════════════

func TestPage_Structure(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	html, err := Page(sampleScene(), PageOptions{Footer: true, Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := doc.Find("title").Text(); got != DefaultTitle {
		t.Errorf("title = %q", got)
	}
	if n := doc.Find("#scatter svg circle.stateCircle").Length(); n != 3 {
		t.Errorf("expected 3 circles inside #scatter, got %d", n)
	}
	if !strings.Contains(doc.Find("style").Text(), ".d3-tip") {
		t.Error("expected inline stylesheet with tooltip class")
	}
	if !strings.Contains(html, "2024-03-01T12:00:00Z") {
		t.Error("expected generation time in footer")
	}

	raw := doc.Find("#tooltip-data").Text()
	var tips struct {
		Class  string               `json:"class"`
		Circle []chart.TooltipState `json:"circle"`
		Text   []chart.TooltipState `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &tips); err != nil {
		t.Fatalf("tooltip json: %v\n%s", err, raw)
	}
	if tips.Class != "tooltip d3-tip" || len(tips.Circle) != 3 || len(tips.Text) != 3 {
		t.Errorf("unexpected tooltip table: %+v", tips)
	}
	if tips.Circle[0].HTML != "Ohio<br>Poverty: 14.2%<br>Healthcare: 10.1%" {
		t.Errorf("tooltip html = %q", tips.Circle[0].HTML)
	}
}

func TestPage_CustomTitleEscaped(t *testing.T) {
	html, err := Page(sampleScene(), PageOptions{Title: "Poverty & <Care>"})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if !strings.Contains(html, "Poverty &amp; &lt;Care&gt;") {
		t.Error("expected escaped title")
	}
}

func TestPage_FailedScene(t *testing.T) {
	html, err := Page(failedScene(), PageOptions{})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(html))
	if doc.Find("#scatter svg").Length() != 1 || doc.Find("#scatter circle").Length() != 0 {
		t.Error("expected an empty canvas")
	}
}

// ════════════════════════════════════════════════════════════════════
// Write / Export
// ════════════════════════════════════════════════════════════════════

func TestWrite_Formats(t *testing.T) {
	tests := []struct {
		format Format
		prefix string
	}{
		{FormatSVG, "<svg"},
		{FormatHTML, "<!DOCTYPE html>"},
		{FormatJSON, "{"},
		{FormatPNG, "\x89PNG"},
		{FormatPDF, "%PDF"},
		{FormatEPS, "%%!PS-Ad"},
		{FormatJPG, "\xff\xd8"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, sampleScene(), tt.format, PageOptions{}); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte(tt.prefix)) {
				t.Errorf("output starts with %q, want %q", buf.Bytes()[:min(8, buf.Len())], tt.prefix)
			}
		})
	}
}

func TestExport_SVGHasLabels(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleScene(), FormatSVG); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"OH", "TX", "AL", "In Poverty (%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in exported svg", want)
		}
	}
}

func TestPlot_Domains(t *testing.T) {
	s := sampleScene()
	p, err := Plot(s)
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	if p.X.Min != s.X.Domain[0] || p.X.Max != s.X.Domain[1] {
		t.Errorf("x axis [%g,%g], want %v", p.X.Min, p.X.Max, s.X.Domain)
	}
	if p.Y.Min != s.Y.Domain[0] || p.Y.Max != s.Y.Domain[1] {
		t.Errorf("y axis [%g,%g], want %v", p.Y.Min, p.Y.Max, s.Y.Domain)
	}
}

func TestExport_EmptyAndNaN(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, failedScene(), FormatPNG); err != nil {
		t.Fatalf("empty export: %v", err)
	}

	ds := models.Dataset{
		{State: "Ohio", Abbr: "OH", Poverty: 14.2, Healthcare: 10.1},
		{State: "Bad", Abbr: "XX", Poverty: math.NaN(), Healthcare: 2},
	}
	buf.Reset()
	if err := Export(&buf, chart.Build(ds, chart.Starter()), FormatPNG); err != nil {
		t.Fatalf("NaN export: %v", err)
	}
}

func TestPx(t *testing.T) {
	if got := Px(96); math.Abs(float64(got)-72) > 1e-9 {
		t.Errorf("Px(96) = %v, want 72pt", got)
	}
}
