package preview

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seenimoa/healthscatter/internal/chart"
	"github.com/seenimoa/healthscatter/pkg/models"
)

func sampleScene() *chart.Scene {
	ds := models.Dataset{
		{State: "Ohio", Abbr: "OH", Poverty: 14.2, Healthcare: 10.1},
		{State: "Texas", Abbr: "TX", Poverty: 18.0, Healthcare: 15.3},
		{State: "Alabama", Abbr: "AL", Poverty: 19.3, Healthcare: 13.9},
	}
	return chart.Build(ds, chart.Classic())
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ── Braille ──

func TestBrailleSetPixel(t *testing.T) {
	b := newBrailleBuf(2, 1)
	b.setPixel(0, 0)
	b.setPixel(1, 3)
	b.setPixel(-1, 0)
	b.setPixel(9, 9)
	if b.m[0][0] != 0x81 {
		t.Errorf("mask = %#x, want 0x81", b.m[0][0])
	}
	lines := b.toLines()
	if lines[0] != "⢁ " {
		t.Errorf("toLines = %q", lines[0])
	}
}

func TestBrailleDrawLine(t *testing.T) {
	b := newBrailleBuf(2, 1)
	b.drawLine(0, 0, 3, 0)
	if b.m[0][0] != 0x09 || b.m[0][1] != 0x09 {
		t.Errorf("horizontal line masks = %#x %#x", b.m[0][0], b.m[0][1])
	}
}

// ── Model ──

func TestModel_HoverMovesTooltip(t *testing.T) {
	m := send(t, New(sampleScene()), tea.WindowSizeMsg{Width: 80, Height: 30})
	if m.Hovered().Visible {
		t.Fatal("nothing should be hovered initially")
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRight})
	st := m.Hovered()
	if !st.Visible || st.Index != 0 {
		t.Fatalf("after →: %+v", st)
	}
	view := m.View()
	for _, want := range []string{"Ohio", "Poverty: 14.2%", "Healthcare: 10.1%", "●"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "<br>") {
		t.Error("tooltip markup should be rendered as lines")
	}

	m = send(t, m, runes("l"))
	if st := m.Hovered(); st.Index != 1 || !strings.HasPrefix(st.HTML, "Texas") {
		t.Errorf("after l: %+v", st)
	}
}

func TestModel_Wraps(t *testing.T) {
	m := send(t, New(sampleScene()), tea.KeyMsg{Type: tea.KeyLeft})
	if m.Hovered().Index != 2 {
		t.Errorf("← from nothing should hover the last record, got %d", m.Hovered().Index)
	}
	m = send(t, m, runes("l"))
	if m.Hovered().Index != 0 {
		t.Errorf("→ from the last record should wrap to 0, got %d", m.Hovered().Index)
	}
	m = send(t, m, runes("G"))
	if m.Hovered().Index != 2 {
		t.Errorf("G should hover the last record, got %d", m.Hovered().Index)
	}
}

func TestModel_ClearHides(t *testing.T) {
	m := send(t, New(sampleScene()), runes("l"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.Hovered().Visible {
		t.Error("esc should hide the tooltip")
	}
	if m.cursor != -1 {
		t.Errorf("cursor = %d", m.cursor)
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m := send(t, New(sampleScene()), tea.WindowSizeMsg{Width: 100, Height: 30})
	if m.help.ShowAll {
		t.Fatal("full help should start hidden")
	}
	m = send(t, m, runes("?"))
	if !m.help.ShowAll || !strings.Contains(m.View(), "hide tooltip") {
		t.Error("? should show the full help")
	}
}

func TestModel_Quit(t *testing.T) {
	_, cmd := New(sampleScene()).Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_FailedScene(t *testing.T) {
	s := chart.Build(nil, chart.Starter())
	s.LoadErr = errors.New("boom")
	m := send(t, New(s), tea.WindowSizeMsg{Width: 60, Height: 20}, runes("l"))
	if m.Hovered().Visible {
		t.Error("nothing to hover in a failed scene")
	}
	if !strings.Contains(m.View(), "dataset unavailable: boom") {
		t.Error("expected failure message on the canvas")
	}
}

func TestModel_ViewBeforeSize(t *testing.T) {
	if v := New(sampleScene()).View(); v != "" {
		t.Errorf("expected empty view before the first size message, got %q", v)
	}
}
