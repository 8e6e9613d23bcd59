// Package preview shows a rendered scene in the terminal. Records are
// plotted on a braille canvas and the keyboard stands in for the pointer:
// moving between records drives the same hover tracker the web page uses.
package preview

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/seenimoa/healthscatter/internal/chart"
)

// tooltipLines is the fixed content height of the tooltip box.
const tooltipLines = 3

// Model is the bubbletea model for the terminal preview.
type Model struct {
	width  int
	height int

	scene   *chart.Scene
	tracker *chart.HoverTracker
	cursor  int // hovered record, -1 for none

	keys   keyMap
	help   help.Model
	status string
}

// New returns a preview of s with nothing hovered.
func New(s *chart.Scene) Model {
	m := Model{
		scene:   s,
		tracker: chart.NewHoverTracker(s),
		cursor:  -1,
		keys:    defaultKeys,
		help:    help.New(),
	}
	switch {
	case s.Failed():
		m.status = "dataset unavailable"
	case len(s.Records) == 0:
		m.status = "no records"
	default:
		m.status = fmt.Sprintf("%d records", len(s.Records))
	}
	return m
}

// Run starts the preview full screen and blocks until the user quits.
func Run(s *chart.Scene, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(New(s), opts...).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Hovered returns the tooltip state shown by the preview.
func (m Model) Hovered() chart.TooltipState {
	return m.tracker.Current()
}

// Update handles key presses and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		n := len(m.scene.Records)
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Next):
			if n > 0 {
				m.hover((m.cursor + 1) % n)
			}
		case key.Matches(msg, m.keys.Prev):
			if n > 0 {
				if m.cursor <= 0 {
					m.hover(n - 1)
				} else {
					m.hover(m.cursor - 1)
				}
			}
		case key.Matches(msg, m.keys.First):
			if n > 0 {
				m.hover(0)
			}
		case key.Matches(msg, m.keys.Last):
			if n > 0 {
				m.hover(n - 1)
			}
		case key.Matches(msg, m.keys.Clear):
			m.leave()
			m.status = "tooltip hidden"
		}
	}
	return m, nil
}

// hover moves the pointer from the current record onto record i.
func (m *Model) hover(i int) {
	m.leave()
	st, err := m.tracker.Enter(chart.MarkCircle, i)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.cursor = i
	m.status = fmt.Sprintf("%d/%d  %s", i+1, len(m.scene.Records), m.scene.Records[st.Index].Abbr)
}

func (m *Model) leave() {
	if m.cursor < 0 {
		return
	}
	m.tracker.Leave(chart.MarkCircle, m.cursor) //nolint:errcheck
	m.cursor = -1
}

// View renders the header, canvas, tooltip box and help footer.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	contentWidth := max(20, m.width)

	header := titleStyle.Render(" healthscatter ─ poverty vs. healthcare ")
	header = lipgloss.NewStyle().Width(contentWidth).Render(header)

	tip := tooltipStyle.Width(min(contentWidth, 48)).Height(tooltipLines).Render(m.tooltipText())

	helpView := m.help.View(m.keys)
	footer := lipgloss.JoinVertical(lipgloss.Left,
		dimStyle.Render(" "+m.status+" "),
		helpView,
	)

	canvasHeight := m.height - lipgloss.Height(header) - lipgloss.Height(tip) - lipgloss.Height(footer)
	if canvasHeight < 4 {
		canvasHeight = 4
	}
	canvas := m.renderCanvas(contentWidth, canvasHeight)

	ui := lipgloss.JoinVertical(lipgloss.Left, header, canvas, tip, footer)
	return appStyle.Width(contentWidth).Render(ui)
}

// tooltipText turns the tooltip markup into plain lines.
func (m Model) tooltipText() string {
	st := m.tracker.Current()
	if !st.Visible {
		return dimStyle.Render("←/→ to inspect a state")
	}
	return html.UnescapeString(strings.ReplaceAll(st.HTML, "<br>", "\n"))
}

// renderCanvas plots every circle of the scene on a w x h braille grid,
// with the plot's left and bottom edges drawn as axes.
func (m Model) renderCanvas(w, h int) string {
	if m.scene.Failed() {
		msg := "dataset unavailable"
		if m.scene.LoadErr != nil {
			msg += ": " + m.scene.LoadErr.Error()
		}
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dimStyle.Render(msg))
	}

	br := newBrailleBuf(w, h)
	wMic, hMic := w*2, h*4
	br.drawLine(0, 0, 0, hMic-1)
	br.drawLine(0, hMic-1, wMic-1, hMic-1)

	hx, hy := -1, -1
	for i, c := range m.scene.Circles {
		mx, my, ok := m.micro(c.CX, c.CY, wMic, hMic)
		if !ok {
			continue
		}
		br.dot(mx, my)
		if i == m.cursor {
			hx, hy = mx/2, my/4
		}
	}

	lines := br.toLines()
	for y, line := range lines {
		if y != hy {
			lines[y] = canvasStyle.Render(line)
			continue
		}
		r := []rune(line)
		lines[y] = canvasStyle.Render(string(r[:hx])) + hoverStyle.Render("●") + canvasStyle.Render(string(r[hx+1:]))
	}
	return strings.Join(lines, "\n")
}

// micro maps plot coordinates onto the microgrid, leaving the axis
// column and row free.
func (m Model) micro(x, y float64, wMic, hMic int) (int, int, bool) {
	pw, ph := m.scene.PlotWidth, m.scene.PlotHeight
	if math.IsNaN(x) || math.IsNaN(y) || pw <= 0 || ph <= 0 {
		return 0, 0, false
	}
	nx := clamp01(x / pw)
	ny := clamp01(y / ph)
	mx := 2 + int(math.Round(nx*float64(wMic-4)))
	my := int(math.Round(ny * float64(hMic-4)))
	return mx, my, true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
