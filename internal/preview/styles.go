package preview

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	markFg    = lipgloss.Color("#89BDD3")
	hoverFg   = lipgloss.Color("#FFA500")
	borderCol = lipgloss.Color("#243141")

	appStyle     = lipgloss.NewStyle().Foreground(baseFg)
	titleStyle   = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(baseDimFg)
	canvasStyle  = lipgloss.NewStyle().Foreground(markFg)
	hoverStyle   = lipgloss.NewStyle().Foreground(hoverFg).Bold(true)
	tooltipStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
)
