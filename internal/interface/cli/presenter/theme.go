package presenter

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha palette.
var (
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Teal     = lipgloss.Color("#94e2d5")
	Peach    = lipgloss.Color("#fab387")
	Yellow   = lipgloss.Color("#f9e2af")

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Done  = lipgloss.NewStyle().Foreground(Green)

	Toast = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Yellow).
		Foreground(Text).
		Padding(0, 2)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Foreground(Text).
		Padding(0, 1)
)

// heatLevels styles heatmap cells by intensity level.
var heatLevels = [...]lipgloss.Style{
	lipgloss.NewStyle().Foreground(Surface0),
	lipgloss.NewStyle().Foreground(Teal),
	lipgloss.NewStyle().Foreground(Green),
	lipgloss.NewStyle().Foreground(Green).Bold(true),
}

// heatGlyphs keep levels distinguishable without colour.
var heatGlyphs = [...]string{"·", "░", "▒", "█"}
