package ui

import "github.com/charmbracelet/lipgloss"

var (
	fuchsia  = lipgloss.Color("#EE6FF8")
	green    = lipgloss.Color("#04B575")
	red      = lipgloss.Color("#FF5F87")
	gray     = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	darkGray = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(fuchsia).
			Padding(0, 1)

	pathStyle    = lipgloss.NewStyle().Foreground(gray)
	numberStyle  = lipgloss.NewStyle().Foreground(fuchsia).Bold(true)
	nameStyle    = lipgloss.NewStyle()
	sizeStyle    = lipgloss.NewStyle().Foreground(gray)
	playingStyle = lipgloss.NewStyle().Foreground(green)
	infoStyle    = lipgloss.NewStyle().Foreground(gray)
	statusStyle  = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	dividerStyle = lipgloss.NewStyle().Foreground(darkGray)
)
