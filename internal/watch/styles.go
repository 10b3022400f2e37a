// Package watch provides the live command-center TUI: lanes per backend
// plus a rolling feed of transition events, fed by the daemon's control
// socket.
package watch

import "github.com/charmbracelet/lipgloss"

// Tokyo Night inspired color palette
var (
	colorFg      = lipgloss.Color("#c0caf5")
	colorFgMuted = lipgloss.Color("#565f89")
	colorWorking = lipgloss.Color("#9ece6a")
	colorBlocked = lipgloss.Color("#e0af68")
	colorError   = lipgloss.Color("#f7768e")
	colorDone    = lipgloss.Color("#565f89")
	colorPaused  = lipgloss.Color("#7dcfff")
	colorAccent  = lipgloss.Color("#7aa2f7")
)

var (
	styleTitle = lipgloss.NewStyle().
			Foreground(colorFg).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Foreground(colorFgMuted).
			Bold(true)

	styleLane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFgMuted).
			Padding(0, 1)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorFgMuted)

	styleAccent = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleErr = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

// statusStyle returns the foreground style for a unified status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "working":
		return lipgloss.NewStyle().Foreground(colorWorking)
	case "blocked":
		return lipgloss.NewStyle().Foreground(colorBlocked)
	case "error":
		return lipgloss.NewStyle().Foreground(colorError)
	case "done":
		return lipgloss.NewStyle().Foreground(colorDone)
	case "paused":
		return lipgloss.NewStyle().Foreground(colorPaused)
	default:
		return lipgloss.NewStyle().Foreground(colorFgMuted)
	}
}

// statusIcon maps a unified status to a one-glyph indicator.
func statusIcon(status string) string {
	switch status {
	case "working":
		return "●"
	case "blocked":
		return "◐"
	case "error":
		return "✗"
	case "done":
		return "✓"
	case "paused":
		return "◌"
	default:
		return "○"
	}
}
