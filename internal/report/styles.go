package report

import "github.com/charmbracelet/lipgloss"

// palette
var (
	accent = lipgloss.Color("#7fdbff")
	muted  = lipgloss.Color("#5c6370")
	ok     = lipgloss.Color("#98c379")
	warn   = lipgloss.Color("#e5c07b")
)

var (
	Title  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	Subtle = lipgloss.NewStyle().Foreground(muted)
	Label  = lipgloss.NewStyle().Foreground(lipgloss.Color("#abb2bf"))
	Value  = lipgloss.NewStyle().Bold(true).Foreground(accent)

	KeyHint = lipgloss.NewStyle().Italic(true).Foreground(muted)

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(ok)
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(warn)
)

// KV renders a "label: value" pair.
func KV(label, value string) string {
	return Label.Render(label+":") + " " + Value.Render(value)
}
