package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorBgTab   = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	textStyle  = lipgloss.NewStyle().Foreground(ColorText)

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(ColorMuted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(ColorPrimary).Background(ColorBgTab)

	warningStyle     = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true).Border(lipgloss.RoundedBorder()).BorderForeground(ColorWarning).Padding(0, 1)
	notesStyle       = lipgloss.NewStyle().Foreground(ColorInfo).Italic(true)
	imageStyle       = lipgloss.NewStyle().Foreground(ColorSuccess)
	placeholderStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

	statusStyle  = lipgloss.NewStyle().Foreground(ColorInfo)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	spinnerStyle = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true)
)
