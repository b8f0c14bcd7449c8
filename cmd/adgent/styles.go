package main

import "github.com/charmbracelet/lipgloss"

// Color palette for the chat interface.
var (
	colorPrimary = lipgloss.Color("#25F4EE") // cyan
	colorAccent  = lipgloss.Color("#FE2C55") // red-pink
	colorMuted   = lipgloss.Color("#6b7280")
	colorError   = lipgloss.Color("#e53935")
	colorBorder  = lipgloss.Color("#374151")
)

// styles holds the lipgloss styles used by the chat view.
type styles struct {
	Header    lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	UserText  lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	InputBox  lipgloss.Style
	Footer    lipgloss.Style
}

func newStyles() styles {
	return styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginTop(1),
		BotLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginTop(1),
		UserText: lipgloss.NewStyle().
			PaddingLeft(2),
		Muted: lipgloss.NewStyle().
			Foreground(colorMuted),
		Error: lipgloss.NewStyle().
			Foreground(colorError),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1),
	}
}
