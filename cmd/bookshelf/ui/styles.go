package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Library palette
	Primary   = lipgloss.Color("#C8963E") // Brass
	Secondary = lipgloss.Color("#E0C08A") // Parchment
	Accent    = lipgloss.Color("#B5513C") // Oxblood
	Success   = lipgloss.Color("#7FB069") // Sage
	Warning   = lipgloss.Color("#E6AA68")
	Error     = lipgloss.Color("#E2544A")
	Muted     = lipgloss.Color("#8C8279")
	Text      = lipgloss.Color("#F4EDE4")
	BgDark    = lipgloss.Color("#1E1A17")

	TitleStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Padding(0, 1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2).
			MarginTop(1)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(Accent).
				Bold(true).
				PaddingLeft(2)

	ItemStyle = lipgloss.NewStyle().
			Foreground(Text).
			PaddingLeft(2)

	InfoStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	InputStyle = lipgloss.NewStyle().
			Foreground(Text).
			Border(lipgloss.NormalBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)

	FocusedInputStyle = lipgloss.NewStyle().
				Foreground(Text).
				Border(lipgloss.NormalBorder()).
				BorderForeground(Accent).
				Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Width(15)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			Padding(0, 2).
			Width(70)

	selectedCardStyle = cardStyle.
				BorderForeground(Accent)
)

func center(s string) string {
	return lipgloss.NewStyle().Width(80).Align(lipgloss.Center).Render(s)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
