package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	menuSearch = iota
	menuSaved
	menuLogout
)

type MenuModel struct {
	cursor   int
	selected int
	items    []string
}

func (m *MenuModel) Init() tea.Cmd {
	return nil
}

func NewMenuModel() *MenuModel {
	return &MenuModel{
		selected: -1,
		items: []string{
			"Search Books",
			"Saved Books",
			"Log Out",
		},
	}
}

func (m *MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			m.selected = m.cursor
		}
	}
	return m, nil
}

func (m *MenuModel) View() string {
	var b strings.Builder

	header := TitleStyle.Render("BOOKSHELF") + " " + SubtitleStyle.Render("Your reading list")
	b.WriteString(lipgloss.NewStyle().MarginTop(2).MarginBottom(1).Render(center(header)))
	b.WriteString("\n\n")

	var items []string
	for i, item := range m.items {
		if i == m.cursor {
			items = append(items, SelectedItemStyle.Render("> "+item))
		} else {
			items = append(items, ItemStyle.Render("  "+item))
		}
	}
	b.WriteString(center(BoxStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, items...))))
	b.WriteString("\n\n")
	b.WriteString(center(InfoStyle.Render("↑/↓ navigate  •  enter select  •  q quit")))

	return b.String()
}
