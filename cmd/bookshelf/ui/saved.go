package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Varun5711/bookshelf/internal/client"
	"github.com/Varun5711/bookshelf/internal/models"
)

type savedLoadedMsg struct {
	me  *client.Me
	err error
}

type bookRemovedMsg struct {
	bookID string
	err    error
}

// SavedModel lists the signed-in user's books. Removal is optimistic: the row disappears as
// soon as the key is pressed and the server is told afterwards.
type SavedModel struct {
	app     *App
	userID  string
	books   []models.Book
	pending map[string]bool
	cursor  int
	loading bool
	loaded  bool
	status  string
	err     error
}

func NewSavedModel(app *App) *SavedModel {
	return &SavedModel{app: app, pending: map[string]bool{}}
}

func (m *SavedModel) Init() tea.Cmd {
	return nil
}

func loadSavedCmd(app *App, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		me, err := app.Sync.Refresh(ctx, userID)
		return savedLoadedMsg{me: me, err: err}
	}
}

func removeBookCmd(app *App, userID, bookID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return bookRemovedMsg{bookID: bookID, err: app.Sync.RemoveBook(ctx, userID, bookID)}
	}
}

func (m *SavedModel) visible() []models.Book {
	out := make([]models.Book, 0, len(m.books))
	for _, b := range m.books {
		if !m.pending[b.BookID] {
			out = append(out, b)
		}
	}
	return out
}

func (m *SavedModel) fromSnapshot() {
	if me, ok := m.app.Sync.Snapshot(m.userID); ok {
		m.books = me.SavedBooks
	}
	if n := len(m.visible()); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	}
}

func (m *SavedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedLoadedMsg:
		m.loading = false
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			m.fromSnapshot()
			return m, nil
		}
		m.err = nil
		m.books = msg.me.SavedBooks
		m.cursor = 0
		return m, nil

	case bookRemovedMsg:
		delete(m.pending, msg.bookID)
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = "Removed."
		}
		m.fromSnapshot()
		return m, nil

	case tea.KeyMsg:
		books := m.visible()
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(books)-1 {
				m.cursor++
			}
		case "d", "delete":
			if m.cursor < len(books) {
				id := books[m.cursor].BookID
				m.pending[id] = true
				m.err = nil
				m.status = "Removing..."
				if m.cursor > 0 && m.cursor >= len(books)-1 {
					m.cursor--
				}
				return m, removeBookCmd(m.app, m.userID, id)
			}
		case "r":
			if !m.loading {
				m.loading = true
				m.err = nil
				return m, loadSavedCmd(m.app, m.userID)
			}
		}
	}

	if !m.loaded && !m.loading {
		m.loading = true
		return m, loadSavedCmd(m.app, m.userID)
	}

	return m, nil
}

func (m *SavedModel) View() string {
	var b strings.Builder

	books := m.visible()
	header := TitleStyle.Render("SAVED BOOKS") + " " + SubtitleStyle.Render(fmt.Sprintf("(%d)", len(books)))
	b.WriteString(lipgloss.NewStyle().MarginTop(1).Render(center(header)))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(books) == 0:
		b.WriteString(center(InfoStyle.Render("Loading your books...")))
		b.WriteString("\n")
	case len(books) == 0:
		b.WriteString(center(InfoStyle.Render("Nothing saved yet. Search for a book first!")))
		b.WriteString("\n")
	default:
		start, end := window(m.cursor, len(books), 4)
		for i := start; i < end; i++ {
			b.WriteString(center(renderBook(books[i], i == m.cursor, false)))
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString(center(ErrorStyle.Render(describeError(m.err))))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(center(SuccessStyle.Render(m.status)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(center(InfoStyle.Render("↑/↓ navigate  •  d remove  •  r refresh  •  esc back")))

	return BoxStyle.Width(76).Render(b.String())
}
