package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Varun5711/bookshelf/internal/models"
)

type searchResultMsg struct {
	books []models.Book
	saved map[string]bool
}

type searchErrorMsg struct {
	err error
}

type bookSavedMsg struct {
	bookID string
	err    error
}

type SearchModel struct {
	app       *App
	userID    string
	query     string
	results   []models.Book
	saved     map[string]bool
	cursor    int
	listFocus bool
	loading   bool
	status    string
	err       error
}

func NewSearchModel(app *App) *SearchModel {
	return &SearchModel{app: app, saved: map[string]bool{}}
}

func (m *SearchModel) Init() tea.Cmd {
	return nil
}

func searchCmd(app *App, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		books, err := app.API.SearchBooks(ctx, query)
		if err != nil {
			return searchErrorMsg{err: err}
		}

		saved := make(map[string]bool, len(books))
		for _, b := range books {
			ok, err := app.Store.HasSavedBookID(ctx, b.BookID)
			if err != nil {
				return searchErrorMsg{err: err}
			}
			saved[b.BookID] = ok
		}
		return searchResultMsg{books: books, saved: saved}
	}
}

func saveBookCmd(app *App, userID string, book models.Book) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return bookSavedMsg{bookID: book.BookID, err: app.Sync.SaveBook(ctx, userID, book)}
	}
}

func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultMsg:
		m.loading = false
		m.results = msg.books
		m.saved = msg.saved
		m.cursor = 0
		m.listFocus = len(msg.books) > 0
		m.err = nil
		m.status = fmt.Sprintf("%d results", len(msg.books))
		return m, nil

	case searchErrorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case bookSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.saved[msg.bookID] = true
		m.status = "Saved."
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "tab":
			m.listFocus = !m.listFocus && len(m.results) > 0
			return m, nil
		case "enter":
			if m.listFocus {
				return m, m.saveSelected()
			}
			if strings.TrimSpace(m.query) == "" {
				m.err = errors.New("type something to search for")
				return m, nil
			}
			m.loading = true
			m.err = nil
			m.status = ""
			return m, searchCmd(m.app, m.query)
		}

		if m.listFocus {
			switch msg.String() {
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.results)-1 {
					m.cursor++
				}
			case "s":
				return m, m.saveSelected()
			}
			return m, nil
		}

		switch {
		case msg.String() == "backspace":
			m.query = dropLast(m.query)
		case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
			m.query += string(msg.Runes)
		}
	}
	return m, nil
}

func (m *SearchModel) saveSelected() tea.Cmd {
	if m.cursor >= len(m.results) {
		return nil
	}
	book := m.results[m.cursor]
	if m.saved[book.BookID] {
		m.status = "Already saved."
		return nil
	}
	m.status = "Saving..."
	return saveBookCmd(m.app, m.userID, book)
}

func (m *SearchModel) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().MarginTop(1).Render(center(TitleStyle.Render("SEARCH BOOKS"))))
	b.WriteString("\n\n")
	b.WriteString(center(renderField("Query:", m.query, !m.listFocus, false)))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(center(InfoStyle.Render("Searching...")))
		b.WriteString("\n")
	case len(m.results) == 0 && m.status != "":
		b.WriteString(center(InfoStyle.Render("No books matched.")))
		b.WriteString("\n")
	default:
		start, end := window(m.cursor, len(m.results), 4)
		for i := start; i < end; i++ {
			b.WriteString(center(renderBook(m.results[i], i == m.cursor && m.listFocus, m.saved[m.results[i].BookID])))
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
	b.WriteString(center(InfoStyle.Render("enter search/save  •  tab results  •  ↑/↓ navigate  •  esc back")))

	return BoxStyle.Width(76).Render(b.String())
}

func renderBook(book models.Book, selected, saved bool) string {
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}

	title := lipgloss.NewStyle().Foreground(Primary).Bold(true).Render(truncate(book.Title, 50))
	if saved {
		title += SuccessStyle.Render("  ✓ saved")
	}
	authors := lipgloss.NewStyle().Foreground(Secondary).Render(truncate(strings.Join(book.Authors, ", "), 60))
	desc := lipgloss.NewStyle().Foreground(Muted).Render(truncate(book.Description, 120))

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, authors, desc))
}

// window returns the slice bounds of at most size items around cursor.
func window(cursor, n, size int) (int, int) {
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > n {
		end = n
		start = end - size
		if start < 0 {
			start = 0
		}
	}
	return start, end
}
