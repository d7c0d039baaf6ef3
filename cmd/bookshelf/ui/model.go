package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Varun5711/bookshelf/internal/client"
)

type View int

const (
	LoginView View = iota
	SignupView
	MenuView
	SearchView
	SavedView
)

type loggedOutMsg struct {
	err error
}

type Model struct {
	app         *App
	currentView View
	login       *LoginModel
	signup      *SignupModel
	menu        *MenuModel
	search      *SearchModel
	saved       *SavedModel
	width       int
	height      int
	err         error

	isAuthenticated bool
	user            client.Me
}

// NewModel starts at the menu when the stored session is still valid, at login otherwise.
func NewModel(app *App) Model {
	m := Model{
		app:         app,
		currentView: LoginView,
		login:       NewLoginModel(app),
		signup:      NewSignupModel(app),
		menu:        NewMenuModel(),
		search:      NewSearchModel(app),
		saved:       NewSavedModel(app),
	}

	if id, err := app.Session.Identity(); err == nil {
		m.setUser(client.Me{ID: id.ID, Username: id.Username, Email: id.Email})
		m.currentView = MenuView
	}
	return m
}

func (m *Model) setUser(user client.Me) {
	m.isAuthenticated = true
	m.user = user
	m.search.userID = user.ID
	m.saved.userID = user.ID
	m.saved.loaded = false
}

func logoutCmd(app *App, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		app.Cache.Delete(userID)
		return loggedOutMsg{err: app.Session.Logout(ctx)}
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case authenticatedMsg:
		m.login.reset()
		m.setUser(msg.user)
		m.currentView = MenuView
		return m, nil

	case loggedOutMsg:
		m.err = msg.err
		m.isAuthenticated = false
		m.user = client.Me{}
		m.search = NewSearchModel(m.app)
		m.saved = NewSavedModel(m.app)
		m.currentView = LoginView
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.currentView == MenuView || m.currentView == LoginView || m.currentView == SignupView {
				return m, tea.Quit
			}
			m.currentView = MenuView
			return m, nil

		case "q":
			if m.currentView == MenuView {
				return m, tea.Quit
			}

		case "ctrl+s":
			if m.currentView == LoginView {
				m.currentView = SignupView
				return m, nil
			} else if m.currentView == SignupView {
				m.currentView = LoginView
				return m, nil
			}
		}
	}

	switch m.currentView {
	case LoginView:
		updated, cmd := m.login.Update(msg)
		m.login = updated.(*LoginModel)
		return m, cmd

	case SignupView:
		updated, cmd := m.signup.Update(msg)
		m.signup = updated.(*SignupModel)
		return m, cmd

	case MenuView:
		updated, cmd := m.menu.Update(msg)
		m.menu = updated.(*MenuModel)
		if m.menu.selected != -1 {
			selected := m.menu.selected
			m.menu.selected = -1
			switch selected {
			case menuSearch:
				m.currentView = SearchView
			case menuSaved:
				m.currentView = SavedView
				m.saved.loaded = false
				updated, cmd := m.saved.Update(nil)
				m.saved = updated.(*SavedModel)
				return m, cmd
			case menuLogout:
				return m, logoutCmd(m.app, m.user.ID)
			}
		}
		return m, cmd

	case SearchView:
		updated, cmd := m.search.Update(msg)
		m.search = updated.(*SearchModel)
		return m, cmd

	case SavedView:
		updated, cmd := m.saved.Update(msg)
		m.saved = updated.(*SavedModel)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var statusBar string
	if m.isAuthenticated && m.currentView != LoginView && m.currentView != SignupView {
		user := lipgloss.NewStyle().Foreground(Success).Render(m.user.Username)
		email := lipgloss.NewStyle().Foreground(Muted).Render(" (" + m.user.Email + ")")
		statusBar = lipgloss.NewStyle().
			Width(80).
			Background(BgDark).
			Padding(0, 2).
			Render(user + email)
	}

	var content string
	switch m.currentView {
	case LoginView:
		content = m.login.View()
	case SignupView:
		content = m.signup.View()
	case MenuView:
		content = m.menu.View()
	case SearchView:
		content = m.search.View()
	case SavedView:
		content = m.saved.View()
	}

	if m.err != nil {
		content += "\n" + center(ErrorStyle.Render(m.err.Error()))
	}

	if statusBar != "" {
		return lipgloss.JoinVertical(lipgloss.Left, statusBar, "", content)
	}
	return content
}
