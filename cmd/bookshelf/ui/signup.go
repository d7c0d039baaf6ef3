package ui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SignupModel struct {
	app           *App
	usernameInput string
	emailInput    string
	passwordInput string
	focusedInput  int
	loading       bool
	err           error
}

func NewSignupModel(app *App) *SignupModel {
	return &SignupModel{app: app}
}

func (m *SignupModel) Init() tea.Cmd {
	return nil
}

func signupCmd(app *App, username, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		res, err := app.API.AddUser(ctx, username, email, password)
		if err != nil {
			return authErrorMsg{err: err}
		}
		return finishAuth(app, res)
	}
}

func (m *SignupModel) field() *string {
	switch m.focusedInput {
	case 0:
		return &m.usernameInput
	case 1:
		return &m.emailInput
	default:
		return &m.passwordInput
	}
}

func (m *SignupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authErrorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "tab":
			m.focusedInput = (m.focusedInput + 1) % 3
		case "shift+tab":
			m.focusedInput = (m.focusedInput + 2) % 3
		case "enter":
			switch {
			case m.usernameInput == "":
				m.err = errors.New("username cannot be empty")
				return m, nil
			case m.emailInput == "":
				m.err = errors.New("email cannot be empty")
				return m, nil
			case m.passwordInput == "":
				m.err = errors.New("password cannot be empty")
				return m, nil
			}
			m.loading = true
			m.err = nil
			return m, signupCmd(m.app, m.usernameInput, m.emailInput, m.passwordInput)
		case "backspace":
			f := m.field()
			*f = dropLast(*f)
		case "ctrl+l":
			m.usernameInput, m.emailInput, m.passwordInput = "", "", ""
			m.err = nil
		default:
			if msg.Type == tea.KeyRunes {
				f := m.field()
				*f += string(msg.Runes)
			}
		}
	}
	return m, nil
}

func (m *SignupModel) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().MarginTop(1).Render(center(TitleStyle.Render("SIGN UP"))))
	b.WriteString("\n")
	b.WriteString(center(InfoStyle.Render("Create an account to start a reading list.")))
	b.WriteString("\n\n")

	b.WriteString(center(renderField("Username:", m.usernameInput, m.focusedInput == 0, false)))
	b.WriteString("\n")
	b.WriteString(center(renderField("Email:", m.emailInput, m.focusedInput == 1, false)))
	b.WriteString("\n")
	b.WriteString(center(renderField("Password:", m.passwordInput, m.focusedInput == 2, true)))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(center(InfoStyle.Render("Creating account...")))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(center(ErrorStyle.Render(describeError(m.err))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(center(InfoStyle.Render("tab switch  •  enter sign up  •  ctrl+l clear  •  ctrl+s log in  •  esc quit")))

	return BoxStyle.Width(76).Render(b.String())
}
