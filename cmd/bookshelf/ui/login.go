package ui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/client"
)

type LoginModel struct {
	app           *App
	emailInput    string
	passwordInput string
	focusedInput  int
	loading       bool
	err           error
}

func NewLoginModel(app *App) *LoginModel {
	return &LoginModel{app: app}
}

func (m *LoginModel) Init() tea.Cmd {
	return nil
}

func loginCmd(app *App, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		res, err := app.API.Login(ctx, email, password)
		if err != nil {
			return authErrorMsg{err: err}
		}
		return finishAuth(app, res)
	}
}

func (m *LoginModel) reset() {
	m.emailInput = ""
	m.passwordInput = ""
	m.focusedInput = 0
	m.loading = false
	m.err = nil
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		case "tab", "shift+tab":
			m.focusedInput = (m.focusedInput + 1) % 2
		case "enter":
			if m.emailInput == "" {
				m.err = errors.New("email cannot be empty")
				return m, nil
			}
			if m.passwordInput == "" {
				m.err = errors.New("password cannot be empty")
				return m, nil
			}
			m.loading = true
			m.err = nil
			return m, loginCmd(m.app, m.emailInput, m.passwordInput)
		case "backspace":
			if m.focusedInput == 0 {
				m.emailInput = dropLast(m.emailInput)
			} else {
				m.passwordInput = dropLast(m.passwordInput)
			}
		case "ctrl+l":
			m.reset()
		default:
			if msg.Type == tea.KeyRunes {
				if m.focusedInput == 0 {
					m.emailInput += string(msg.Runes)
				} else {
					m.passwordInput += string(msg.Runes)
				}
			}
		}
	}
	return m, nil
}

func (m *LoginModel) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().MarginTop(1).Render(center(TitleStyle.Render("LOG IN"))))
	b.WriteString("\n")
	b.WriteString(center(InfoStyle.Render("Sign in to see your saved books.")))
	b.WriteString("\n\n")

	b.WriteString(center(renderField("Email:", m.emailInput, m.focusedInput == 0, false)))
	b.WriteString("\n")
	b.WriteString(center(renderField("Password:", m.passwordInput, m.focusedInput == 1, true)))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(center(InfoStyle.Render("Logging in...")))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(center(ErrorStyle.Render(describeError(m.err))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(center(InfoStyle.Render("tab switch  •  enter log in  •  ctrl+l clear  •  ctrl+s sign up  •  esc quit")))

	return BoxStyle.Width(76).Render(b.String())
}

func renderField(label, value string, focused, masked bool) string {
	style := InputStyle
	if focused {
		style = FocusedInputStyle
	}
	if masked {
		value = strings.Repeat("•", len([]rune(value)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, LabelStyle.Render(label), style.Width(50).Render(value))
}

func dropLast(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

// describeError turns typed API errors into something fit for the status line.
func describeError(err error) string {
	var conflict *apperr.ConflictError
	switch {
	case errors.As(err, &conflict):
		return "That " + conflict.Field + " is already taken."
	case errors.Is(err, apperr.ErrUnauthenticated):
		return "Invalid credentials or expired session."
	case errors.Is(err, client.ErrNotLoggedIn):
		return "Please log in again."
	default:
		return err.Error()
	}
}
