package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Varun5711/bookshelf/internal/client"
)

// App bundles what the screens talk to.
type App struct {
	API     *client.API
	Session *client.Session
	Store   *client.LocalStore
	Cache   *client.QueryCache
	Sync    *client.Synchronizer
}

const requestTimeout = 15 * time.Second

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// authenticatedMsg is sent by both the login and signup screens.
type authenticatedMsg struct {
	user client.Me
}

type authErrorMsg struct {
	err error
}

// finishAuth persists the token and seeds the query cache with the returned user.
func finishAuth(app *App, res *client.AuthResult) tea.Msg {
	ctx, cancel := withTimeout()
	defer cancel()

	if err := app.Session.Login(ctx, res.Token); err != nil {
		return authErrorMsg{err: err}
	}
	ids := make([]string, 0, len(res.User.SavedBooks))
	for _, b := range res.User.SavedBooks {
		ids = append(ids, b.BookID)
	}
	if err := app.Store.ReplaceSavedBookIDs(ctx, ids); err != nil {
		return authErrorMsg{err: err}
	}
	app.Cache.Write(res.User.ID, res.User)
	return authenticatedMsg{user: res.User}
}
