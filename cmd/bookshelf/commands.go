package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Varun5711/bookshelf/cmd/bookshelf/ui"
	"github.com/Varun5711/bookshelf/internal/client"
	"github.com/Varun5711/bookshelf/internal/models"
)

func newSignupCmd(e *env) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			res, err := e.api.AddUser(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			return e.finishAuth(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(e *env) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			res, err := e.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return e.finishAuth(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (e *env) finishAuth(cmd *cobra.Command, res *client.AuthResult) error {
	ctx := cmd.Context()
	if err := e.session.Login(ctx, res.Token); err != nil {
		return err
	}
	ids := make([]string, 0, len(res.User.SavedBooks))
	for _, b := range res.User.SavedBooks {
		ids = append(ids, b.BookID)
	}
	if err := e.store.ReplaceSavedBookIDs(ctx, ids); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", res.User.Username, res.User.Email)
	return nil
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newMeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show your profile and saved books",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.userID()
			if err != nil {
				return err
			}
			me, err := e.sync.Refresh(cmd.Context(), userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", me.Username, me.Email)
			fmt.Fprintf(out, "%d saved book(s)\n", me.BookCount)
			for _, b := range me.SavedBooks {
				printBook(out, b, false)
			}
			return nil
		},
	}
}

func newSearchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search Google Books",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			books, err := e.api.SearchBooks(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintln(out, "No books matched.")
				return nil
			}
			for _, b := range books {
				saved, err := e.store.HasSavedBookID(ctx, b.BookID)
				if err != nil {
					return err
				}
				printBook(out, b, saved)
			}
			return nil
		},
	}
}

func newSaveCmd(e *env) *cobra.Command {
	var book models.Book

	cmd := &cobra.Command{
		Use:   "save <bookId>",
		Short: "Save a book to your list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.userID()
			if err != nil {
				return err
			}
			book.BookID = args[0]
			if book.Authors == nil {
				book.Authors = []string{}
			}
			if err := e.sync.SaveBook(cmd.Context(), userID, book); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q.\n", book.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&book.Title, "title", "t", "", "book title")
	cmd.Flags().StringSliceVarP(&book.Authors, "author", "a", nil, "author (repeatable)")
	cmd.Flags().StringVarP(&book.Description, "description", "d", "", "description")
	cmd.Flags().StringVar(&book.Image, "image", "", "cover image URL")
	cmd.Flags().StringVar(&book.Link, "link", "", "info link")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newRemoveCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <bookId>",
		Short: "Remove a book from your list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := e.userID()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// Seed the cache so the optimistic removal has a snapshot to work on.
			if _, err := e.sync.Refresh(ctx, userID); err != nil {
				e.log.WithError(err).Debug("Refresh before remove failed")
			}

			if err := e.sync.RemoveBook(ctx, userID, args[0]); err != nil {
				return err
			}

			me, _ := e.sync.Snapshot(userID)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s. %d book(s) left.\n", args[0], me.BookCount)
			return nil
		},
	}
}

func newPasswdCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.userID(); err != nil {
				return err
			}
			current, err := readPassword("Current password: ")
			if err != nil {
				return err
			}
			next, err := readPassword("New password: ")
			if err != nil {
				return err
			}
			if _, err := e.api.ChangePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	}
}

func newTUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := &ui.App{
				API:     e.api,
				Session: e.session,
				Store:   e.store,
				Cache:   e.cache,
				Sync:    e.sync,
			}
			_, err := tea.NewProgram(ui.NewModel(app), tea.WithAltScreen()).Run()
			return err
		},
	}
}

func printBook(out io.Writer, b models.Book, saved bool) {
	marker := " "
	if saved {
		marker = "*"
	}
	authors := strings.Join(b.Authors, ", ")
	fmt.Fprintf(out, "%s %-14s %s by %s\n", marker, b.BookID, b.Title, authors)
}
