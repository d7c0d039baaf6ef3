package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Varun5711/bookshelf/internal/client"
	"github.com/Varun5711/bookshelf/internal/logger"
)

const defaultAPIURL = "http://localhost:3001/graphql"

// env is everything a command needs, opened once in PersistentPreRunE.
type env struct {
	log     *logrus.Entry
	store   *client.LocalStore
	session *client.Session
	api     *client.API
	cache   *client.QueryCache
	sync    *client.Synchronizer
}

type rootOptions struct {
	apiURL    string
	storePath string
	rollback  bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	e := &env{}

	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Search books and keep a reading list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd.Context(), opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.store != nil {
				return e.store.Close()
			}
			return nil
		},
	}

	apiURL := os.Getenv("BOOKSHELF_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", apiURL, "GraphQL endpoint (env BOOKSHELF_API_URL)")
	root.PersistentFlags().StringVar(&opts.storePath, "store", client.DefaultStorePath(), "local state file")
	root.PersistentFlags().BoolVar(&opts.rollback, "rollback", false, "undo optimistic changes when the server rejects them")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newSignupCmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newMeCmd(e),
		newSearchCmd(e),
		newSaveCmd(e),
		newRemoveCmd(e),
		newPasswdCmd(e),
		newTUICmd(e),
	)

	return root
}

func (e *env) open(ctx context.Context, opts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	e.log = logger.NewWithOutput("bookshelf", os.Stderr)
	switch {
	case opts.verbose:
		e.log.Logger.SetLevel(logrus.DebugLevel)
	case os.Getenv("LOG_LEVEL") == "":
		e.log.Logger.SetLevel(logrus.WarnLevel)
	}

	store, err := client.NewLocalStore(opts.storePath)
	if err != nil {
		return err
	}
	e.store = store

	session, err := client.NewSession(ctx, store)
	if err != nil {
		return err
	}
	e.session = session

	e.api = client.NewAPI(client.NewGraphQLClient(opts.apiURL, session.Token))
	e.cache = client.NewQueryCache()
	e.sync = client.NewSynchronizer(e.api, e.cache, store, e.log, client.WithRollback(opts.rollback))

	e.log.WithField("api", opts.apiURL).Debug("Client ready")
	return nil
}

// userID returns the id of the signed-in user or an error telling them to log in.
func (e *env) userID() (string, error) {
	id, err := e.session.Identity()
	if err != nil {
		return "", fmt.Errorf("not logged in; run `bookshelf login` first")
	}
	return id.ID, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if !term.IsTerminal(int(syscall.Stdin)) {
		var line string
		_, err := fmt.Fscanln(os.Stdin, &line)
		return strings.TrimSpace(line), err
	}
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
