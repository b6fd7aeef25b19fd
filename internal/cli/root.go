package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/shoplist/internal/client"
	"github.com/dukerupert/shoplist/internal/config"
	"github.com/dukerupert/shoplist/internal/store"
)

type app struct {
	configPath string
	serverURL  string
	statePath  string
	dataDir    string
	offline    bool

	cfg config.Config
	in  *bufio.Reader
	out io.Writer
}

// NewRootCommand builds the shoplist command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shoplist",
		Short: "Shared shopping lists",
		Long: `shoplist keeps a shopping list that anyone holding its ID can open.

The CLI talks to a shoplist server (see "shoplist serve") and remembers the
ID of the list it holds in a small state file. Share the ID with "shoplist id"
and open someone else's list with "shoplist adopt <id>".

Examples:
  shoplist add "Arroz" --qty 2
  shoplist price 1 5.50 --mode unit
  shoplist show --filter pending --sort alpha`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default shoplist.yaml if present)")
	flags.StringVar(&a.serverURL, "server", "", "shoplist server URL")
	flags.StringVar(&a.statePath, "state", "", "file remembering the held list ID")
	flags.StringVar(&a.dataDir, "data-dir", "", "data directory for the local store")
	flags.BoolVar(&a.offline, "offline", false, "work on the local store instead of the server")

	root.AddCommand(
		a.serveCmd(),
		a.newCmd(),
		a.idCmd(),
		a.showCmd(),
		a.addCmd(),
		a.editCmd(),
		a.priceCmd(),
		a.rmCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.adoptCmd(),
		a.resetCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.serverURL != "" {
		cfg.ServerURL = a.serverURL
	}
	if a.statePath != "" {
		cfg.StatePath = a.statePath
	}
	if a.dataDir != "" {
		cfg.Store.DataDir = a.dataDir
	}
	a.cfg = cfg
	a.in = bufio.NewReader(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()
	return nil
}

// session opens the held list's session on the server, or on the local
// store when offline. The returned function releases the store.
func (a *app) session(ctx context.Context) (*client.Session, func() error, error) {
	var (
		repo    store.Repository
		closeFn = func() error { return nil }
	)
	if a.offline {
		r, c, err := store.Open(ctx, a.cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		repo, closeFn = r, c
	} else {
		repo = client.New(a.cfg.ServerURL)
	}

	s := client.NewSession(repo, client.NewStateFile(a.cfg.StatePath))
	renderer, err := a.cfg.Renderer()
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	s.SetRenderer(renderer)
	return s, closeFn, nil
}

// loaded opens the session and loads the held list.
func (a *app) loaded(ctx context.Context) (*client.Session, func() error, error) {
	s, closeFn, err := a.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Load(ctx); err != nil {
		closeFn()
		return nil, nil, explain(err, s.ListID)
	}
	return s, closeFn, nil
}

// explain adds a hint to errors a user can act on.
func explain(err error, listID string) error {
	switch {
	case errors.Is(err, store.ErrListNotFound):
		return fmt.Errorf("list %s no longer exists; run \"shoplist new\" or \"shoplist adopt <id>\": %w", listID, err)
	case errors.Is(err, client.ErrRateLimited):
		return fmt.Errorf("too many new lists from this address, try again later: %w", err)
	}
	var terr *client.TransportError
	if errors.As(err, &terr) {
		return fmt.Errorf("cannot reach the server (use --offline to work locally): %w", err)
	}
	return err
}

// confirm asks a yes/no question and defaults to no.
func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	line, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}
