// Package commands implements the celerix-prefs command line tool.
package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-prefs/internal/app"
	"github.com/celerix-dev/celerix-prefs/internal/config"
	"github.com/celerix-dev/celerix-prefs/internal/keys"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

// cli is the state shared by every subcommand of one invocation.
type cli struct {
	cfg    *config.Config
	wire   *app.Wire
	own    *prefs.Preferences
	logger *slog.Logger

	suite   string
	addr    string
	verbose bool
}

// Execute runs the command line tool against os.Args.
func Execute() error {
	root, c := newRootCmd()
	err := root.Execute()
	return errors.Join(err, c.close())
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	root := &cobra.Command{
		Use:          "celerix-prefs",
		Short:        "Read and write typed preferences and keychain secrets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			c.remember()
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.suite, "suite", "s", "", "preference suite (default: last used, then \"standard\")")
	root.PersistentFlags().StringVar(&c.addr, "addr", "", "daemon address, overrides CELERIX_PREFS_STORE_ADDR")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		getCmd(c),
		setCmd(c),
		rmCmd(c),
		mvCmd(c),
		suitesCmd(c),
		dumpCmd(c),
		importCmd(c),
		pingCmd(c),
		migrateCmd(c),
		secretCmd(c),
	)
	return root, c
}

func (c *cli) open(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.addr != "" {
		cfg.StoreAddr = c.addr
	}
	c.cfg = cfg

	w, err := app.NewWire(cfg, true, c.logger)
	if err != nil {
		return err
	}
	c.wire = w
	c.own = w.Preferences(keys.Suite)

	if c.suite == "" {
		if last, ok := prefs.Get(c.own, keys.CLI.LastSuite); ok && last != "" {
			c.suite = last
		} else {
			c.suite = prefs.DefaultSuite
		}
	}
	c.logger.Debug("store opened", "suite", c.suite, "backend", cfg.Backend, "addr", cfg.StoreAddr)
	return nil
}

// remember records the suite of a successful command for the next run.
func (c *cli) remember() {
	if c.own == nil {
		return
	}
	prefs.Set(c.own, keys.CLI.LastSuite, c.suite)
	runs, _ := prefs.Get(c.own, keys.CLI.Runs)
	prefs.Set(c.own, keys.CLI.Runs, runs+1)
}

func (c *cli) close() error {
	if c.wire == nil {
		return nil
	}
	err := c.wire.Close()
	c.wire = nil
	return err
}
