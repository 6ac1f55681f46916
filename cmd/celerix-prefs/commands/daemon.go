package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-prefs/internal/config"
	"github.com/celerix-dev/celerix-prefs/internal/engine"
	"github.com/celerix-dev/celerix-prefs/pkg/sdk"
)

var errNoDaemon = errors.New("no daemon connected (set --addr or CELERIX_PREFS_STORE_ADDR)")

func pingCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ok := c.wire.Store.(*sdk.Client)
			if !ok {
				return errNoDaemon
			}
			if err := client.Ping(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PONG from %s\n", c.cfg.StoreAddr)
			return nil
		},
	}
}

func migrateCmd(c *cli) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every suite from one embedded backend to the other",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == to {
				return fmt.Errorf("--from and --to are both %q", from)
			}
			for _, kind := range []string{from, to} {
				if kind != config.BackendJSON && kind != config.BackendSQLite {
					return fmt.Errorf("unknown backend %q", kind)
				}
			}

			src, err := sdk.OpenEmbedded(from, c.cfg.DataDir, c.cfg.DBPath, c.logger)
			if err != nil {
				return fmt.Errorf("open %s: %w", from, err)
			}
			defer src.Close()
			dst, err := sdk.OpenEmbedded(to, c.cfg.DataDir, c.cfg.DBPath, c.logger)
			if err != nil {
				return fmt.Errorf("open %s: %w", to, err)
			}

			n, err := engine.Migrate(src, dst)
			if closeErr := dst.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return fmt.Errorf("migrate %s to %s: %w", from, to, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d keys from %s to %s\n", n, from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", config.BackendJSON, "source backend (json or sqlite)")
	cmd.Flags().StringVar(&to, "to", config.BackendSQLite, "destination backend (json or sqlite)")
	return cmd
}
