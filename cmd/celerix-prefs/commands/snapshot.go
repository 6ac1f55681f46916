package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
	"github.com/celerix-dev/celerix-prefs/pkg/schema"
)

func dumpCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Export the current suite as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.wire.Store.Dictionary(c.suite)
			if err != nil {
				return fmt.Errorf("dump %s: %w", c.suite, err)
			}
			snap := schema.Snapshot{
				Suite:      c.suite,
				Entries:    entries,
				ExportedAt: time.Now().UTC(),
			}
			if out == "" {
				return printJSON(cmd.OutOrStdout(), snap, true)
			}
			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return err
			}
			if err := printJSON(f, snap, true); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the snapshot to a file instead of stdout")
	return cmd
}

func importCmd(c *cli) *cobra.Command {
	var intoCurrent bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a snapshot written by dump (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var snap schema.Snapshot
			if err := codec.DecodeReader(r, &snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			suite := snap.Suite
			if intoCurrent || suite == "" {
				suite = c.suite
			}
			for key, val := range snap.Entries {
				if val == nil {
					continue
				}
				if err := c.wire.Store.Set(suite, key, val); err != nil {
					return fmt.Errorf("import %s/%s: %w", suite, key, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d keys into %s\n", len(snap.Entries), suite)
			return nil
		},
	}
	cmd.Flags().BoolVar(&intoCurrent, "here", false, "import into the current suite instead of the snapshot's")
	return cmd
}
