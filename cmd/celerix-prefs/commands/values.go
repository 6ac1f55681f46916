package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

func getCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print a preference as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			val, ok := c.wire.Preferences(c.suite).Value(args[0])
			if !ok {
				return fmt.Errorf("%s/%s: %w", c.suite, args[0], prefs.ErrNotFound)
			}
			return printJSON(cmd.OutOrStdout(), val, false)
		},
	}
}

func setCmd(c *cli) *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a preference",
		Long: "Store a preference. VALUE is parsed as JSON when it is valid JSON " +
			"and stored as a string otherwise. The JSON value null removes the key.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			val := parseValue(args[1], asString)
			if val == nil {
				return deleteKey(c, args[0])
			}
			if err := c.wire.Store.Set(c.suite, args[0], val); err != nil {
				return fmt.Errorf("set %s/%s: %w", c.suite, args[0], err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "store VALUE as a string even if it parses as JSON")
	return cmd
}

func rmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY",
		Aliases: []string{"remove", "del"},
		Short:   "Remove a preference (no-op when absent)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteKey(c, args[0])
		},
	}
}

func mvCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mv KEY DST_SUITE",
		Short: "Move a preference from the current suite to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.wire.Store.Move(c.suite, args[1], args[0]); err != nil {
				return fmt.Errorf("move %s/%s: %w", c.suite, args[0], err)
			}
			return nil
		},
	}
}

func suitesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List suites that hold at least one preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suites, err := c.wire.Store.Suites()
			if err != nil {
				return err
			}
			for _, s := range suites {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func deleteKey(c *cli, key string) error {
	err := c.wire.Store.Delete(c.suite, key)
	if err != nil && !errors.Is(err, prefs.ErrNotFound) {
		return fmt.Errorf("remove %s/%s: %w", c.suite, key, err)
	}
	return nil
}

// parseValue decodes raw as JSON unless asString is set or raw is not JSON.
func parseValue(raw string, asString bool) any {
	if asString {
		return raw
	}
	var v any
	if err := codec.Decode([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func printJSON(w io.Writer, v any, indent bool) error {
	var (
		b   []byte
		err error
	)
	if indent {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimSpace(string(b)))
	return err
}
