package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
)

const secretTimeout = 10 * time.Second

var errSecretFailed = errors.New("keychain rejected the request")

func secretCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets in the configured keychain",
	}
	cmd.AddCommand(secretGetCmd(c), secretSetCmd(c), secretRmCmd(c))
	return cmd
}

func secretGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Print a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), secretTimeout)
			defer cancel()
			val, ok, err := c.wire.Secrets.Lookup(ctx, prefs.NewSecureKey(args[0]))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("secret %s: %w", args[0], prefs.ErrNotFound)
			}
			fmt.Fprintln(cmd.OutOrStdout(), val)
			return nil
		},
	}
}

func secretSetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set NAME [VALUE]",
		Short: "Store a secret, reading it from stdin when VALUE is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read secret from stdin: %w", err)
				}
				value = strings.TrimRight(line, "\r\n")
			}
			if !c.wire.Secrets.Set(prefs.NewSecureKey(args[0]), value) {
				return errSecretFailed
			}
			return nil
		},
	}
}

func secretRmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a secret (succeeds when absent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.wire.Secrets.Remove(prefs.NewSecureKey(args[0])) {
				return errSecretFailed
			}
			return nil
		},
	}
}
