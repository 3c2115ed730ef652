// Package main implements contentauth, a command-line client for the
// content API token lifecycle.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	// version is set at build time
	version = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contentauth",
		Short: "Obtain, refresh and revoke content API tokens",
		Long: `contentauth manages access tokens for the content API.

It supports developer tokens, client credentials, JWT app auth and
persistent OAuth2 sessions whose tokens are stored in a file, the
system keyring or a shared bolt database.`,
		Version:      version,
		SilenceUsage: true,
	}

	// Add global flags
	cmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/contentauth/config.yaml)")
	cmd.PersistentFlags().String("log-env", "", "Log format: production (JSON) or development (text)")
	cmd.PersistentFlags().String("ip", "", "End user IP address forwarded to the authorization server")

	// Add subcommands
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newExchangeCmd())
	cmd.AddCommand(newRevokeCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
