package main

import (
	"encoding/json"
	"fmt"

	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/CliForge/contentsdk/pkg/secrets"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var masked bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, refreshing it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			token, err := session.GetAccessToken(cmd.Context(), a.grantOptions()...)
			if err != nil {
				return err
			}

			if masked {
				token = secrets.Token(token)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().BoolVar(&masked, "masked", false, "Mask the token for display")

	return cmd
}

func newExchangeCmd() *cobra.Command {
	var (
		scopes     []string
		resource   string
		sharedLink string
	)

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange the session token for a downscoped token",
		Long: `Exchange the session's access token for a token restricted to the
given scopes and, optionally, a single resource or shared link.

The session's own token is not changed. The downscoped token record is
printed as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			opts := a.grantOptions()
			if sharedLink != "" {
				opts = append(opts, auth.WithSharedLink(sharedLink))
			}

			info, err := session.ExchangeToken(cmd.Context(), scopes, resource, opts...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Scope of the downscoped token (repeatable)")
	cmd.Flags().StringVar(&resource, "resource", "", "Full URL of the item the token is restricted to")
	cmd.Flags().StringVar(&sharedLink, "shared-link", "", "Shared link the token is restricted to")
	_ = cmd.MarkFlagRequired("scope")

	return cmd
}
