package main

import (
	"fmt"
	"os"
	"time"

	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize in the browser and store the tokens",
		Long: `Run the OAuth2 authorization-code flow.

A local server listens on the configured redirect URL, the authorization
page is opened in the browser and the returned code is exchanged for an
access and refresh token, which are written to the token store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := a.openStore()
			if err != nil {
				return err
			}

			info, err := a.manager.Login(ctx, auth.LoginOptions{
				RedirectURL: a.cfg.Session.RedirectURL,
				Scopes:      a.cfg.Session.Scopes,
				Output:      os.Stderr,
				Timeout:     timeout,
			}, a.grantOptions()...)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := store.Write(ctx, info); err != nil {
				return &auth.StoreError{Op: "write", Err: err}
			}

			pterm.Success.Println("Logged in")
			if !info.ExpiresAt().IsZero() {
				pterm.Info.Printfln("Access token expires at %s", info.ExpiresAt().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the browser authorization")

	return cmd
}
