package main

import (
	"time"

	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/CliForge/contentsdk/pkg/secrets"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the session tokens and clear local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if err := session.RevokeTokens(cmd.Context(), a.grantOptions()...); err != nil {
				return err
			}

			pterm.Success.Println("Tokens revoked")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured session and the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			data := pterm.TableData{
				{"Config", a.loader.ConfigPath()},
				{"Mode", string(a.cfg.Session.Mode)},
				{"Client ID", secrets.Token(a.cfg.Auth.ClientID)},
			}

			if a.cfg.Session.Mode == auth.ModePersistent {
				data = append(data, []string{"Storage", string(a.cfg.Storage.Type)})
				data = append(data, a.storedTokenRows(cmd)...)
			}

			return pterm.DefaultTable.WithHasHeader(false).WithData(data).Render()
		},
	}
}

func (a *app) storedTokenRows(cmd *cobra.Command) [][]string {
	store, err := a.openStore()
	if err != nil {
		return [][]string{{"Token", err.Error()}}
	}

	info, err := store.Read(cmd.Context())
	if err != nil {
		return [][]string{{"Token", err.Error()}}
	}
	if info == nil {
		return [][]string{{"Token", "not logged in"}}
	}

	state := "expired"
	if a.manager.IsTokenValid(info, a.manager.Config().ExpiredBuffer) {
		state = "valid"
	}

	rows := [][]string{
		{"Access token", secrets.Token(info.AccessToken)},
		{"Refresh token", secrets.Token(info.RefreshToken)},
		{"State", state},
	}
	if expiresAt := info.ExpiresAt(); !expiresAt.IsZero() {
		rows = append(rows, []string{"Expires", expiresAt.Format(time.RFC3339)})
	}
	return rows
}
