package main

import (
	"fmt"
	"os"

	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/CliForge/contentsdk/pkg/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		mode         string
		storageType  string
		enterpriseID string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := loaderFor(cmd)
			path := loader.ConfigPath()

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			cfg := &config.Config{
				Auth: auth.Config{
					ClientID:     clientID,
					ClientSecret: clientSecret,
					EnterpriseID: enterpriseID,
				},
				Session: config.SessionConfig{
					Mode:        auth.Mode(mode),
					RedirectURL: auth.DefaultRedirectURL,
				},
				Storage: types.StorageConfig{Type: types.StorageType(storageType)},
				Log:     config.LogConfig{Env: "development"},
			}

			// app_auth needs key material that init cannot provide
			if cfg.Session.Mode != auth.ModeAppAuth {
				if err := config.NewValidator().Validate(cfg); err != nil {
					return err
				}
			}

			if err := loader.Save(cfg); err != nil {
				return err
			}

			pterm.Success.Printfln("Configuration written to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringVar(&mode, "mode", string(auth.ModePersistent), "Session mode: basic, anonymous, app_auth or persistent")
	cmd.Flags().StringVar(&storageType, "storage", string(types.StorageTypeFile), "Token storage: file, keyring, memory or bolt")
	cmd.Flags().StringVar(&enterpriseID, "enterprise-id", "", "Enterprise ID for anonymous and app_auth sessions")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	_ = cmd.MarkFlagRequired("client-id")

	return cmd
}
