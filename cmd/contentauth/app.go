package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CliForge/contentsdk/internal/logging"
	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/CliForge/contentsdk/pkg/auth/storage"
	"github.com/CliForge/contentsdk/pkg/config"
	"github.com/CliForge/contentsdk/pkg/secrets"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// app bundles what every command needs after the config is loaded.
type app struct {
	loader  *config.Loader
	cfg     *config.Config
	logger  *slog.Logger
	manager *auth.TokenManager
	ip      string
}

func loaderFor(cmd *cobra.Command) *config.Loader {
	path, _ := cmd.Flags().GetString("config")
	return config.NewLoader(config.DefaultAppName, path)
}

func newApp(cmd *cobra.Command) (*app, error) {
	loader := loaderFor(cmd)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logEnv, _ := cmd.Flags().GetString("log-env")
	if logEnv == "" {
		logEnv = cfg.Log.Env
	}
	logger := logging.NewLogger(logEnv)

	manager, err := auth.NewTokenManager(&cfg.Auth, auth.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	ip, _ := cmd.Flags().GetString("ip")

	logger.Debug("configuration loaded",
		"path", loader.ConfigPath(),
		"mode", cfg.Session.Mode,
		"storage", cfg.Storage.Type,
		secrets.Attr("client_id", cfg.Auth.ClientID))

	return &app{
		loader:  loader,
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		ip:      ip,
	}, nil
}

func (a *app) grantOptions() []auth.GrantOption {
	if a.ip == "" {
		return nil
	}
	return []auth.GrantOption{auth.WithIP(a.ip)}
}

func (a *app) openStore() (storage.TokenStore, error) {
	store, err := storage.NewFactory().Create(&a.cfg.Storage, a.loader.AppName())
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return store, nil
}

// session builds the configured session variant.
func (a *app) session(ctx context.Context) (auth.Session, error) {
	params := auth.SessionParams{
		Mode:        a.cfg.Session.Mode,
		SubjectType: a.cfg.Session.SubjectType,
		SubjectID:   a.cfg.Session.SubjectID,
	}

	switch params.Mode {
	case auth.ModeBasic:
		token, err := a.developerToken(ctx)
		if err != nil {
			return nil, err
		}
		params.DeveloperToken = token

	case auth.ModeAppAuth:
		if params.SubjectType == "" && params.SubjectID != "" {
			params.SubjectType = auth.SubjectTypeEnterprise
		}

	case auth.ModePersistent:
		store, err := a.openStore()
		if err != nil {
			return nil, err
		}
		params.Store = store
	}

	return auth.NewSession(ctx, a.manager, params)
}

func (a *app) developerToken(ctx context.Context) (string, error) {
	opts := []auth.ResolverOption{
		auth.WithFlagToken(a.cfg.Session.DeveloperToken),
		auth.WithPromptFunc(promptDeveloperToken),
	}
	if store, err := a.openStore(); err == nil {
		opts = append(opts, auth.WithTokenStore(store))
	}

	token, origin, err := auth.NewDeveloperTokenResolver(opts...).Resolve(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("no developer token: set session.developer_token or %s", auth.DefaultDeveloperTokenEnv)
	}

	a.logger.Debug("developer token resolved", "origin", origin, secrets.Attr("token", token))
	return token, nil
}

func promptDeveloperToken() (string, error) {
	return pterm.DefaultInteractiveTextInput.WithMask("*").Show("Developer token")
}
