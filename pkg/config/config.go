// Package config loads the contentauth configuration from a YAML file and
// environment variables.
//
// Priority: ENV > config file > defaults. Environment variables use the
// upper-cased app name as prefix and underscores for nesting, so
// auth.client_id is read from CONTENTAUTH_AUTH_CLIENT_ID.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CliForge/contentsdk/pkg/auth"
	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultAppName names the config directory and the environment prefix.
const DefaultAppName = "contentauth"

// Config is the complete contentauth configuration.
type Config struct {
	// Auth is the grant configuration handed to the token manager.
	Auth auth.Config `yaml:"auth" mapstructure:"auth"`
	// Session selects the session variant.
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	// Storage configures the token store of persistent sessions.
	Storage types.StorageConfig `yaml:"storage" mapstructure:"storage"`
	// Log configures logging.
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// SessionConfig selects and parameterizes the session.
type SessionConfig struct {
	Mode           auth.Mode        `yaml:"mode" mapstructure:"mode"`
	SubjectType    auth.SubjectType `yaml:"subject_type,omitempty" mapstructure:"subject_type"`
	SubjectID      string           `yaml:"subject_id,omitempty" mapstructure:"subject_id"`
	DeveloperToken string           `yaml:"developer_token,omitempty" mapstructure:"developer_token"`
	// PrivateKeyPath is read into auth.app_auth.private_key when that is empty.
	PrivateKeyPath string `yaml:"private_key_path,omitempty" mapstructure:"private_key_path"`
	// RedirectURL is where the login callback server listens.
	RedirectURL string `yaml:"redirect_url,omitempty" mapstructure:"redirect_url"`
	// Scopes are requested at login.
	Scopes []string `yaml:"scopes,omitempty" mapstructure:"scopes"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Env is "production" for JSON logs, anything else for text.
	Env string `yaml:"env" mapstructure:"env"`
}

// envKeys are bound to environment variables even when absent from the file.
var envKeys = []string{
	"auth.client_id",
	"auth.client_secret",
	"auth.api_root_url",
	"auth.authorize_root_url",
	"auth.expired_buffer",
	"auth.stale_buffer",
	"auth.refresh_policy",
	"auth.num_max_retries",
	"auth.retry_interval",
	"auth.enterprise_id",
	"auth.user_id",
	"auth.app_auth.key_id",
	"auth.app_auth.private_key",
	"auth.app_auth.passphrase",
	"auth.app_auth.algorithm",
	"auth.app_auth.expiration_time",
	"auth.app_auth.verify_timestamp",
	"session.mode",
	"session.subject_type",
	"session.subject_id",
	"session.developer_token",
	"session.private_key_path",
	"session.redirect_url",
	"session.scopes",
	"storage.type",
	"storage.key",
	"storage.path",
	"storage.keyring_service",
	"storage.keyring_user",
	"log.env",
}

// Loader handles loading configuration from file and environment.
type Loader struct {
	appName    string
	envPrefix  string
	configPath string
}

// NewLoader creates a loader. An empty configPath uses the XDG location,
// unless the <PREFIX>_CONFIG environment variable names another file.
func NewLoader(appName, configPath string) *Loader {
	if appName == "" {
		appName = DefaultAppName
	}
	return &Loader{
		appName:    appName,
		envPrefix:  strings.ToUpper(strings.ReplaceAll(appName, "-", "_")),
		configPath: configPath,
	}
}

// ConfigPath returns the config file the loader reads.
func (l *Loader) ConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	if customPath := os.Getenv(l.envPrefix + "_CONFIG"); customPath != "" {
		return customPath
	}
	return filepath.Join(xdg.ConfigHome, l.appName, "config.yaml")
}

// Load reads, resolves and validates the configuration. A missing file at
// the default location is not an error.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	path := l.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) || l.configPath != "" {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.resolvePrivateKey(); err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to the loader's config path with owner-only permissions.
func (l *Loader) Save(cfg *Config) error {
	path := l.ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AppName returns the application name used for paths and storage keys.
func (l *Loader) AppName() string {
	return l.appName
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session.mode", string(auth.ModePersistent))
	v.SetDefault("session.redirect_url", auth.DefaultRedirectURL)
	v.SetDefault("storage.type", string(types.StorageTypeFile))
	v.SetDefault("log.env", "development")
}

func (c *Config) resolvePrivateKey() error {
	if c.Session.PrivateKeyPath == "" {
		return nil
	}
	if c.Auth.AppAuth == nil {
		c.Auth.AppAuth = &auth.AppAuthConfig{}
	}
	if c.Auth.AppAuth.PrivateKey != "" {
		return nil
	}

	data, err := os.ReadFile(c.Session.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	c.Auth.AppAuth.PrivateKey = string(data)
	return nil
}
