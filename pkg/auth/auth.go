// Package auth manages the token lifecycle of a content API client.
//
// A TokenManager executes OAuth2-style grants against the authorization
// server. It holds no token state and is safe for concurrent use. Sessions
// own a token record, decide when it needs refreshing, and make sure that at
// most one refresh is in flight per session: concurrent callers that find the
// token stale join the in-flight refresh and receive the same outcome.
//
// # Session Variants
//
//   - BasicSession: a fixed, externally supplied access token (developer token)
//   - AnonymousSession: client-credentials grant
//   - AppAuthSession: JWT bearer grant for an enterprise or user
//   - PersistentSession: refresh-token grant, optionally backed by a TokenStore
//
// # Example: App Auth
//
//	manager, _ := auth.NewTokenManager(&auth.Config{
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    AppAuth: &auth.AppAuthConfig{
//	        KeyID:      "key-id",
//	        PrivateKey: pemData,
//	        Passphrase: "passphrase",
//	    },
//	})
//	session, _ := auth.NewAppAuthSession(manager, auth.SubjectTypeEnterprise, "12345")
//	token, _ := session.GetAccessToken(ctx)
//
// # Example: Persistent Session Shared Across Processes
//
//	store, _ := storage.NewBoltStore(&types.StorageConfig{Key: "user-42"}, "my-app")
//	session, _ := auth.NewPersistentSession(ctx, manager, nil, store)
//	client := auth.NewClient(ctx, session, nil)
//
// When a refresh fails with HTTP 400 the persistent session re-reads the
// store: if another process already refreshed the credentials, their record
// is adopted instead of failing.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// Mode selects a session variant.
type Mode string

const (
	// ModeBasic uses a fixed developer token.
	ModeBasic Mode = "basic"
	// ModeAnonymous uses the client-credentials grant.
	ModeAnonymous Mode = "anonymous"
	// ModeAppAuth uses the JWT bearer grant.
	ModeAppAuth Mode = "app_auth"
	// ModePersistent uses refresh tokens and an optional token store.
	ModePersistent Mode = "persistent"
)

// RefreshPolicy selects how a session reacts to a token nearing expiry.
type RefreshPolicy string

const (
	// RefreshPolicyBlocking treats a token inside max(ExpiredBuffer, StaleBuffer)
	// as unusable and blocks the caller until a refresh completes.
	RefreshPolicyBlocking RefreshPolicy = "blocking"
	// RefreshPolicyBackground blocks only inside ExpiredBuffer. Inside
	// StaleBuffer the current token is returned and a refresh is started in
	// the background.
	RefreshPolicyBackground RefreshPolicy = "background"
)

// SubjectType is the kind of entity an app-auth token is issued for.
type SubjectType string

const (
	// SubjectTypeEnterprise issues tokens for an enterprise service account.
	SubjectTypeEnterprise SubjectType = "enterprise"
	// SubjectTypeUser issues tokens for an app user or managed user.
	SubjectTypeUser SubjectType = "user"
)

const (
	DefaultAPIRootURL       = "https://api.box.com"
	DefaultAuthorizeRootURL = "https://account.box.com/api"
	DefaultExpiredBuffer    = 3 * time.Minute
	DefaultNumMaxRetries    = 5
	DefaultRetryInterval    = 2 * time.Second
	DefaultJWTExpiration    = 30 * time.Second
	MaxJWTExpiration        = 60 * time.Second
)

// TokenInfo is an alias for types.TokenInfo.
type TokenInfo = types.TokenInfo

// StorageConfig is an alias for types.StorageConfig.
type StorageConfig = types.StorageConfig

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Session is the capability every session variant exposes.
type Session interface {
	// Mode returns the session variant.
	Mode() Mode

	// GetAccessToken returns a currently valid access token, refreshing
	// transparently when needed.
	GetAccessToken(ctx context.Context, opts ...GrantOption) (string, error)

	// RevokeTokens invalidates the current credentials at the server and
	// clears local state.
	RevokeTokens(ctx context.Context, opts ...GrantOption) error

	// ExchangeToken obtains a downscoped token without touching the
	// session's own credentials.
	ExchangeToken(ctx context.Context, scopes []string, resource string, opts ...GrantOption) (*types.TokenInfo, error)
}

// Config is the grant configuration. It is not modified after a
// TokenManager has been created from it.
type Config struct {
	// ClientID is the OAuth2 client identifier.
	ClientID string `yaml:"client_id" json:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string `yaml:"client_secret,omitempty" json:"client_secret,omitempty" mapstructure:"client_secret"`
	// APIRootURL hosts the token and revocation endpoints.
	APIRootURL string `yaml:"api_root_url,omitempty" json:"api_root_url,omitempty" mapstructure:"api_root_url"`
	// AuthorizeRootURL hosts the user-facing authorization page.
	AuthorizeRootURL string `yaml:"authorize_root_url,omitempty" json:"authorize_root_url,omitempty" mapstructure:"authorize_root_url"`

	// ExpiredBuffer is the margin before expiry at which a token is treated as expired.
	ExpiredBuffer time.Duration `yaml:"expired_buffer,omitempty" json:"expired_buffer,omitempty" mapstructure:"expired_buffer"`
	// StaleBuffer is the margin before expiry at which a token is refreshed proactively.
	StaleBuffer time.Duration `yaml:"stale_buffer,omitempty" json:"stale_buffer,omitempty" mapstructure:"stale_buffer"`
	// RefreshPolicy selects blocking or background refresh of stale tokens.
	RefreshPolicy RefreshPolicy `yaml:"refresh_policy,omitempty" json:"refresh_policy,omitempty" mapstructure:"refresh_policy"`

	// NumMaxRetries bounds the retries of a failed JWT grant.
	NumMaxRetries int `yaml:"num_max_retries,omitempty" json:"num_max_retries,omitempty" mapstructure:"num_max_retries"`
	// RetryInterval seeds the exponential backoff between JWT grant retries.
	RetryInterval time.Duration `yaml:"retry_interval,omitempty" json:"retry_interval,omitempty" mapstructure:"retry_interval"`
	// RetryStrategy, when set, decides the delay before each JWT grant retry.
	RetryStrategy RetryStrategy `yaml:"-" json:"-" mapstructure:"-"`

	// EnterpriseID is the subject of client-credentials grants.
	EnterpriseID string `yaml:"enterprise_id,omitempty" json:"enterprise_id,omitempty" mapstructure:"enterprise_id"`
	// UserID, when set, makes client-credentials grants act as this user.
	UserID string `yaml:"user_id,omitempty" json:"user_id,omitempty" mapstructure:"user_id"`

	// AppAuth configures JWT assertions. Required for app-auth sessions.
	AppAuth *AppAuthConfig `yaml:"app_auth,omitempty" json:"app_auth,omitempty" mapstructure:"app_auth"`
}

// AppAuthConfig configures signed JWT assertions.
type AppAuthConfig struct {
	// KeyID identifies the public key registered with the server.
	KeyID string `yaml:"key_id" json:"key_id" mapstructure:"key_id"`
	// PrivateKey is a PEM encoded RSA private key, optionally encrypted.
	PrivateKey string `yaml:"private_key" json:"private_key" mapstructure:"private_key"`
	// Passphrase decrypts an encrypted PrivateKey.
	Passphrase string `yaml:"passphrase,omitempty" json:"passphrase,omitempty" mapstructure:"passphrase"`
	// Algorithm is RS256, RS384 or RS512.
	Algorithm string `yaml:"algorithm,omitempty" json:"algorithm,omitempty" mapstructure:"algorithm"`
	// ExpirationTime is the lifetime of each assertion.
	ExpirationTime time.Duration `yaml:"expiration_time,omitempty" json:"expiration_time,omitempty" mapstructure:"expiration_time"`
	// VerifyTimestamp adds an iat claim to assertions.
	VerifyTimestamp bool `yaml:"verify_timestamp,omitempty" json:"verify_timestamp,omitempty" mapstructure:"verify_timestamp"`
}

// WithDefaults returns a copy of the configuration with unset fields defaulted.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.APIRootURL == "" {
		cfg.APIRootURL = DefaultAPIRootURL
	}
	if cfg.AuthorizeRootURL == "" {
		cfg.AuthorizeRootURL = DefaultAuthorizeRootURL
	}
	if cfg.ExpiredBuffer == 0 {
		cfg.ExpiredBuffer = DefaultExpiredBuffer
	}
	if cfg.RefreshPolicy == "" {
		cfg.RefreshPolicy = RefreshPolicyBlocking
	}
	if cfg.NumMaxRetries == 0 {
		cfg.NumMaxRetries = DefaultNumMaxRetries
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if c.AppAuth != nil {
		appAuth := *c.AppAuth
		if appAuth.Algorithm == "" {
			appAuth.Algorithm = "RS256"
		}
		if appAuth.ExpirationTime == 0 {
			appAuth.ExpirationTime = DefaultJWTExpiration
		}
		cfg.AppAuth = &appAuth
	}
	return &cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return configError("client_id is required")
	}

	switch c.RefreshPolicy {
	case "", RefreshPolicyBlocking, RefreshPolicyBackground:
	default:
		return configError("unsupported refresh_policy: %s", c.RefreshPolicy)
	}

	if c.ExpiredBuffer < 0 || c.StaleBuffer < 0 {
		return configError("token buffers must not be negative")
	}
	if c.NumMaxRetries < 0 {
		return configError("num_max_retries must not be negative")
	}
	if c.RetryInterval < 0 {
		return configError("retry_interval must not be negative")
	}
	if c.EnterpriseID != "" && c.UserID != "" {
		return configError("enterprise_id and user_id are mutually exclusive")
	}

	if c.AppAuth != nil {
		if err := c.AppAuth.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the app-auth settings.
func (a *AppAuthConfig) Validate() error {
	if a.KeyID == "" {
		return configError("app_auth.key_id is required")
	}
	if a.PrivateKey == "" {
		return configError("app_auth.private_key is required")
	}
	switch a.Algorithm {
	case "", "RS256", "RS384", "RS512":
	default:
		return configError("unsupported app_auth.algorithm: %s", a.Algorithm)
	}
	if a.ExpirationTime < 0 || a.ExpirationTime > MaxJWTExpiration {
		return configError("app_auth.expiration_time must be between 0 and %s", MaxJWTExpiration)
	}
	return nil
}

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
