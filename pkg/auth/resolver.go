package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/CliForge/contentsdk/pkg/auth/storage"
)

// DefaultDeveloperTokenEnv is the environment variable checked for a developer token.
const DefaultDeveloperTokenEnv = "CONTENTAUTH_DEVELOPER_TOKEN"

// TokenOrigin represents where a developer token was found.
type TokenOrigin string

const (
	TokenOriginFlag   TokenOrigin = "flag"
	TokenOriginEnv    TokenOrigin = "env"
	TokenOriginStore  TokenOrigin = "store"
	TokenOriginPrompt TokenOrigin = "prompt"
	TokenOriginNone   TokenOrigin = "none"
)

// DeveloperTokenResolver finds the token of a basic session.
type DeveloperTokenResolver struct {
	flagToken  string
	envVar     string
	store      storage.TokenStore
	promptFunc func() (string, error)
}

// ResolverOption configures the resolver.
type ResolverOption func(*DeveloperTokenResolver)

// NewDeveloperTokenResolver creates a resolver with the specified options.
func NewDeveloperTokenResolver(opts ...ResolverOption) *DeveloperTokenResolver {
	r := &DeveloperTokenResolver{
		envVar: DefaultDeveloperTokenEnv,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithFlagToken sets the token given on the command line.
func WithFlagToken(token string) ResolverOption {
	return func(r *DeveloperTokenResolver) {
		r.flagToken = token
	}
}

// WithEnvVar overrides the environment variable name.
func WithEnvVar(name string) ResolverOption {
	return func(r *DeveloperTokenResolver) {
		if name != "" {
			r.envVar = name
		}
	}
}

// WithTokenStore sets a store whose access token is used as a fallback.
func WithTokenStore(store storage.TokenStore) ResolverOption {
	return func(r *DeveloperTokenResolver) {
		r.store = store
	}
}

// WithPromptFunc sets the interactive prompt function.
func WithPromptFunc(fn func() (string, error)) ResolverOption {
	return func(r *DeveloperTokenResolver) {
		r.promptFunc = fn
	}
}

// Resolve finds a token in order: flag, environment, store, prompt.
// An empty token with TokenOriginNone means no source had one.
func (r *DeveloperTokenResolver) Resolve(ctx context.Context) (string, TokenOrigin, error) {
	if r.flagToken != "" {
		return r.flagToken, TokenOriginFlag, nil
	}

	if token := os.Getenv(r.envVar); token != "" {
		return token, TokenOriginEnv, nil
	}

	if r.store != nil {
		// Store errors fall through to the prompt
		info, err := r.store.Read(ctx)
		if err == nil && info != nil && info.AccessToken != "" {
			return info.AccessToken, TokenOriginStore, nil
		}
	}

	if r.promptFunc != nil {
		token, err := r.promptFunc()
		if err != nil {
			return "", TokenOriginNone, fmt.Errorf("prompt failed: %w", err)
		}
		if token != "" {
			return token, TokenOriginPrompt, nil
		}
	}

	return "", TokenOriginNone, nil
}
