package auth

import (
	"context"

	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// BasicSession uses a fixed access token, such as a developer token. The
// token carries no expiry information and is never refreshed.
type BasicSession struct {
	manager *TokenManager
	token   string
}

// NewBasicSession creates a session for a fixed access token.
func NewBasicSession(manager *TokenManager, accessToken string) (*BasicSession, error) {
	if manager == nil {
		return nil, configError("token manager is required")
	}
	if accessToken == "" {
		return nil, invalidInput("access token must be a non-empty string")
	}

	return &BasicSession{
		manager: manager,
		token:   accessToken,
	}, nil
}

// Mode returns ModeBasic.
func (s *BasicSession) Mode() Mode {
	return ModeBasic
}

// GetAccessToken returns the fixed token.
func (s *BasicSession) GetAccessToken(ctx context.Context, opts ...GrantOption) (string, error) {
	return s.token, nil
}

// RevokeTokens revokes the fixed token at the server.
func (s *BasicSession) RevokeTokens(ctx context.Context, opts ...GrantOption) error {
	return s.manager.Revoke(ctx, s.token, opts...)
}

// ExchangeToken exchanges the fixed token for a downscoped one.
func (s *BasicSession) ExchangeToken(ctx context.Context, scopes []string, resource string, opts ...GrantOption) (*types.TokenInfo, error) {
	return s.manager.ExchangeToken(ctx, s.token, scopes, resource, opts...)
}
