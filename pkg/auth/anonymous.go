package auth

import (
	"context"

	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// AnonymousSession obtains tokens with the client-credentials grant.
type AnonymousSession struct {
	refresher
}

// NewAnonymousSession creates a client-credentials session. No request is
// made until the first GetAccessToken.
func NewAnonymousSession(manager *TokenManager) (*AnonymousSession, error) {
	if manager == nil {
		return nil, configError("token manager is required")
	}

	s := &AnonymousSession{}
	s.manager = manager
	s.grant = func(ctx context.Context, _ *types.TokenInfo, opts []GrantOption) (*types.TokenInfo, error) {
		return manager.GrantByClientCredentials(ctx, opts...)
	}
	return s, nil
}

// Mode returns ModeAnonymous.
func (s *AnonymousSession) Mode() Mode {
	return ModeAnonymous
}

// GetAccessToken returns a valid access token, granting a new one when the
// cached token is missing or about to expire.
func (s *AnonymousSession) GetAccessToken(ctx context.Context, opts ...GrantOption) (string, error) {
	return s.accessToken(ctx, opts)
}

// RevokeTokens revokes the current token, if any, and forgets it. The next
// GetAccessToken grants a new token.
func (s *AnonymousSession) RevokeTokens(ctx context.Context, opts ...GrantOption) error {
	defer s.cache.clear()

	info := s.cache.get()
	if info == nil || info.AccessToken == "" {
		return nil
	}
	return s.manager.Revoke(ctx, info.AccessToken, opts...)
}

// ExchangeToken exchanges the session token for a downscoped one. The
// session's own token is left untouched.
func (s *AnonymousSession) ExchangeToken(ctx context.Context, scopes []string, resource string, opts ...GrantOption) (*types.TokenInfo, error) {
	token, err := s.GetAccessToken(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s.manager.ExchangeToken(ctx, token, scopes, resource, opts...)
}

// TokenInfo returns a copy of the cached token record, or nil.
func (s *AnonymousSession) TokenInfo() *types.TokenInfo {
	return s.cache.get()
}
