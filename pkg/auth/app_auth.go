package auth

import (
	"context"

	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// AppAuthSession obtains tokens for an enterprise or user with the JWT
// bearer grant.
type AppAuthSession struct {
	refresher
	subjectType SubjectType
	subjectID   string
}

// NewAppAuthSession creates a JWT session bound to one subject. The manager
// must be configured for app auth.
func NewAppAuthSession(manager *TokenManager, subjectType SubjectType, subjectID string) (*AppAuthSession, error) {
	if manager == nil {
		return nil, configError("token manager is required")
	}
	if manager.signer == nil {
		return nil, configError("app_auth is not configured")
	}
	switch subjectType {
	case SubjectTypeEnterprise, SubjectTypeUser:
	default:
		return nil, invalidInput("unsupported subject type: %q", subjectType)
	}
	if subjectID == "" {
		return nil, invalidInput("subject ID must be a non-empty string")
	}

	s := &AppAuthSession{
		subjectType: subjectType,
		subjectID:   subjectID,
	}
	s.manager = manager
	s.grant = func(ctx context.Context, _ *types.TokenInfo, opts []GrantOption) (*types.TokenInfo, error) {
		return manager.GrantByJWT(ctx, subjectType, subjectID, opts...)
	}
	return s, nil
}

// Mode returns ModeAppAuth.
func (s *AppAuthSession) Mode() Mode {
	return ModeAppAuth
}

// Subject returns the type and ID the session issues tokens for.
func (s *AppAuthSession) Subject() (SubjectType, string) {
	return s.subjectType, s.subjectID
}

// GetAccessToken returns a valid access token, granting a new one when the
// cached token is missing or about to expire.
func (s *AppAuthSession) GetAccessToken(ctx context.Context, opts ...GrantOption) (string, error) {
	return s.accessToken(ctx, opts)
}

// RevokeTokens revokes the current token, if any, and forgets it.
func (s *AppAuthSession) RevokeTokens(ctx context.Context, opts ...GrantOption) error {
	defer s.cache.clear()

	info := s.cache.get()
	if info == nil || info.AccessToken == "" {
		return nil
	}
	return s.manager.Revoke(ctx, info.AccessToken, opts...)
}

// ExchangeToken exchanges the session token for a downscoped one. The
// session's own token is left untouched.
func (s *AppAuthSession) ExchangeToken(ctx context.Context, scopes []string, resource string, opts ...GrantOption) (*types.TokenInfo, error) {
	token, err := s.GetAccessToken(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s.manager.ExchangeToken(ctx, token, scopes, resource, opts...)
}

// TokenInfo returns a copy of the cached token record, or nil.
func (s *AppAuthSession) TokenInfo() *types.TokenInfo {
	return s.cache.get()
}
