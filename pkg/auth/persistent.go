package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/CliForge/contentsdk/pkg/auth/storage"
	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/hashicorp/go-multierror"
)

// PersistentSession refreshes tokens with the refresh-token grant. When a
// TokenStore is configured, every new record is written to it before it is
// used, and the store is consulted when the server rejects a refresh token
// that another process may already have used.
type PersistentSession struct {
	refresher
	store storage.TokenStore
}

// NewPersistentSession creates a refresh-token session. When info is nil the
// initial record is read from store. The record must carry a refresh token.
func NewPersistentSession(ctx context.Context, manager *TokenManager, info *types.TokenInfo, store storage.TokenStore) (*PersistentSession, error) {
	if manager == nil {
		return nil, configError("token manager is required")
	}

	if info == nil && store != nil {
		stored, err := store.Read(ctx)
		if err != nil {
			return nil, &StoreError{Op: "read", Err: err}
		}
		info = stored
	}
	if info == nil || info.RefreshToken == "" {
		return nil, invalidInput("persistent session requires a token record with a refresh token")
	}

	s := &PersistentSession{store: store}
	s.manager = manager
	s.grant = s.refreshTokens
	s.cache.set(info)
	return s, nil
}

// Mode returns ModePersistent.
func (s *PersistentSession) Mode() Mode {
	return ModePersistent
}

// GetAccessToken returns a valid access token, refreshing it when the cached
// token is about to expire.
func (s *PersistentSession) GetAccessToken(ctx context.Context, opts ...GrantOption) (string, error) {
	return s.accessToken(ctx, opts)
}

// RevokeTokens revokes the refresh token, which also invalidates its access
// token, and clears the store. Only the refresh token is kept locally, so
// the next GetAccessToken makes exactly one refresh attempt.
func (s *PersistentSession) RevokeTokens(ctx context.Context, opts ...GrantOption) error {
	info := s.cache.get()
	if info == nil {
		return nil
	}

	token := info.RefreshToken
	if token == "" {
		token = info.AccessToken
	}
	if err := s.manager.Revoke(ctx, token, opts...); err != nil {
		return err
	}

	s.cache.set(&types.TokenInfo{RefreshToken: info.RefreshToken})

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			return &StoreError{Op: "clear", Err: err}
		}
	}
	return nil
}

// ExchangeToken exchanges the session token for a downscoped one. The
// session's own token is left untouched.
func (s *PersistentSession) ExchangeToken(ctx context.Context, scopes []string, resource string, opts ...GrantOption) (*types.TokenInfo, error) {
	token, err := s.GetAccessToken(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s.manager.ExchangeToken(ctx, token, scopes, resource, opts...)
}

// TokenInfo returns a copy of the cached token record, or nil.
func (s *PersistentSession) TokenInfo() *types.TokenInfo {
	return s.cache.get()
}

func (s *PersistentSession) refreshTokens(ctx context.Context, current *types.TokenInfo, opts []GrantOption) (*types.TokenInfo, error) {
	if current == nil || current.RefreshToken == "" {
		return nil, s.fail(ctx, fmt.Errorf("%w: no refresh token available", ErrAuthExpired))
	}
	refreshToken := current.RefreshToken

	info, err := s.manager.GrantByRefreshToken(ctx, refreshToken, opts...)
	if err != nil {
		if s.store != nil && StatusCode(err) == http.StatusBadRequest {
			return s.reconcile(ctx, refreshToken, err)
		}
		return nil, s.fail(ctx, err)
	}

	if s.store != nil {
		if err := s.store.Write(ctx, info); err != nil {
			return nil, s.fail(ctx, &StoreError{Op: "write", Err: err})
		}
	}

	s.manager.logger.Debug("refreshed persistent session")
	return info, nil
}

// reconcile handles a rejected refresh token. Another process sharing the
// store may have used it already, in which case the store holds its
// replacement.
func (s *PersistentSession) reconcile(ctx context.Context, used string, grantErr error) (*types.TokenInfo, error) {
	stored, err := s.store.Read(ctx)
	if err != nil {
		return nil, s.fail(ctx, multierror.Append(&StoreError{Op: "read", Err: err}, grantErr))
	}

	if stored == nil || stored.RefreshToken == "" || stored.RefreshToken == used {
		if !errors.Is(grantErr, ErrAuthExpired) {
			grantErr = fmt.Errorf("%w: refresh token rejected: %w", ErrAuthExpired, grantErr)
		}
		return nil, s.fail(ctx, grantErr)
	}

	s.manager.logger.Info("adopted token record refreshed by another process")
	return stored, nil
}

// fail clears local state and, best effort, the store. A failure to clear
// the store is reported ahead of err.
func (s *PersistentSession) fail(ctx context.Context, err error) error {
	s.cache.clear()
	if s.store == nil {
		return err
	}

	if clearErr := s.store.Clear(ctx); clearErr != nil {
		s.manager.logger.Warn("failed to clear token store", "error", clearErr)
		return multierror.Append(&StoreError{Op: "clear", Err: clearErr}, err)
	}
	return err
}
