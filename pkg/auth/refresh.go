package auth

import (
	"context"
	"sync"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

type tokenState int

const (
	tokenExpired tokenState = iota
	tokenStale
	tokenFresh
)

// freshness classifies info under the configured refresh policy.
func (m *TokenManager) freshness(info *types.TokenInfo) tokenState {
	now := m.now()
	cfg := m.config

	if cfg.RefreshPolicy == RefreshPolicyBackground {
		if !info.ValidAt(now, cfg.ExpiredBuffer) {
			return tokenExpired
		}
		if cfg.StaleBuffer > cfg.ExpiredBuffer && !info.ValidAt(now, cfg.StaleBuffer) {
			return tokenStale
		}
		return tokenFresh
	}

	if !info.ValidAt(now, max(cfg.ExpiredBuffer, cfg.StaleBuffer)) {
		return tokenExpired
	}
	return tokenFresh
}

// tokenCache holds the token record of a session. Readers get clones.
type tokenCache struct {
	mu   sync.RWMutex
	info *types.TokenInfo
}

func (c *tokenCache) get() *types.TokenInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info.Clone()
}

func (c *tokenCache) set(info *types.TokenInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info.Clone()
}

func (c *tokenCache) clear() {
	c.set(nil)
}

type refreshFunc func(ctx context.Context) (*types.TokenInfo, error)

// refreshGroup runs at most one refresh at a time. Callers arriving while a
// refresh is in flight share its outcome.
type refreshGroup struct {
	group singleflight.Group
}

// do joins or starts a refresh and waits for it. The refresh itself is not
// bound to ctx: a caller that gives up gets ctx.Err() while the others keep
// waiting.
func (g *refreshGroup) do(ctx context.Context, fn refreshFunc) (*types.TokenInfo, error) {
	ch := g.group.DoChan(refreshKey, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.TokenInfo), nil
	}
}

// kick starts a refresh unless one is in flight, without waiting for it.
func (g *refreshGroup) kick(ctx context.Context, fn refreshFunc) {
	g.group.DoChan(refreshKey, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
}

// refresher is the token state and refresh coordination shared by the
// refreshing session variants. Each session owns its own refresher.
type refresher struct {
	manager *TokenManager
	cache   tokenCache
	group   refreshGroup
	// grant obtains a new record. current is the cached record, possibly nil.
	grant func(ctx context.Context, current *types.TokenInfo, opts []GrantOption) (*types.TokenInfo, error)
}

// accessToken returns the cached access token when it is usable and
// refreshes it otherwise.
func (r *refresher) accessToken(ctx context.Context, opts []GrantOption) (string, error) {
	info := r.cache.get()

	switch r.manager.freshness(info) {
	case tokenFresh:
		return info.AccessToken, nil
	case tokenStale:
		r.group.kick(ctx, r.refreshFunc(opts, true))
		return info.AccessToken, nil
	}

	fresh, err := r.group.do(ctx, r.refreshFunc(opts, false))
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

func (r *refresher) refreshFunc(opts []GrantOption, background bool) refreshFunc {
	return func(ctx context.Context) (*types.TokenInfo, error) {
		current := r.cache.get()
		// A refresh that finished just before this one started may have
		// already replaced the record.
		if r.manager.freshness(current) == tokenFresh {
			return current, nil
		}

		info, err := r.grant(ctx, current, opts)
		if err != nil {
			if background {
				r.manager.logger.Warn("background token refresh failed", "error", err)
			}
			return nil, err
		}

		r.cache.set(info)
		return info, nil
	}
}
