package auth

import (
	"context"
	"net/http"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"golang.org/x/oauth2"
)

// tokenInfoer is implemented by sessions that cache a token record.
type tokenInfoer interface {
	TokenInfo() *types.TokenInfo
}

type sessionTokenSource struct {
	ctx     context.Context
	session Session
	opts    []GrantOption
}

// TokenSource adapts a session to oauth2.TokenSource. Every call goes
// through GetAccessToken, so refreshes stay coordinated by the session.
func TokenSource(ctx context.Context, session Session, opts ...GrantOption) oauth2.TokenSource {
	return &sessionTokenSource{
		ctx:     ctx,
		session: session,
		opts:    opts,
	}
}

// Token implements oauth2.TokenSource.
func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := s.session.GetAccessToken(s.ctx, s.opts...)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}
	if ti, ok := s.session.(tokenInfoer); ok {
		if info := ti.TokenInfo(); info != nil && info.AccessToken == accessToken {
			token.Expiry = info.ExpiresAt()
		}
	}
	return token, nil
}

// NewClient returns an HTTP client that authorizes every request with a
// token from session. A nil base uses http.DefaultTransport.
func NewClient(ctx context.Context, session Session, base http.RoundTripper, opts ...GrantOption) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: TokenSource(ctx, session, opts...),
			Base:   base,
		},
	}
}
