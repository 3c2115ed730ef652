package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_AuthorizesRequests(t *testing.T) {
	authSrv := newFakeAuthServer(t, grantResponder(3600))
	session, err := NewAnonymousSession(newTestManager(t, authSrv, nil))
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	client := NewClient(context.Background(), session, nil)
	for i := 0; i < 2; i++ {
		resp, err := client.Get(api.URL + "/2.0/users/me")
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer access-1", "Bearer access-1"}, seen)
	assert.Equal(t, 1, authSrv.tokenRequests())
}

func TestTokenSource(t *testing.T) {
	authSrv := newFakeAuthServer(t, grantResponder(3600))
	session, err := NewAnonymousSession(newTestManager(t, authSrv, nil))
	require.NoError(t, err)

	token, err := TokenSource(context.Background(), session).Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, session.TokenInfo().ExpiresAt(), token.Expiry)
	assert.True(t, token.Valid())
}

func TestTokenSource_PropagatesErrors(t *testing.T) {
	authSrv := newFakeAuthServer(t, rejectRefresh)
	session, err := NewPersistentSession(context.Background(), newTestManager(t, authSrv, nil), expiredToken("access-0", "refresh-0"), nil)
	require.NoError(t, err)

	_, err = TokenSource(context.Background(), session).Token()
	assert.ErrorIs(t, err, ErrAuthExpired)
}

func TestTokenSource_BasicSessionHasNoExpiry(t *testing.T) {
	authSrv := newFakeAuthServer(t, grantResponder(3600))
	session, err := NewBasicSession(newTestManager(t, authSrv, nil), "developer-token")
	require.NoError(t, err)

	token, err := TokenSource(context.Background(), session).Token()
	require.NoError(t, err)
	assert.Equal(t, "developer-token", token.AccessToken)
	assert.True(t, token.Expiry.IsZero())
}
