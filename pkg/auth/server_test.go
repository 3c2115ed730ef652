package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAuthServer stands in for the authorization server. Token requests are
// answered by respond, which receives the 1-based request number.
type fakeAuthServer struct {
	*httptest.Server

	mu      sync.Mutex
	forms   []url.Values
	headers []http.Header
	revoked []string
	respond func(w http.ResponseWriter, r *http.Request, n int)
}

func newFakeAuthServer(t *testing.T, respond func(w http.ResponseWriter, r *http.Request, n int)) *fakeAuthServer {
	t.Helper()

	s := &fakeAuthServer{respond: respond}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.forms = append(s.forms, r.PostForm)
		s.headers = append(s.headers, r.Header.Clone())
		n := len(s.forms)
		s.mu.Unlock()

		s.respond(w, r, n)
	})
	mux.HandleFunc("/oauth2/revoke", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.revoked = append(s.revoked, r.PostForm.Get("token"))
		s.mu.Unlock()

		w.WriteHeader(http.StatusOK)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *fakeAuthServer) tokenRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}

func (s *fakeAuthServer) form(i int) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[i]
}

func (s *fakeAuthServer) header(i int) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[i]
}

func (s *fakeAuthServer) revokedTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.revoked...)
}

// grantResponder answers every token request with a numbered token pair.
func grantResponder(expiresIn int) func(w http.ResponseWriter, r *http.Request, n int) {
	return func(w http.ResponseWriter, r *http.Request, n int) {
		writeToken(w, tokenName("access", n), tokenName("refresh", n), expiresIn)
	}
}

func tokenName(prefix string, n int) string {
	return prefix + "-" + strconv.Itoa(n)
}

func writeToken(w http.ResponseWriter, accessToken, refreshToken string, expiresIn int) {
	body := map[string]interface{}{
		"access_token": accessToken,
		"expires_in":   expiresIn,
		"token_type":   "bearer",
	}
	if refreshToken != "" {
		body["refresh_token"] = refreshToken
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func testConfig(srv *fakeAuthServer) *Config {
	return &Config{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		APIRootURL:    srv.URL,
		ExpiredBuffer: time.Second,
		RetryInterval: time.Millisecond,
	}
}

func newTestManager(t *testing.T, srv *fakeAuthServer, mutate func(*Config), opts ...TokenManagerOption) *TokenManager {
	t.Helper()

	cfg := testConfig(srv)
	if mutate != nil {
		mutate(cfg)
	}

	opts = append([]TokenManagerOption{WithHTTPClient(srv.Client())}, opts...)
	manager, err := NewTokenManager(cfg, opts...)
	require.NoError(t, err)
	return manager
}

var testKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
})

func testKeyPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(testKey()),
	}))
}

func withAppAuth(cfg *Config) {
	cfg.AppAuth = &AppAuthConfig{
		KeyID:      "key-id",
		PrivateKey: testKeyPEM(),
	}
}

// freshToken is a record that stays valid for an hour.
func freshToken(accessToken, refreshToken string) *TokenInfo {
	return &TokenInfo{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AcquiredAtMS:     time.Now().UnixMilli(),
		AccessTokenTTLMS: time.Hour.Milliseconds(),
	}
}

// expiredToken is a record that expired an hour ago.
func expiredToken(accessToken, refreshToken string) *TokenInfo {
	return &TokenInfo{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AcquiredAtMS:     time.Now().Add(-2 * time.Hour).UnixMilli(),
		AccessTokenTTLMS: time.Hour.Milliseconds(),
	}
}
