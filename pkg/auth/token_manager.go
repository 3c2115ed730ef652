package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/CliForge/contentsdk/pkg/secrets"
	"github.com/google/uuid"
)

// Grant types understood by the authorization server.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypeJWT               = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	GrantTypeTokenExchange     = "urn:ietf:params:oauth:grant-type:token-exchange"
)

const (
	accessTokenType = "urn:ietf:params:oauth:token-type:access_token"
	idTokenType     = "urn:ietf:params:oauth:token-type:id_token"

	tokenPath     = "/oauth2/token"
	revokePath    = "/oauth2/revoke"
	authorizePath = "/oauth2/authorize"

	forwardedForHeader = "X-Forwarded-For"
)

// TokenManager executes grants against the authorization server. It keeps
// no token state and is safe for concurrent use.
type TokenManager struct {
	config    *Config
	client    Doer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
	signer    *assertionSigner
	tokenURL  string
	revokeURL string
}

// TokenManagerOption configures a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithHTTPClient sets the client used for all requests.
func WithHTTPClient(client Doer) TokenManagerOption {
	return func(m *TokenManager) {
		m.client = client
	}
}

// WithClock sets the clock used for token timestamps and assertions.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// WithLogger sets the logger used by the manager and its sessions.
func WithLogger(logger *slog.Logger) TokenManagerOption {
	return func(m *TokenManager) {
		m.logger = logger
	}
}

// NewTokenManager creates a TokenManager. The app-auth private key, if
// configured, is parsed here so that key problems surface early.
func NewTokenManager(config *Config, opts ...TokenManagerOption) (*TokenManager, error) {
	if config == nil {
		return nil, configError("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := config.WithDefaults()
	root := strings.TrimSuffix(cfg.APIRootURL, "/")

	m := &TokenManager{
		config:    cfg,
		client:    &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
		sleep:     sleepContext,
		logger:    slog.New(slog.DiscardHandler),
		tokenURL:  root + tokenPath,
		revokeURL: root + revokePath,
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.AppAuth != nil {
		signer, err := newAssertionSigner(cfg.AppAuth)
		if err != nil {
			return nil, err
		}
		m.signer = signer
	}

	return m, nil
}

// Config returns the effective configuration, with defaults applied.
func (m *TokenManager) Config() Config {
	return *m.config
}

// IsTokenValid reports whether info is valid outside buffer. Records that
// lack an acquisition time or TTL are never valid.
func (m *TokenManager) IsTokenValid(info *types.TokenInfo, buffer time.Duration) bool {
	return info.ValidAt(m.now(), buffer)
}

// GrantByAuthorizationCode exchanges an authorization code for tokens.
func (m *TokenManager) GrantByAuthorizationCode(ctx context.Context, code string, opts ...GrantOption) (*types.TokenInfo, error) {
	if code == "" {
		return nil, invalidInput("authorization code must be a non-empty string")
	}

	o := collectGrantOptions(opts)
	form := url.Values{"code": {code}}
	if o.redirectURI != "" {
		form.Set("redirect_uri", o.redirectURI)
	}

	return m.grant(ctx, GrantTypeAuthorizationCode, form, o)
}

// GrantByRefreshToken exchanges a refresh token for new tokens.
func (m *TokenManager) GrantByRefreshToken(ctx context.Context, refreshToken string, opts ...GrantOption) (*types.TokenInfo, error) {
	if refreshToken == "" {
		return nil, invalidInput("refresh token must be a non-empty string")
	}

	form := url.Values{"refresh_token": {refreshToken}}
	return m.grant(ctx, GrantTypeRefreshToken, form, collectGrantOptions(opts))
}

// GrantByClientCredentials obtains an access token for the client itself,
// or for the configured enterprise or user.
func (m *TokenManager) GrantByClientCredentials(ctx context.Context, opts ...GrantOption) (*types.TokenInfo, error) {
	form := url.Values{}
	switch {
	case m.config.UserID != "":
		form.Set("box_subject_type", string(SubjectTypeUser))
		form.Set("box_subject_id", m.config.UserID)
	case m.config.EnterpriseID != "":
		form.Set("box_subject_type", string(SubjectTypeEnterprise))
		form.Set("box_subject_id", m.config.EnterpriseID)
	}

	return m.grant(ctx, GrantTypeClientCredentials, form, collectGrantOptions(opts))
}

// ExchangeToken trades accessToken for a token restricted to scopes and,
// optionally, a single resource.
func (m *TokenManager) ExchangeToken(ctx context.Context, accessToken string, scopes []string, resource string, opts ...GrantOption) (*types.TokenInfo, error) {
	if accessToken == "" {
		return nil, invalidInput("access token to exchange must be a non-empty string")
	}

	o := collectGrantOptions(opts)
	form := url.Values{
		"subject_token":      {accessToken},
		"subject_token_type": {accessTokenType},
		"scope":              {strings.Join(scopes, " ")},
	}
	if resource != "" {
		form.Set("resource", resource)
	}
	if o.sharedLink != "" {
		form.Set("box_shared_link", o.sharedLink)
	}
	if o.actor != nil {
		actorToken, err := buildActorToken(m.config.ClientID, *o.actor, m.now(), uuid.NewString())
		if err != nil {
			return nil, err
		}
		form.Set("actor_token", actorToken)
		form.Set("actor_token_type", idTokenType)
	}

	return m.grant(ctx, GrantTypeTokenExchange, form, o)
}

// Revoke invalidates token at the server. Revoking a refresh token also
// invalidates the access token paired with it.
func (m *TokenManager) Revoke(ctx context.Context, token string, opts ...GrantOption) error {
	form := url.Values{
		"token":         {token},
		"client_id":     {m.config.ClientID},
		"client_secret": {m.config.ClientSecret},
	}

	resp, body, err := m.post(ctx, m.revokeURL, form, collectGrantOptions(opts))
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newResponseError(ErrUnexpectedResponse, resp, body)
	}

	m.logger.Debug("token revoked", secrets.Attr("token", token))
	return nil
}

// AuthorizeParams are the parameters of the user-facing authorization URL.
type AuthorizeParams struct {
	State       string
	RedirectURI string
	Scopes      []string
}

// AuthorizeURL returns the URL a user visits to grant access to the client.
func (m *TokenManager) AuthorizeURL(params AuthorizeParams) string {
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {m.config.ClientID},
	}
	if params.State != "" {
		q.Set("state", params.State)
	}
	if params.RedirectURI != "" {
		q.Set("redirect_uri", params.RedirectURI)
	}
	if len(params.Scopes) > 0 {
		q.Set("scope", strings.Join(params.Scopes, " "))
	}

	return strings.TrimSuffix(m.config.AuthorizeRootURL, "/") + authorizePath + "?" + q.Encode()
}

// tokenResponse is the body of a successful grant.
type tokenResponse struct {
	AccessToken  string                   `json:"access_token"`
	RefreshToken string                   `json:"refresh_token"`
	ExpiresIn    int64                    `json:"expires_in"`
	TokenType    string                   `json:"token_type"`
	Scope        string                   `json:"scope"`
	RestrictedTo []map[string]interface{} `json:"restricted_to"`
}

// errorResponse is the body of a failed grant.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// grant posts a token request and turns the response into a token record.
func (m *TokenManager) grant(ctx context.Context, grantType string, form url.Values, o *grantOptions) (*types.TokenInfo, error) {
	form.Set("grant_type", grantType)
	form.Set("client_id", m.config.ClientID)
	form.Set("client_secret", m.config.ClientSecret)

	// Captured before the request so the record never outlives the server's token
	acquiredAt := m.now()

	resp, body, err := m.post(ctx, m.tokenURL, form, o)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respErr := newResponseError(ErrUnexpectedResponse, resp, body)
		if respErr.Code == "invalid_grant" {
			respErr.Kind = ErrAuthExpired
		}
		m.logger.Debug("token grant failed",
			"grant_type", grantType,
			"status", resp.StatusCode,
			"error", respErr.Code)
		return nil, respErr
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, newResponseError(ErrUnexpectedResponse, resp, body)
	}

	if tr.AccessToken == "" || (requiresRefreshToken(grantType) && tr.RefreshToken == "") {
		return nil, newResponseError(ErrMalformedTokenResponse, resp, body)
	}

	info := &types.TokenInfo{
		AccessToken:      tr.AccessToken,
		RefreshToken:     tr.RefreshToken,
		AcquiredAtMS:     acquiredAt.UnixMilli(),
		AccessTokenTTLMS: tr.ExpiresIn * 1000,
		TokenType:        tr.TokenType,
		Scopes:           strings.Fields(tr.Scope),
		RestrictedTo:     tr.RestrictedTo,
	}

	m.logger.Debug("token granted",
		"grant_type", grantType,
		"expires_in", tr.ExpiresIn,
		secrets.Attr("access_token", tr.AccessToken))

	return info, nil
}

func requiresRefreshToken(grantType string) bool {
	return grantType == GrantTypeAuthorizationCode || grantType == GrantTypeRefreshToken
}

// post sends a form-encoded POST and reads the whole response body.
func (m *TokenManager) post(ctx context.Context, endpoint string, form url.Values, o *grantOptions) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if o != nil && o.ip != "" {
		req.Header.Set(forwardedForHeader, o.ip)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp, body, nil
}

func newResponseError(kind error, resp *http.Response, body []byte) *ResponseError {
	respErr := &ResponseError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		respErr.Code = errResp.Error
		respErr.Description = errResp.ErrorDescription
	}

	return respErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
