package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/google/uuid"
)

const (
	// DefaultRedirectURL is where the login callback server listens.
	DefaultRedirectURL  = "http://localhost:8080/callback"
	defaultLoginTimeout = 5 * time.Minute
)

// LoginOptions configures the interactive authorization-code login.
type LoginOptions struct {
	// RedirectURL must be registered with the client. Port 0 picks a free port.
	RedirectURL string
	// Scopes are requested on the authorization page.
	Scopes []string
	// Opener opens the authorization URL. Defaults to the system browser.
	Opener BrowserOpener
	// Output receives user-facing instructions. Defaults to io.Discard.
	Output io.Writer
	// Timeout bounds the wait for the user. Defaults to five minutes.
	Timeout time.Duration
}

type callbackResult struct {
	code  string
	state string
	err   string
}

// Login runs the authorization-code flow: it serves the redirect URL
// locally, sends the user to the authorization page and exchanges the
// returned code for tokens.
func (m *TokenManager) Login(ctx context.Context, opts LoginOptions, grantOpts ...GrantOption) (*types.TokenInfo, error) {
	if opts.RedirectURL == "" {
		opts.RedirectURL = DefaultRedirectURL
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultLoginTimeout
	}

	server, callbacks, redirectURL, err := startCallbackServer(opts.RedirectURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = server.Close() }()

	state := uuid.NewString()
	authURL := m.AuthorizeURL(AuthorizeParams{
		State:       state,
		RedirectURI: redirectURL,
		Scopes:      opts.Scopes,
	})

	if err := OpenBrowserWithFallback(opts.Opener, authURL, opts.Output); err != nil {
		m.logger.Warn("failed to open browser", "error", err)
	}
	_, _ = fmt.Fprintln(opts.Output, "Waiting for authorization...")

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case cb := <-callbacks:
		if cb.err != "" {
			return nil, fmt.Errorf("authorization failed: %s", cb.err)
		}
		if cb.state != state {
			return nil, errors.New("authorization failed: state mismatch")
		}

		grantOpts = append(grantOpts, WithRedirectURI(redirectURL))
		return m.GrantByAuthorizationCode(ctx, cb.code, grantOpts...)

	case <-ctx.Done():
		return nil, fmt.Errorf("authorization cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil, errors.New("authorization timeout")
	}
}

// startCallbackServer starts a local HTTP server to receive the
// authorization callback. It returns the effective redirect URL, which
// differs from redirectURL when port 0 was requested.
func startCallbackServer(redirectURL string) (*http.Server, <-chan callbackResult, string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, nil, "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	callbacks := make(chan callbackResult, 1)
	path := u.Path
	if path == "" {
		path = "/"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result := callbackResult{
			code:  q.Get("code"),
			state: q.Get("state"),
			err:   q.Get("error"),
		}
		if result.code == "" && result.err == "" {
			result.err = "no authorization code received"
		}

		if result.err != "" {
			http.Error(w, "Authorization failed: "+result.err, http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprintf(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>")
		}

		select {
		case callbacks <- result:
		default:
		}
	})

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "8080")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to start callback server: %w", err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = server.Serve(listener) }()

	port := listener.Addr().(*net.TCPAddr).Port
	u.Host = net.JoinHostPort(u.Hostname(), fmt.Sprint(port))

	return server, callbacks, u.String(), nil
}
