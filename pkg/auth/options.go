package auth

// GrantOption adjusts a single grant, exchange or revocation request.
type GrantOption func(*grantOptions)

type grantOptions struct {
	ip          string
	redirectURI string
	actor       *Actor
	sharedLink  string
}

// Actor identifies the end user a downscoped token acts for.
type Actor struct {
	ID   string
	Name string
}

// WithIP forwards the end user's IP address to the authorization server.
func WithIP(ip string) GrantOption {
	return func(o *grantOptions) {
		o.ip = ip
	}
}

// WithRedirectURI sets the redirect URI of an authorization-code grant.
func WithRedirectURI(uri string) GrantOption {
	return func(o *grantOptions) {
		o.redirectURI = uri
	}
}

// WithActor embeds an actor token in a token exchange.
func WithActor(actor Actor) GrantOption {
	return func(o *grantOptions) {
		o.actor = &actor
	}
}

// WithSharedLink scopes a token exchange to a shared link.
func WithSharedLink(url string) GrantOption {
	return func(o *grantOptions) {
		o.sharedLink = url
	}
}

func collectGrantOptions(opts []GrantOption) *grantOptions {
	o := &grantOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
