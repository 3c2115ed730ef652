// Package types defines common types used across the auth package.
package types

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenInfo is a token record produced by a successful grant or refresh.
// Records are replaced wholesale on each refresh and never patched.
type TokenInfo struct {
	// AccessToken is the bearer credential.
	AccessToken string `json:"accessToken"`
	// RefreshToken is only present for grants that support refresh.
	RefreshToken string `json:"refreshToken,omitempty"`
	// AcquiredAtMS is the wall-clock capture time in Unix milliseconds.
	AcquiredAtMS int64 `json:"acquiredAtMS"`
	// AccessTokenTTLMS is how long the access token is valid, in milliseconds.
	AccessTokenTTLMS int64 `json:"accessTokenTTLMS"`
	// TokenType is the token type reported by the server (e.g., "bearer").
	TokenType string `json:"tokenType,omitempty"`
	// Scopes are the granted scopes, when the server reports them.
	Scopes []string `json:"scopes,omitempty"`
	// RestrictedTo holds the resource restrictions of a downscoped token.
	RestrictedTo []map[string]interface{} `json:"restrictedTo,omitempty"`
}

// ExpiresAt returns the moment the access token stops being valid.
// It returns the zero time when the record lacks timing metadata.
func (t *TokenInfo) ExpiresAt() time.Time {
	if t == nil || t.AcquiredAtMS == 0 || t.AccessTokenTTLMS == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.AcquiredAtMS + t.AccessTokenTTLMS)
}

// ValidAt reports whether the record is still valid at now, leaving buffer
// before its expiry. Records without an acquisition time or TTL are never valid.
func (t *TokenInfo) ValidAt(now time.Time, buffer time.Duration) bool {
	if t == nil || t.AcquiredAtMS == 0 || t.AccessTokenTTLMS == 0 {
		return false
	}
	return t.AcquiredAtMS+t.AccessTokenTTLMS-buffer.Milliseconds() > now.UnixMilli()
}

// Clone returns a deep copy of the record.
func (t *TokenInfo) Clone() *TokenInfo {
	if t == nil {
		return nil
	}
	c := *t
	if t.Scopes != nil {
		c.Scopes = make([]string, len(t.Scopes))
		copy(c.Scopes, t.Scopes)
	}
	if t.RestrictedTo != nil {
		c.RestrictedTo = make([]map[string]interface{}, len(t.RestrictedTo))
		for i, r := range t.RestrictedTo {
			m := make(map[string]interface{}, len(r))
			for k, v := range r {
				m[k] = v
			}
			c.RestrictedTo[i] = m
		}
	}
	return &c
}

// OAuth2Token converts the record for use with golang.org/x/oauth2.
func (t *TokenInfo) OAuth2Token() *oauth2.Token {
	if t == nil {
		return nil
	}
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    tokenType,
		Expiry:       t.ExpiresAt(),
	}
}

// StorageConfig represents token storage configuration.
type StorageConfig struct {
	// Type is the storage backend type.
	Type StorageType `yaml:"type" json:"type" mapstructure:"type"`
	// Key identifies the record inside shared backends (memory, bolt).
	Key string `yaml:"key,omitempty" json:"key,omitempty" mapstructure:"key"`
	// Path is the file path for file and bolt storage.
	Path string `yaml:"path,omitempty" json:"path,omitempty" mapstructure:"path"`
	// KeyringService is the service name for keyring storage.
	KeyringService string `yaml:"keyring_service,omitempty" json:"keyring_service,omitempty" mapstructure:"keyring_service"`
	// KeyringUser is the user name for keyring storage.
	KeyringUser string `yaml:"keyring_user,omitempty" json:"keyring_user,omitempty" mapstructure:"keyring_user"`
}

// StorageType represents the type of token storage.
type StorageType string

const (
	// StorageTypeFile uses file-based storage.
	StorageTypeFile StorageType = "file"
	// StorageTypeKeyring uses OS keyring storage.
	StorageTypeKeyring StorageType = "keyring"
	// StorageTypeMemory uses the process-wide in-memory map.
	StorageTypeMemory StorageType = "memory"
	// StorageTypeBolt uses a bbolt database file.
	StorageTypeBolt StorageType = "bolt"
)
