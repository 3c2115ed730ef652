package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/youmark/pkcs8"
)

const (
	jwtSubjectTypeClaim = "box_sub_type"
	actorSubjectType    = "external"
	actorTokenLifetime  = 60 * time.Second
)

// assertionSigner holds the parsed signing key for JWT assertions.
type assertionSigner struct {
	method jwt.SigningMethod
	key    *rsa.PrivateKey
	keyID  string
}

// assertionClaims are the parts of an assertion that do not change between
// attempts.
type assertionClaims struct {
	Issuer          string
	Subject         string
	SubjectType     SubjectType
	Audience        string
	Lifetime        time.Duration
	IncludeIssuedAt bool
}

// assertionAttempt carries what changes on each attempt.
type assertionAttempt struct {
	// IssuedAt is the reference time, preferably the server's clock.
	IssuedAt time.Time
	// Delay is added to the expiration so a retry sent after a backoff is
	// still valid for the full lifetime.
	Delay time.Duration
	// JTI must be unique per assertion.
	JTI string
}

func newAssertionSigner(cfg *AppAuthConfig) (*assertionSigner, error) {
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodRSA)
	if !ok {
		return nil, configError("unsupported app_auth.algorithm: %s", cfg.Algorithm)
	}

	key, err := parsePrivateKey([]byte(cfg.PrivateKey), cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return &assertionSigner{
		method: method,
		key:    key,
		keyID:  cfg.KeyID,
	}, nil
}

// buildAssertion signs a fresh assertion. It has no side effects, so every
// retry builds its own assertion from the same base claims.
func buildAssertion(signer *assertionSigner, base assertionClaims, attempt assertionAttempt) (string, error) {
	claims := jwt.MapClaims{
		"iss":               base.Issuer,
		"sub":               base.Subject,
		jwtSubjectTypeClaim: string(base.SubjectType),
		"aud":               base.Audience,
		"jti":               attempt.JTI,
		"exp":               attempt.IssuedAt.Add(base.Lifetime + attempt.Delay).Unix(),
	}
	if base.IncludeIssuedAt {
		claims["iat"] = attempt.IssuedAt.Unix()
	}

	token := jwt.NewWithClaims(signer.method, claims)
	token.Header["kid"] = signer.keyID

	signed, err := token.SignedString(signer.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return signed, nil
}

// buildActorToken creates the unsigned actor token used by token exchange.
func buildActorToken(clientID string, actor Actor, now time.Time, jti string) (string, error) {
	claims := jwt.MapClaims{
		"iss":               clientID,
		"sub":               actor.ID,
		jwtSubjectTypeClaim: actorSubjectType,
		"name":              actor.Name,
		"jti":               jti,
		"exp":               now.Add(actorTokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		return "", fmt.Errorf("failed to build actor token: %w", err)
	}
	return signed, nil
}

// parsePrivateKey decodes a PEM RSA key in PKCS#1, PKCS#8 or encrypted
// PKCS#8 form.
func parsePrivateKey(pemData []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("private key is not PEM encoded")
	}

	var (
		key interface{}
		err error
	)
	switch block.Type {
	case "ENCRYPTED PRIVATE KEY":
		if passphrase == "" {
			return nil, fmt.Errorf("private key is encrypted but no passphrase was given")
		}
		key, err = pkcs8.ParsePKCS8PrivateKey(block.Bytes, []byte(passphrase))
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block type: %s", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", key)
	}
	return rsaKey, nil
}
