package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const maxRetryInterval = 10 * time.Minute

// RetryContext describes a failed JWT grant attempt.
type RetryContext struct {
	// Err is the error of the failed attempt.
	Err error
	// Attempt is the number of the retry about to be made, starting at 1.
	Attempt int
	// MaxRetries is the configured retry limit.
	MaxRetries int
	// BaseInterval is the configured retry interval.
	BaseInterval time.Duration
	// Elapsed is the time since the first attempt.
	Elapsed time.Duration
}

// RetryStrategy decides how long to wait before retrying a JWT grant.
// Returning an error aborts the grant with that error.
type RetryStrategy func(rc RetryContext) (time.Duration, error)

// GrantByJWT obtains an access token for an enterprise or user with a
// signed JWT assertion. Clock skew, rate limiting and server errors are
// retried up to NumMaxRetries times.
func (m *TokenManager) GrantByJWT(ctx context.Context, subjectType SubjectType, subjectID string, opts ...GrantOption) (*types.TokenInfo, error) {
	if m.signer == nil {
		return nil, configError("app_auth is not configured")
	}
	switch subjectType {
	case SubjectTypeEnterprise, SubjectTypeUser:
	default:
		return nil, invalidInput("unsupported subject type: %q", subjectType)
	}
	if subjectID == "" {
		return nil, invalidInput("subject ID must be a non-empty string")
	}

	o := collectGrantOptions(opts)
	base := assertionClaims{
		Issuer:          m.config.ClientID,
		Subject:         subjectID,
		SubjectType:     subjectType,
		Audience:        m.tokenURL,
		Lifetime:        m.config.AppAuth.ExpirationTime,
		IncludeIssuedAt: m.config.AppAuth.VerifyTimestamp,
	}

	start := m.now()
	bo := m.newBackOff()
	attempt := assertionAttempt{IssuedAt: start}

	for retry := 0; ; retry++ {
		attempt.JTI = uuid.NewString()
		assertion, err := buildAssertion(m.signer, base, attempt)
		if err != nil {
			return nil, err
		}

		info, err := m.grant(ctx, GrantTypeJWT, url.Values{"assertion": {assertion}}, o)
		if err == nil {
			return info, nil
		}

		var respErr *ResponseError
		if !errors.As(err, &respErr) || !isRetryableJWTError(respErr) {
			return nil, err
		}
		if retry >= m.config.NumMaxRetries {
			respErr.MaxRetriesExceeded = true
			m.logger.Warn("jwt grant failed after retries",
				"subject_type", subjectType,
				"attempts", retry+1,
				"status", respErr.StatusCode)
			return nil, respErr
		}

		delay, err := m.retryDelay(respErr, retry+1, start, bo)
		if err != nil {
			return nil, err
		}

		m.logger.Info("retrying jwt grant",
			"subject_type", subjectType,
			"attempt", retry+1,
			"delay", delay,
			"status", respErr.StatusCode)

		attempt = assertionAttempt{
			IssuedAt: serverTime(respErr.Header, m.now()),
			Delay:    delay,
		}
		if err := m.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// isRetryableJWTError reports whether a failed JWT grant may succeed when
// retried with a new assertion.
func isRetryableJWTError(err *ResponseError) bool {
	if err.StatusCode == http.StatusTooManyRequests || err.StatusCode >= http.StatusInternalServerError {
		return true
	}
	if !errors.Is(err.Kind, ErrAuthExpired) || err.Header.Get("Date") == "" {
		return false
	}
	desc := strings.ToLower(err.Description)
	return strings.Contains(desc, "exp") || strings.Contains(desc, "jti")
}

func (m *TokenManager) retryDelay(respErr *ResponseError, attempt int, start time.Time, bo backoff.BackOff) (time.Duration, error) {
	next := bo.NextBackOff()

	if m.config.RetryStrategy != nil {
		delay, err := m.config.RetryStrategy(RetryContext{
			Err:          respErr,
			Attempt:      attempt,
			MaxRetries:   m.config.NumMaxRetries,
			BaseInterval: m.config.RetryInterval,
			Elapsed:      m.now().Sub(start),
		})
		if err != nil {
			return 0, fmt.Errorf("retry strategy aborted jwt grant: %w", err)
		}
		return delay, nil
	}

	if delay, ok := retryAfter(respErr.Header, m.now()); ok {
		return delay, nil
	}

	return next, nil
}

func (m *TokenManager) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.config.RetryInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5
	bo.MaxInterval = maxRetryInterval
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date.
func retryAfter(header http.Header, now time.Time) (time.Duration, bool) {
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

// serverTime returns the response Date, or fallback when it is absent.
func serverTime(header http.Header, fallback time.Time) time.Time {
	if at, err := http.ParseTime(header.Get("Date")); err == nil {
		return at
	}
	return fallback
}
