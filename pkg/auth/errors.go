package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInvalidInput reports malformed caller input, detected before any request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration reports missing or invalid grant configuration.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrAuthExpired reports that the authorization or refresh token can no
	// longer be used. The user must authenticate again.
	ErrAuthExpired = errors.New("authorization expired")
	// ErrUnexpectedResponse reports an HTTP status or body that is not a token response.
	ErrUnexpectedResponse = errors.New("unexpected response")
	// ErrMalformedTokenResponse reports a 200 response missing required fields.
	ErrMalformedTokenResponse = errors.New("malformed token response")
	// ErrMaxRetriesExceeded marks a JWT grant that failed after every retry.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrTokenStore reports a token store failure.
	ErrTokenStore = errors.New("token store failure")
)

// ResponseError describes a failed call to the authorization server.
type ResponseError struct {
	// Kind is one of the error kinds above.
	Kind error
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Code is the OAuth2 error code from the body, if any.
	Code string
	// Description is the OAuth2 error description from the body, if any.
	Description string
	// Header holds the response headers.
	Header http.Header
	// Body holds the raw response body.
	Body []byte
	// MaxRetriesExceeded is set when a JWT grant ran out of retries.
	MaxRetriesExceeded bool
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
	if e.Code != "" {
		msg += ": " + e.Code
		if e.Description != "" {
			msg += ": " + e.Description
		}
	}
	if e.MaxRetriesExceeded {
		msg += ": " + ErrMaxRetriesExceeded.Error()
	}
	return msg
}

// Unwrap exposes the error kind to errors.Is.
func (e *ResponseError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.MaxRetriesExceeded {
		errs = append(errs, ErrMaxRetriesExceeded)
	}
	return errs
}

// StoreError wraps a failure of a TokenStore operation.
type StoreError struct {
	// Op is the failed operation: read, write or clear.
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("token store %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes ErrTokenStore and the underlying error.
func (e *StoreError) Unwrap() []error {
	return []error{ErrTokenStore, e.Err}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
