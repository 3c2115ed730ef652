package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseError(t *testing.T) {
	err := &ResponseError{
		Kind:        ErrAuthExpired,
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_grant",
		Description: "Refresh token has expired",
	}

	assert.Equal(t, "authorization expired (status 400): invalid_grant: Refresh token has expired", err.Error())
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)

	err.MaxRetriesExceeded = true
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("refresh failed: %w", &ResponseError{Kind: ErrUnexpectedResponse, StatusCode: 503})
	assert.Equal(t, 503, StatusCode(wrapped))
	assert.Equal(t, 0, StatusCode(errors.New("connection refused")))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("permission denied")
	err := &StoreError{Op: "write", Err: cause}

	assert.Equal(t, "token store write failed: permission denied", err.Error())
	assert.ErrorIs(t, err, ErrTokenStore)
	assert.ErrorIs(t, err, cause)
}
