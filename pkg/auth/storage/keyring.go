package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/zalando/go-keyring"
)

// KeyringStore implements OS keyring-based token storage.
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore creates a new keyring-based store.
func NewKeyringStore(config *types.StorageConfig) (*KeyringStore, error) {
	service := config.KeyringService
	if service == "" {
		return nil, fmt.Errorf("keyring_service is required for keyring storage")
	}

	user := config.KeyringUser
	if user == "" {
		user = "default"
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Write saves a token record to the OS keyring.
func (k *KeyringStore) Write(ctx context.Context, info *types.TokenInfo) error {
	if info == nil {
		return fmt.Errorf("token is nil")
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := keyring.Set(k.service, k.user, string(data)); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}

	return nil
}

// Read loads a token record from the OS keyring.
func (k *KeyringStore) Read(ctx context.Context) (*types.TokenInfo, error) {
	data, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve token from keyring: %w", err)
	}

	var info types.TokenInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &info, nil
}

// Clear deletes the token record from the OS keyring.
func (k *KeyringStore) Clear(ctx context.Context) error {
	if err := keyring.Delete(k.service, k.user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// Service returns the keyring service name.
func (k *KeyringStore) Service() string {
	return k.service
}

// User returns the keyring user name.
func (k *KeyringStore) User() string {
	return k.user
}
