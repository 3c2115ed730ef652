// Package storage provides TokenStore implementations for persistent sessions.
//
// A TokenStore is the remote source of truth for a persistent session's
// token record. It may be more current than the session's local copy when
// several processes share one set of credentials.
package storage

//go:generate mockgen -source=storage.go -destination=mock_storage.go -package=storage

import (
	"context"
	"fmt"

	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// TokenStore persists a single token record.
type TokenStore interface {
	// Read returns the stored record, or nil without error when none exists.
	Read(ctx context.Context) (*types.TokenInfo, error)
	// Write replaces the stored record.
	Write(ctx context.Context, info *types.TokenInfo) error
	// Clear removes the stored record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Factory creates token store instances based on configuration.
type Factory struct{}

// NewFactory creates a new storage factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a token store instance based on the configuration.
func (f *Factory) Create(config *types.StorageConfig, appName string) (TokenStore, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	switch config.Type {
	case types.StorageTypeFile:
		return NewFileStore(config, appName)
	case types.StorageTypeKeyring:
		return NewKeyringStore(config)
	case types.StorageTypeMemory:
		key := config.Key
		if key == "" {
			key = appName
		}
		return NewMemoryStore(key), nil
	case types.StorageTypeBolt:
		return NewBoltStore(config, appName)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
