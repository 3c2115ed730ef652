package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/adrg/xdg"
)

// FileStore implements file-based token storage.
type FileStore struct {
	path string
}

// NewFileStore creates a new file-based store.
func NewFileStore(config *types.StorageConfig, appName string) (*FileStore, error) {
	path := config.Path
	if path == "" {
		// Use XDG-compliant default path
		path = filepath.Join(xdg.ConfigHome, appName, "tokens.json")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	return &FileStore{
		path: path,
	}, nil
}

// Write saves a token record to the file. The file is replaced atomically
// so a concurrent reader never observes a partial record.
func (f *FileStore) Write(ctx context.Context, info *types.TokenInfo) error {
	if info == nil {
		return fmt.Errorf("token is nil")
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

// Read loads a token record from the file.
func (f *FileStore) Read(ctx context.Context) (*types.TokenInfo, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var info types.TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &info, nil
}

// Clear deletes the token file.
func (f *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Path returns the path to the token file.
func (f *FileStore) Path() string {
	return f.path
}
