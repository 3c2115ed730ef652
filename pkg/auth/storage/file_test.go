package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CliForge/contentsdk/pkg/auth/types"
)

func TestFileStore_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	tokenPath := filepath.Join(tmpDir, "tokens.json")

	store, err := NewFileStore(&types.StorageConfig{Type: types.StorageTypeFile, Path: tokenPath}, "test-app")
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}

	ctx := context.Background()
	info := &types.TokenInfo{
		AccessToken:      "at-1",
		RefreshToken:     "rt-1",
		AcquiredAtMS:     1700000000000,
		AccessTokenTTLMS: 3600000,
	}

	if err := store.Write(ctx, info); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	stat, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatalf("token file was not created: %v", err)
	}
	if perm := stat.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}

	loaded, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if loaded.AccessToken != "at-1" || loaded.RefreshToken != "rt-1" {
		t.Errorf("Read() = %+v, want tokens at-1/rt-1", loaded)
	}
	if loaded.AcquiredAtMS != info.AcquiredAtMS || loaded.AccessTokenTTLMS != info.AccessTokenTTLMS {
		t.Errorf("Read() timing = %d/%d, want %d/%d",
			loaded.AcquiredAtMS, loaded.AccessTokenTTLMS, info.AcquiredAtMS, info.AccessTokenTTLMS)
	}
}

func TestFileStore_ReadMissingReturnsNil(t *testing.T) {
	store, err := NewFileStore(&types.StorageConfig{Path: filepath.Join(t.TempDir(), "none.json")}, "test-app")
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}

	info, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v, want nil", err)
	}
	if info != nil {
		t.Errorf("Read() = %+v, want nil", info)
	}
}

func TestFileStore_ReadCorrupt(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(tokenPath, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	store, _ := NewFileStore(&types.StorageConfig{Path: tokenPath}, "test-app")
	if _, err := store.Read(context.Background()); err == nil {
		t.Error("Read() should fail on corrupt file")
	}
}

func TestFileStore_Clear(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "tokens.json")
	store, _ := NewFileStore(&types.StorageConfig{Path: tokenPath}, "test-app")
	ctx := context.Background()

	if err := store.Write(ctx, &types.TokenInfo{AccessToken: "x"}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Error("token file should be removed")
	}

	// Clearing twice is fine
	if err := store.Clear(ctx); err != nil {
		t.Errorf("second Clear() failed: %v", err)
	}
}

func TestFileStore_WriteNil(t *testing.T) {
	store, _ := NewFileStore(&types.StorageConfig{Path: filepath.Join(t.TempDir(), "t.json")}, "test-app")
	if err := store.Write(context.Background(), nil); err == nil {
		t.Error("Write(nil) should fail")
	}
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "nested", "dir", "tokens.json")
	store, err := NewFileStore(&types.StorageConfig{Path: tokenPath}, "test-app")
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}
	if store.Path() != tokenPath {
		t.Errorf("Path() = %s, want %s", store.Path(), tokenPath)
	}
	if _, err := os.Stat(filepath.Dir(tokenPath)); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}
