package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CliForge/contentsdk/pkg/auth/types"
	"github.com/adrg/xdg"
	bolt "go.etcd.io/bbolt"
)

var tokensBucket = []byte("tokens")

// BoltStore keeps token records in a bbolt database, one record per key.
//
// The database is opened for the duration of each operation only, so
// several processes on one host can share the file; bbolt's file lock
// serializes them.
type BoltStore struct {
	path        string
	key         []byte
	lockTimeout time.Duration
}

// NewBoltStore creates a new bbolt-backed store.
func NewBoltStore(config *types.StorageConfig, appName string) (*BoltStore, error) {
	path := config.Path
	if path == "" {
		path = filepath.Join(xdg.DataHome, appName, "tokens.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	key := config.Key
	if key == "" {
		key = "default"
	}

	return &BoltStore{
		path:        path,
		key:         []byte(key),
		lockTimeout: 5 * time.Second,
	}, nil
}

func (b *BoltStore) open() (*bolt.DB, error) {
	db, err := bolt.Open(b.path, 0600, &bolt.Options{Timeout: b.lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}
	return db, nil
}

// Read loads the record stored under the store's key.
func (b *BoltStore) Read(ctx context.Context) (*types.TokenInfo, error) {
	db, err := b.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	var data []byte
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tokensBucket)
		if bucket == nil {
			return nil
		}
		if v := bucket.Get(b.key); v != nil {
			// v is only valid inside the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var info types.TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &info, nil
}

// Write stores info under the store's key.
func (b *BoltStore) Write(ctx context.Context, info *types.TokenInfo) error {
	if info == nil {
		return fmt.Errorf("token is nil")
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	db, err := b.open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(tokensBucket)
		if err != nil {
			return err
		}
		return bucket.Put(b.key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Clear removes the record stored under the store's key.
func (b *BoltStore) Clear(ctx context.Context) error {
	db, err := b.open()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	err = db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tokensBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(b.key)
	})
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (b *BoltStore) Path() string {
	return b.path
}
