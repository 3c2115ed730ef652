package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/CliForge/contentsdk/pkg/auth/types"
)

// memoryRecords is shared by every MemoryStore in the process.
var memoryRecords = struct {
	mu      sync.RWMutex
	records map[string]*types.TokenInfo
}{records: make(map[string]*types.TokenInfo)}

// MemoryStore keeps a record in a process-wide map under an arbitrary key.
// Stores created with the same key see each other's writes, which makes it
// useful for sharing one credential between sessions in a process. It is
// not durable: everything is lost when the process exits.
type MemoryStore struct {
	key string
}

// NewMemoryStore creates a store bound to key.
func NewMemoryStore(key string) *MemoryStore {
	return &MemoryStore{key: key}
}

// Read returns a copy of the record stored under the store's key.
func (m *MemoryStore) Read(ctx context.Context) (*types.TokenInfo, error) {
	memoryRecords.mu.RLock()
	defer memoryRecords.mu.RUnlock()

	return memoryRecords.records[m.key].Clone(), nil
}

// Write stores a copy of info under the store's key.
func (m *MemoryStore) Write(ctx context.Context, info *types.TokenInfo) error {
	if info == nil {
		return fmt.Errorf("token is nil")
	}

	memoryRecords.mu.Lock()
	defer memoryRecords.mu.Unlock()

	memoryRecords.records[m.key] = info.Clone()
	return nil
}

// Clear removes the record stored under the store's key.
func (m *MemoryStore) Clear(ctx context.Context) error {
	memoryRecords.mu.Lock()
	defer memoryRecords.mu.Unlock()

	delete(memoryRecords.records, m.key)
	return nil
}

// Key returns the key this store reads and writes.
func (m *MemoryStore) Key() string {
	return m.key
}
