package repository

import (
	"context"
	"errors"
)

// ErrStoreClosed is returned by every operation on a closed store.
var ErrStoreClosed = errors.New("kv store is closed")

// KVStore is the durable key-value backend behind the read-state
// repository. Implementations must make every Set durable before
// returning, and apply a multi-key Delete atomically.
//
// Implementations: SQLite (NewSQLiteKVStore), BoltDB (OpenBoltKVStore),
// Badger (OpenBadgerKVStore) and an in-memory map (NewMemoryKVStore).
type KVStore interface {
	// Get returns the value under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
