package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const readStateBucket = "read_state"

// boltKVStore keeps records in a single BoltDB bucket.
type boltKVStore struct {
	db *bbolt.DB
}

// OpenBoltKVStore opens (creating if needed) a BoltDB file at path.
func OpenBoltKVStore(path string) (KVStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(readStateBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &boltKVStore{db: db}, nil
}

func (s *boltKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var (
		value []byte
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(readStateBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s is missing", readStateBucket)
		}
		if v := bucket.Get([]byte(key)); v != nil {
			// v is only valid inside the transaction
			value, found = append([]byte(nil), v...), true
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("get record %s: %w", key, err)
	}
	return value, found, nil
}

func (s *boltKVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(readStateBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s is missing", readStateBucket)
		}
		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("set record %s: %w", key, err)
	}
	return nil
}

func (s *boltKVStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(readStateBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s is missing", readStateBucket)
		}
		for _, key := range keys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete record %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *boltKVStore) Close() error {
	return s.db.Close()
}
