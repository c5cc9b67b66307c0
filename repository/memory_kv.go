package repository

import (
	"context"
	"sync"
)

// MemoryKVStore is a map-backed KVStore. It backs the "memory" storage
// driver and stands in for durable storage in tests; read and write
// failures can be injected.
type MemoryKVStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	closed   bool
	readErr  error
	writeErr error
	writes   int
}

// NewMemoryKVStore returns an empty store.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: make(map[string][]byte)}
}

func (s *MemoryKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}
	if s.readErr != nil {
		return nil, false, s.readErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryKVStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

func (s *MemoryKVStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.writeErr != nil {
		return s.writeErr
	}
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *MemoryKVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// FailReads makes every Get return err until called again with nil.
func (s *MemoryKVStore) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes every Set and Delete return err until called again with nil.
func (s *MemoryKVStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Raw returns the stored bytes for key, bypassing injected failures.
func (s *MemoryKVStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// PutRaw stores value without counting it as a write.
func (s *MemoryKVStore) PutRaw(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Writes is the number of successful Set calls.
func (s *MemoryKVStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
