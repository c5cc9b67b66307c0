package main

import (
	"github.com/campusdesk/portal/config"
	"github.com/campusdesk/portal/repository"
)

// Repositories holds the storage backend and the repositories built on it.
type Repositories struct {
	KV        repository.KVStore
	ReadState repository.ReadStateRepository
}

func initRepositories(cfg config.StorageConfig) (*Repositories, error) {
	kv, err := repository.OpenKVStore(cfg)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		KV:        kv,
		ReadState: repository.NewReadStateRepo(kv),
	}, nil
}

// Close releases the backend. Marks already returned are durable.
func (r *Repositories) Close() error {
	return r.KV.Close()
}
