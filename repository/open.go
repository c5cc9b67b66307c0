package repository

import (
	"fmt"

	"github.com/campusdesk/portal/config"
	"github.com/campusdesk/portal/database"
)

// OpenKVStore opens the backend selected by cfg.Driver.
func OpenKVStore(cfg config.StorageConfig) (KVStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteKVStore(db), nil
	case config.DriverBolt:
		return OpenBoltKVStore(cfg.Path)
	case config.DriverBadger:
		return OpenBadgerKVStore(cfg.Path)
	case config.DriverMemory:
		return NewMemoryKVStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
