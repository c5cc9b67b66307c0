package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campusdesk/portal/database"
)

// sqliteKVStore keeps records in the read_state_records table.
type sqliteKVStore struct {
	db *database.DB
}

// NewSQLiteKVStore returns a KVStore over an opened, migrated database.
// Closing the store closes the database.
func NewSQLiteKVStore(db *database.DB) KVStore {
	return &sqliteKVStore{db: db}
}

func (s *sqliteKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return getRecord(ctx, s.db.Conn, key)
}

func (s *sqliteKVStore) Set(ctx context.Context, key string, value []byte) error {
	return setRecord(ctx, s.db.Conn, key, value)
}

// Delete removes all keys in one transaction.
func (s *sqliteKVStore) Delete(ctx context.Context, keys ...string) error {
	return database.WithTx(ctx, s.db.Conn, func(tx *sql.Tx) error {
		for _, key := range keys {
			if err := deleteRecord(ctx, tx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

func getRecord(ctx context.Context, q database.TxQuerier, key string) ([]byte, bool, error) {
	var value string
	err := q.QueryRowContext(ctx,
		`SELECT value FROM read_state_records WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get record %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// setRecord upserts a record. The row's updated_at is refreshed on every write.
func setRecord(ctx context.Context, q database.TxQuerier, key string, value []byte) error {
	query := `
		INSERT INTO read_state_records (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key)
		DO UPDATE SET value = excluded.value,
		              updated_at = excluded.updated_at`

	if _, err := q.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to set record %s: %w", key, err)
	}
	return nil
}

func deleteRecord(ctx context.Context, q database.TxQuerier, key string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM read_state_records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

func (s *sqliteKVStore) Close() error {
	return s.db.Close()
}
