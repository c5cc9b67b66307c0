package database

import "embed"

// EmbeddedMigrations holds migrations/*.sql compiled into the binary.
// Use fs.Sub(EmbeddedMigrations, "migrations") or Open.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
