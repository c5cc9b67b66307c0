// Package pkg holds utilities shared across the server.
// This file defines the domain-level sentinel errors.
//
// Errors are compared by identity, never by message:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain-level errors.
// Services return them (usually wrapped), handlers map them to HTTP statuses.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")

	// ErrStorage marks a failed durable write. The in-memory read state is
	// still updated when this is returned.
	ErrStorage = errors.New("storage write failed")
)
