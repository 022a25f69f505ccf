package repository

import "errors"

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique constraint rejected a write. The store
	// enforces uniqueness itself so concurrent writers cannot race past an
	// application-level existence check.
	ErrDuplicate = errors.New("record already exists")
)
