package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"blog-server/internal/repository"
)

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// single writer connection keeps sqlite happy under concurrent requests
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// mapConstraintErr translates sqlite constraint failures into the
// repository's sentinel errors so callers never see driver error text.
func mapConstraintErr(err error, wrap string) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") {
		return fmt.Errorf("%s: %w", wrap, repository.ErrDuplicate)
	}
	if strings.Contains(msg, "foreign key") {
		return fmt.Errorf("%s: %w", wrap, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", wrap, err)
}
