// Package sqlitestore keeps session secrets in an embedded SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/medassist-client/credentials"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

var _ credentials.Store = (*Store)(nil)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore Open] failed to open database: %w", err)
	}
	// single writer keeps SQLITE_BUSY out of the picture
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[sqlitestore Open] failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, name credentials.Name) (string, error) {
	if name == "" {
		return "", apperrors.ErrEmptyCredentialName
	}
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE name = ?`, string(name)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", credentials.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, name credentials.Name, value string) error {
	if name == "" {
		return apperrors.ErrEmptyCredentialName
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(name), value, NowTimeFunc().Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, name credentials.Name) error {
	if name == "" {
		return apperrors.ErrEmptyCredentialName
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE name = ?`, string(name)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// UpdatedAt reports when name was last written.
func (s *Store) UpdatedAt(ctx context.Context, name credentials.Name) (time.Time, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM credentials WHERE name = ?`, string(name)).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, credentials.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return time.Unix(ts, 0), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
