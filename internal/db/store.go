package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/styleatelier/atelier/internal/errors"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Store is the SQLite-backed repository for cards, history items and decks.
// Each call is its own statement; WithTx groups several calls atomically.
type Store struct {
	db *sql.DB
	q  querier
}

// NewStore wraps an initialized database.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database, q: database}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn against a transaction-scoped Store. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// toJSON encodes v for a TEXT column.
func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// toNullJSON encodes a string list, storing NULL when it is empty.
func toNullJSON(list []string) (sql.NullString, error) {
	if len(list) == 0 {
		return sql.NullString{}, nil
	}
	s, err := toJSON(list)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// fromNullJSON decodes a nullable string list column; NULL yields an empty list.
func fromNullJSON(ns sql.NullString) ([]string, error) {
	out := []string{}
	if !ns.Valid || ns.String == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
