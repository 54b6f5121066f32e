package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lostfound/lostfound/internal/db"
)

// SQLStore is a Store backed by SQLite.
type SQLStore struct {
	DB *sql.DB
}

// NewSQLStore wraps an open database whose schema is already in place.
func NewSQLStore(database *sql.DB) *SQLStore {
	return &SQLStore{DB: database}
}

// OpenSQLStore opens the SQLite database at path and ensures its schema.
func OpenSQLStore(path string) (*SQLStore, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, err
	}
	return NewSQLStore(database), nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

// now returns the current time in UTC without a monotonic reading, which is
// the form timestamps are stored in.
func now() time.Time {
	return time.Now().UTC()
}

// constraintCode returns the extended SQLite result code of a constraint
// violation, or 0.
func constraintCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	code := constraintCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	code := constraintCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_CHECK || code == sqlite3.SQLITE_CONSTRAINT_NOTNULL ||
		strings.Contains(err.Error(), "CHECK constraint failed")
}

func checkError(op string, err error) error {
	if isCheckViolation(err) {
		return fmt.Errorf("%s: %w", op, &ValidationError{Violations: map[string]string{"record": "constraint"}})
	}
	return fmt.Errorf("%s: %w", op, err)
}
