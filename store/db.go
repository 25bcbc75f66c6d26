package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeToString converts a time.Time to RFC3339Nano for database storage.
func timeToString(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// stringToTime parses an RFC3339Nano string from the database.
func stringToTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Open opens (and creates if missing) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewInMemoryDB creates a new in-memory SQLite database for testing.
func NewInMemoryDB() (*sql.DB, error) {
	return Open(":memory:")
}
