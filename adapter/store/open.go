package store

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the SQLite database at path, creating it when missing, and migrates it.
func Open(path string) (*sql.DB, error) {
	dbConnOpts := url.Values{}
	dbConnOpts.Set("_fk", "true")
	dbConnOpts.Set("_journal", "WAL")
	dbConnOpts.Set("_timeout", "5000")

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, dbConnOpts.Encode()))
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// A single connection serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
