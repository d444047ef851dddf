// Package storage persists classification history and state snapshots to
// SQLite for the debug observer. The engine writes; the watch command reads.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteMirror implements service.Mirror using SQLite.
type SQLiteMirror struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteMirror opens (or creates) the mirror database at dbPath.
func NewSQLiteMirror(dbPath string) (*SQLiteMirror, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteMirror{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteMirror) Close() error {
	return s.db.Close()
}
