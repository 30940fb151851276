package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"farmdash/config"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
	path string
}

var (
	instance *DB
	mu       sync.Mutex
)

// GetDB returns the shared database, opening it at the configured path on first use
func GetDB() (*DB, error) {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance, nil
	}

	db, err := Open(config.Get().DBPath)
	if err != nil {
		return nil, err
	}
	instance = db
	return instance, nil
}

// Open connects to the DuckDB file at path and migrates it.
// An empty path opens a private in-memory database.
func Open(path string) (*DB, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, serr.Wrap(err, "failed to create data directory")
		}
	}

	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, serr.Wrap(err, "failed to open database")
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, serr.Wrap(err, "failed to ping database")
	}

	db := &DB{conn: conn, path: path}
	logger.Info("Database connected", "path", displayPath(path))

	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, serr.Wrap(err, "failed to run migrations")
	}
	return db, nil
}

func displayPath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}

// Conn returns the underlying database connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Transaction executes a function within a database transaction
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return serr.Wrap(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return serr.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// QueryRow executes a query that returns a single row
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Exec executes a query that doesn't return rows
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	result, err := db.conn.Exec(query, args...)
	if err != nil {
		return nil, serr.Wrap(err, fmt.Sprintf("exec failed: %s", query))
	}
	return result, nil
}
