package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

const dbFile = ".filmlog/filmlog.db"

// DB wraps the local store connection.
type DB struct {
	conn    *sql.DB
	baseDir string
	mu      sync.Mutex
}

// Open opens an existing database.
func Open(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: run 'filmlog init' first")
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}
	return &DB{conn: conn, baseDir: baseDir}, nil
}

// Initialize creates the database directory, schema and indexes.
func Initialize(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{conn: conn, baseDir: baseDir}, nil
}

func openConn(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL allows concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	return conn, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

// BaseDir returns the base directory for the database.
func (db *DB) BaseDir() string {
	return db.baseDir
}

// Conn returns the underlying *sql.DB for callers that need raw access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// withWriteLock serializes multi-statement write sequences within this
// process. Single calls are atomic at the SQLite level; the lock exists
// for callers composing read-modify-write sequences.
func (db *DB) withWriteLock(fn func() error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn()
}
