package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/riskymind/nkem-ai-note/internal/config"
	"github.com/riskymind/nkem-ai-note/internal/logger"
)

type DB struct {
	conn *sql.DB
	cfg  *config.Config

	vecAvailable bool
}

func New(cfg *config.Config) (*DB, error) {
	// Initialize sqlite-vec extension
	sqlite_vec.Auto()
	logger.Debug("Initialized sqlite-vec extension")

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.GetDatabasePath())
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	logger.Debug("Database path: %s", cfg.GetDatabasePath())

	conn, err := sql.Open("sqlite3", cfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

func (db *DB) initialize() error {
	// The sqlite-vec extension is automatically loaded via the Go bindings.
	// Test if vec0 is available
	var vecVersion string
	err := db.conn.QueryRow("SELECT vec_version()").Scan(&vecVersion)
	if err == nil {
		logger.Info("sqlite-vec version %s loaded", vecVersion)
	} else {
		logger.Debug("sqlite-vec not available: %v", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create notes table: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes(owner_id)`)
	if err != nil {
		return fmt.Errorf("failed to create notes owner index: %w", err)
	}

	// Embedding rows carry no SQL-level foreign key; the service layer
	// cascades deletes explicitly so a crash can never strand a child row
	// pointing at a deleted note.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS note_embeddings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			owner_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create embeddings table: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_note_embeddings_note ON note_embeddings(note_id)`)
	if err != nil {
		return fmt.Errorf("failed to create embeddings note index: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_note_embeddings_owner ON note_embeddings(owner_id)`)
	if err != nil {
		return fmt.Errorf("failed to create embeddings owner index: %w", err)
	}

	// Create virtual table for vector similarity search using vec0,
	// keyed by embedding row id so a KNN hit maps straight back to its
	// note_embeddings row.
	dimensions := db.cfg.VectorDimensions
	if dimensions == 0 {
		dimensions = 384
	}

	_, err = db.conn.Exec(fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS vec_note_embeddings USING vec0(
			embedding_id INTEGER PRIMARY KEY,
			embedding float[%d]
		)
	`, dimensions))
	if err != nil {
		// Log but don't fail - we can still use the cosine fallback
		logger.Warn("Vector table creation failed (vec0 may not be available): %v", err)
	} else {
		db.vecAvailable = true
		logger.Debug("Created vec_note_embeddings table with %d dimensions", dimensions)
	}

	return nil
}

// VecAvailable reports whether the vec0 virtual table was created.
func (db *DB) VecAvailable() bool {
	return db.vecAvailable
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
