package database

import (
	"path/filepath"
	"testing"

	"github.com/riskymind/nkem-ai-note/internal/config"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.Config{
		DatabasePath:     filepath.Join(t.TempDir(), "notes.db"),
		VectorDimensions: 8,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_CreatesSchema(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"notes", "note_embeddings"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not created: %v", table, err)
		}
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	cfg := &config.Config{
		DatabasePath: filepath.Join(t.TempDir(), "nested", "dir", "notes.db"),
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create database in nested directory: %v", err)
	}
	db.Close()
}

func TestNew_Reopen(t *testing.T) {
	cfg := &config.Config{
		DatabasePath:     filepath.Join(t.TempDir(), "notes.db"),
		VectorDimensions: 8,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}

	if _, err := db.Conn().Exec(
		"INSERT INTO notes (title, body, owner_id) VALUES (?, ?, ?)",
		"persisted", "across reopen", "alice",
	); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	db.Close()

	// CREATE IF NOT EXISTS must tolerate the existing schema
	db2, err := New(cfg)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db2.Close()

	var count int
	if err := db2.Conn().QueryRow("SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 note after reopen, got %d", count)
	}
}
