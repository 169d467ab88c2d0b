package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
)

type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// repositories run unchanged inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type NoteRepository struct {
	db DBTX
}

func NewNoteRepository(db DBTX) *NoteRepository {
	return &NoteRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *NoteRepository) WithTx(tx *sql.Tx) *NoteRepository {
	return &NoteRepository{db: tx}
}

func (r *NoteRepository) Create(ctx context.Context, title, body, ownerID string) (*Note, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO notes (title, body, owner_id) VALUES (?, ?, ?)",
		title, body, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*Note, error) {
	var note Note
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, body, owner_id, created_at, updated_at FROM notes WHERE id = ?",
		id,
	).Scan(&note.ID, &note.Title, &note.Body, &note.OwnerID, &note.CreatedAt, &note.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, interrors.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return &note, nil
}

// ListByOwner returns every note owned by ownerID, newest first.
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Note, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, body, owner_id, created_at, updated_at FROM notes WHERE owner_id = ? ORDER BY id DESC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		var note Note
		err := rows.Scan(&note.ID, &note.Title, &note.Body, &note.OwnerID, &note.CreatedAt, &note.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &note)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}

// Replace overwrites every mutable field of the note, including the
// owner. This is a full replace, not a patch.
func (r *NoteRepository) Replace(ctx context.Context, id int64, title, body, ownerID string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notes SET title = ?, body = ?, owner_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, body, ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to replace note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return interrors.ErrNoteNotFound
	}

	return nil
}

// Patch updates only the title and body, leaving the owner untouched.
func (r *NoteRepository) Patch(ctx context.Context, id int64, title, body string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE notes SET title = ?, body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, body, id,
	)
	if err != nil {
		return fmt.Errorf("failed to patch note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return interrors.ErrNoteNotFound
	}

	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return interrors.ErrNoteNotFound
	}

	return nil
}
