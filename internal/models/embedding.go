package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/riskymind/nkem-ai-note/internal/embeddings"
	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
)

// NoteEmbedding is one chunk/vector pair derived from a note's body.
// Every row must reference a live note with the same owner; the notes
// service enforces that by cascading updates and deletes.
type NoteEmbedding struct {
	ID        int64     `json:"id"`
	NoteID    int64     `json:"note_id"`
	OwnerID   string    `json:"owner_id"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingInput is a chunk/vector pair supplied by the embedding
// pipeline when creating or refreshing a note.
type EmbeddingInput struct {
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding"`
}

type EmbeddingRepository struct {
	db DBTX
}

func NewEmbeddingRepository(db DBTX) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *EmbeddingRepository) WithTx(tx *sql.Tx) *EmbeddingRepository {
	return &EmbeddingRepository{db: tx}
}

func (r *EmbeddingRepository) Insert(ctx context.Context, noteID int64, ownerID string, input EmbeddingInput) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO note_embeddings (note_id, owner_id, content, embedding) VALUES (?, ?, ?, ?)",
		noteID, ownerID, input.Content, embeddings.VectorToBytes(input.Embedding),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert embedding: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

func (r *EmbeddingRepository) GetByID(ctx context.Context, id int64) (*NoteEmbedding, error) {
	var row NoteEmbedding
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT id, note_id, owner_id, content, embedding FROM note_embeddings WHERE id = ?",
		id,
	).Scan(&row.ID, &row.NoteID, &row.OwnerID, &row.Content, &blob)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, interrors.ErrEmbeddingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	row.Embedding, err = embeddings.BytesToVector(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedding %d: %w", id, err)
	}

	return &row, nil
}

// ListByNote returns every embedding row for the note, in insertion order.
func (r *EmbeddingRepository) ListByNote(ctx context.Context, noteID int64) ([]*NoteEmbedding, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, note_id, owner_id, content, embedding FROM note_embeddings WHERE note_id = ? ORDER BY id",
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var result []*NoteEmbedding
	for rows.Next() {
		var row NoteEmbedding
		var blob []byte
		if err := rows.Scan(&row.ID, &row.NoteID, &row.OwnerID, &row.Content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		row.Embedding, err = embeddings.BytesToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding %d: %w", row.ID, err)
		}
		result = append(result, &row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// DeleteByNote removes every embedding row for the note and returns how
// many rows were deleted.
func (r *EmbeddingRepository) DeleteByNote(ctx context.Context, noteID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM note_embeddings WHERE note_id = ?", noteID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete embeddings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *EmbeddingRepository) CountByNote(ctx context.Context, noteID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM note_embeddings WHERE note_id = ?", noteID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}
