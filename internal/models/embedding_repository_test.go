package models

import (
	"context"
	"errors"
	"reflect"
	"testing"

	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
)

func TestEmbeddingRepositoryInsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingRepository(db)
	ctx := context.Background()

	input := EmbeddingInput{
		Content:   "first chunk",
		Embedding: []float64{0.1, 0.2, 0.3},
	}

	id, err := repo.Insert(ctx, 1, "alice", input)
	if err != nil {
		t.Fatalf("Failed to insert embedding: %v", err)
	}
	if id == 0 {
		t.Fatal("Embedding should have a valid ID")
	}

	row, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get embedding: %v", err)
	}

	if row.NoteID != 1 {
		t.Errorf("Expected note id 1, got %d", row.NoteID)
	}
	if row.OwnerID != "alice" {
		t.Errorf("Expected owner alice, got %q", row.OwnerID)
	}
	if row.Content != input.Content {
		t.Errorf("Expected content %q, got %q", input.Content, row.Content)
	}
	if !reflect.DeepEqual(row.Embedding, input.Embedding) {
		t.Errorf("Vector round-trip mismatch: %v != %v", row.Embedding, input.Embedding)
	}
}

func TestEmbeddingRepositoryGetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingRepository(db)

	_, err := repo.GetByID(context.Background(), 9999)
	if !errors.Is(err, interrors.ErrEmbeddingNotFound) {
		t.Errorf("Expected ErrEmbeddingNotFound, got %v", err)
	}
}

func TestEmbeddingRepositoryListByNote(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Insert(ctx, 7, "alice", EmbeddingInput{
			Content:   "chunk",
			Embedding: []float64{float64(i)},
		})
		if err != nil {
			t.Fatalf("Failed to insert embedding: %v", err)
		}
	}
	if _, err := repo.Insert(ctx, 8, "alice", EmbeddingInput{Content: "other", Embedding: []float64{9}}); err != nil {
		t.Fatalf("Failed to insert embedding: %v", err)
	}

	rows, err := repo.ListByNote(ctx, 7)
	if err != nil {
		t.Fatalf("Failed to list embeddings: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 embeddings for note 7, got %d", len(rows))
	}
	for _, row := range rows {
		if row.NoteID != 7 {
			t.Errorf("Listed embedding %d belongs to note %d, want 7", row.ID, row.NoteID)
		}
	}
}

func TestEmbeddingRepositoryDeleteByNote(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := repo.Insert(ctx, 5, "alice", EmbeddingInput{Content: "c", Embedding: []float64{1}}); err != nil {
			t.Fatalf("Failed to insert embedding: %v", err)
		}
	}

	deleted, err := repo.DeleteByNote(ctx, 5)
	if err != nil {
		t.Fatalf("Failed to delete embeddings: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted rows, got %d", deleted)
	}

	count, err := repo.CountByNote(ctx, 5)
	if err != nil {
		t.Fatalf("Failed to count embeddings: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 embeddings after delete, got %d", count)
	}
}
