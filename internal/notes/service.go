// Package notes implements the note service: creating, listing,
// updating, and deleting user-owned notes together with the embedding
// rows derived from them.
//
// Operations come in two tiers. Public operations (GetUserNotes,
// UpdateNote, DeleteNote) resolve the caller from the context and
// enforce ownership. Privileged operations (CreateNoteWithEmbeddings,
// UpdateNoteWithEmbeddings, FetchNotesByEmbeddingIDs) trust their
// owner argument and are only reachable from the embedding pipeline,
// which derives it from an already-authenticated caller.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/riskymind/nkem-ai-note/internal/auth"
	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
	"github.com/riskymind/nkem-ai-note/internal/logger"
	"github.com/riskymind/nkem-ai-note/internal/models"
)

type Service struct {
	db         *sql.DB
	notes      *models.NoteRepository
	embeddings *models.EmbeddingRepository
}

func NewService(db *sql.DB, notes *models.NoteRepository, embeddings *models.EmbeddingRepository) *Service {
	return &Service{
		db:         db,
		notes:      notes,
		embeddings: embeddings,
	}
}

// CreateNoteWithEmbeddings inserts one note row plus one embedding row
// per supplied chunk, all in a single transaction. Privileged: the
// owner is taken as given, no caller check.
func (s *Service) CreateNoteWithEmbeddings(ctx context.Context, title, body, ownerID string, inputs []models.EmbeddingInput) (int64, error) {
	if title == "" {
		return 0, interrors.ErrEmptyTitle
	}
	if body == "" {
		return 0, interrors.ErrEmptyBody
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	note, err := s.notes.WithTx(tx).Create(ctx, title, body, ownerID)
	if err != nil {
		return 0, err
	}

	embRepo := s.embeddings.WithTx(tx)
	for _, input := range inputs {
		if _, err := embRepo.Insert(ctx, note.ID, ownerID, input); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("Created note %d with %d embeddings for %s", note.ID, len(inputs), ownerID)
	return note.ID, nil
}

// GetUserNotes returns every note owned by the current caller, newest
// first. An anonymous caller gets an empty slice, not an error.
func (s *Service) GetUserNotes(ctx context.Context) ([]*models.Note, error) {
	callerID, ok := auth.UserFromContext(ctx)
	if !ok {
		return []*models.Note{}, nil
	}

	return s.notes.ListByOwner(ctx, callerID)
}

// UpdateNote replaces the note's title and body. The caller must be
// authenticated and must own the note; a missing note and a foreign
// note surface the same ErrNoteAccess so existence does not leak.
func (s *Service) UpdateNote(ctx context.Context, id int64, title, body string) (int64, error) {
	callerID, ok := auth.UserFromContext(ctx)
	if !ok {
		return 0, interrors.ErrUnauthenticated
	}

	note, err := s.loadOwnedNote(ctx, id, callerID)
	if err != nil {
		return 0, err
	}

	// Full replace of the mutable fields, owner included, matching the
	// wire contract: omitted fields reset, nothing is merged in.
	if err := s.notes.Replace(ctx, note.ID, title, body, callerID); err != nil {
		return 0, err
	}

	return note.ID, nil
}

// UpdateNoteWithEmbeddings patches the note's title and body and
// replaces its full embedding set with the supplied one. Privileged.
// The whole replacement runs in a single transaction: the delete step
// completes before the insert step, and a failure anywhere rolls the
// note back to its previous state.
func (s *Service) UpdateNoteWithEmbeddings(ctx context.Context, noteID int64, title, body, ownerID string, inputs []models.EmbeddingInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.notes.WithTx(tx).Patch(ctx, noteID, title, body); err != nil {
		return err
	}

	embRepo := s.embeddings.WithTx(tx)
	deleted, err := embRepo.DeleteByNote(ctx, noteID)
	if err != nil {
		return err
	}

	for _, input := range inputs {
		if _, err := embRepo.Insert(ctx, noteID, ownerID, input); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("Replaced %d embeddings with %d for note %d", deleted, len(inputs), noteID)
	return nil
}

// DeleteNote removes the note and every embedding row referencing it,
// children first, in one transaction. Same auth rules as UpdateNote.
func (s *Service) DeleteNote(ctx context.Context, noteID int64) error {
	callerID, ok := auth.UserFromContext(ctx)
	if !ok {
		return interrors.ErrUnauthenticated
	}

	note, err := s.loadOwnedNote(ctx, noteID, callerID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.embeddings.WithTx(tx).DeleteByNote(ctx, note.ID)
	if err != nil {
		return err
	}

	if err := s.notes.WithTx(tx).Delete(ctx, note.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("Deleted note %d and %d embeddings", note.ID, deleted)
	return nil
}

// FetchNotesByEmbeddingIDs resolves a similarity hit list of embedding
// row ids to the notes they belong to. Missing rows are skipped, not
// errors: deletions race with stale search index entries. The result
// is deduplicated by note id in first-seen order. Privileged.
func (s *Service) FetchNotesByEmbeddingIDs(ctx context.Context, embeddingIDs []int64) ([]*models.Note, error) {
	seen := make(map[int64]bool)
	var noteIDs []int64

	for _, id := range embeddingIDs {
		row, err := s.embeddings.GetByID(ctx, id)
		if errors.Is(err, interrors.ErrEmbeddingNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !seen[row.NoteID] {
			seen[row.NoteID] = true
			noteIDs = append(noteIDs, row.NoteID)
		}
	}

	notes := []*models.Note{}
	for _, id := range noteIDs {
		note, err := s.notes.GetByID(ctx, id)
		if errors.Is(err, interrors.ErrNoteNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	return notes, nil
}

// ListNoteEmbeddings returns every embedding row for the note, in
// insertion order. Privileged, used by the pipeline for index upkeep.
func (s *Service) ListNoteEmbeddings(ctx context.Context, noteID int64) ([]*models.NoteEmbedding, error) {
	return s.embeddings.ListByNote(ctx, noteID)
}

// GetNote returns the note when the current caller owns it, under the
// same access rules as the public mutations.
func (s *Service) GetNote(ctx context.Context, id int64) (*models.Note, error) {
	callerID, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, interrors.ErrUnauthenticated
	}
	return s.loadOwnedNote(ctx, id, callerID)
}

// loadOwnedNote fetches the note and checks ownership, collapsing both
// failure modes into ErrNoteAccess while keeping the precise sentinel
// wrapped underneath for internal discrimination.
func (s *Service) loadOwnedNote(ctx context.Context, id int64, callerID string) (*models.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if errors.Is(err, interrors.ErrNoteNotFound) {
		return nil, interrors.NoteAccess(interrors.ErrNoteNotFound)
	}
	if err != nil {
		return nil, err
	}

	if note.OwnerID != callerID {
		return nil, interrors.NoteAccess(interrors.ErrNotOwner)
	}

	return note, nil
}
