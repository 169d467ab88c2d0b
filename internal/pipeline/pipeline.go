// Package pipeline is the trusted caller of the note service's
// privileged tier. It turns a note body into embedding inputs (chunk,
// then embed), passes the already-authenticated owner down to the
// service, and keeps the vector index in step with what it writes.
package pipeline

import (
	"context"
	"fmt"

	"github.com/riskymind/nkem-ai-note/internal/config"
	"github.com/riskymind/nkem-ai-note/internal/embeddings"
	"github.com/riskymind/nkem-ai-note/internal/logger"
	"github.com/riskymind/nkem-ai-note/internal/models"
	"github.com/riskymind/nkem-ai-note/internal/notes"
	"github.com/riskymind/nkem-ai-note/internal/search"
)

type Pipeline struct {
	cfg      *config.Config
	service  *notes.Service
	embedder embeddings.EmbeddingProvider
	index    *search.VectorIndex
}

func New(cfg *config.Config, service *notes.Service, embedder embeddings.EmbeddingProvider, index *search.VectorIndex) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		service:  service,
		embedder: embedder,
		index:    index,
	}
}

// CreateNote chunks and embeds the body, then creates the note with its
// embedding rows on behalf of ownerID.
func (p *Pipeline) CreateNote(ctx context.Context, title, body, ownerID string) (int64, error) {
	inputs, err := p.embedChunks(ctx, title, body)
	if err != nil {
		return 0, err
	}

	noteID, err := p.service.CreateNoteWithEmbeddings(ctx, title, body, ownerID, inputs)
	if err != nil {
		return 0, err
	}

	p.indexNote(ctx, noteID)
	return noteID, nil
}

// RefreshNote re-embeds the note's content and swaps in the new
// embedding set via the privileged full-replacement operation.
func (p *Pipeline) RefreshNote(ctx context.Context, noteID int64, title, body, ownerID string) error {
	inputs, err := p.embedChunks(ctx, title, body)
	if err != nil {
		return err
	}

	staleIDs := p.embeddingIDs(ctx, noteID)
	if err := p.service.UpdateNoteWithEmbeddings(ctx, noteID, title, body, ownerID, inputs); err != nil {
		return err
	}

	p.index.Remove(ctx, staleIDs)
	p.indexNote(ctx, noteID)
	return nil
}

// DeleteNote delegates to the service, which enforces the caller's
// access, and prunes the vector index only once the delete succeeds. A
// denied delete must leave the index untouched.
func (p *Pipeline) DeleteNote(ctx context.Context, noteID int64) error {
	staleIDs := p.embeddingIDs(ctx, noteID)
	if err := p.service.DeleteNote(ctx, noteID); err != nil {
		return err
	}

	p.index.Remove(ctx, staleIDs)
	return nil
}

// SearchNotes embeds the query, collects the most similar embedding
// rows owned by ownerID, and resolves them to deduplicated notes.
func (p *Pipeline) SearchNotes(ctx context.Context, query, ownerID string, limit int) ([]*models.Note, error) {
	queryVector, err := p.embedder.GetEmbeddingWithType(ctx, query, embeddings.EmbeddingTypeSearch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hitIDs, err := p.index.SimilarEmbeddings(ctx, queryVector, ownerID, limit)
	if err != nil {
		return nil, err
	}

	return p.service.FetchNotesByEmbeddingIDs(ctx, hitIDs)
}

func (p *Pipeline) embedChunks(ctx context.Context, title, body string) ([]models.EmbeddingInput, error) {
	chunks := embeddings.ChunkText(title+"\n\n"+body, p.cfg.ChunkSize)

	inputs := make([]models.EmbeddingInput, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := p.embedder.GetEmbeddingWithType(ctx, chunk, embeddings.EmbeddingTypeDocument)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk: %w", err)
		}
		inputs = append(inputs, models.EmbeddingInput{Content: chunk, Embedding: vector})
	}

	return inputs, nil
}

// embeddingIDs snapshots the note's embedding row ids so the index can
// still be pruned after those rows are gone.
func (p *Pipeline) embeddingIDs(ctx context.Context, noteID int64) []int64 {
	rows, err := p.service.ListNoteEmbeddings(ctx, noteID)
	if err != nil {
		logger.Debug("Failed to list embeddings for note %d: %v", noteID, err)
		return nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

// indexNote registers the note's freshly written embedding rows with
// the vec0 index. Index maintenance is best effort: a failure degrades
// search to the cosine fallback, never the write path.
func (p *Pipeline) indexNote(ctx context.Context, noteID int64) {
	rows, err := p.service.ListNoteEmbeddings(ctx, noteID)
	if err != nil {
		logger.Debug("Failed to list embeddings for indexing note %d: %v", noteID, err)
		return
	}
	for _, row := range rows {
		p.index.Add(ctx, row.ID, row.Embedding)
	}
}
