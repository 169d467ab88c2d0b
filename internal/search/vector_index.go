package search

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/riskymind/nkem-ai-note/internal/embeddings"
	"github.com/riskymind/nkem-ai-note/internal/logger"
)

// VectorIndex answers "which embedding rows are most similar to this
// vector" over the note_embeddings table. It keeps a vec0 virtual table
// in sync for fast KNN when the extension is available and falls back
// to an owner-filtered cosine scan when it is not.
type VectorIndex struct {
	db           *sql.DB
	vecAvailable bool
}

func NewVectorIndex(db *sql.DB, vecAvailable bool) *VectorIndex {
	return &VectorIndex{db: db, vecAvailable: vecAvailable}
}

// Add registers an embedding row in the vec0 index. A vec0 failure is
// logged and swallowed: the cosine fallback reads the source table.
func (idx *VectorIndex) Add(ctx context.Context, embeddingID int64, vector []float64) {
	if !idx.vecAvailable {
		return
	}

	vecBytes, err := sqlite_vec.SerializeFloat32(embeddings.VectorToFloat32(vector))
	if err != nil {
		logger.Debug("Failed to serialize embedding %d: %v", embeddingID, err)
		return
	}

	_, err = idx.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_note_embeddings (embedding_id, embedding) VALUES (?, ?)",
		embeddingID, vecBytes,
	)
	if err != nil {
		logger.Debug("Failed to index embedding %d in vec0: %v", embeddingID, err)
	}
}

// Remove drops the given embedding rows from the vec0 index. Callers
// snapshot the ids first, run the delete through the service's access
// checks, and prune only once it has succeeded. Stale entries are
// harmless in the meantime - lookups through the notes service skip
// rows that no longer resolve.
func (idx *VectorIndex) Remove(ctx context.Context, embeddingIDs []int64) {
	if !idx.vecAvailable || len(embeddingIDs) == 0 {
		return
	}

	for _, id := range embeddingIDs {
		_, err := idx.db.ExecContext(ctx,
			"DELETE FROM vec_note_embeddings WHERE embedding_id = ?", id,
		)
		if err != nil {
			logger.Debug("Failed to prune vec0 entry %d: %v", id, err)
		}
	}
}

// SimilarEmbeddings returns the ids of the embedding rows most similar
// to the query vector, best first, restricted to rows owned by ownerID.
func (idx *VectorIndex) SimilarEmbeddings(ctx context.Context, queryVector []float64, ownerID string, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 10
	}

	if idx.vecAvailable {
		ids, err := idx.searchWithVec0(ctx, queryVector, ownerID, limit)
		if err == nil {
			logger.Debug("Vec0 search found %d embedding rows", len(ids))
			return ids, nil
		}
		logger.Debug("Vec0 search failed: %v, falling back to cosine scan", err)
	}

	return idx.searchWithCosine(ctx, queryVector, ownerID, limit)
}

func (idx *VectorIndex) searchWithVec0(ctx context.Context, queryVector []float64, ownerID string, limit int) ([]int64, error) {
	queryBytes, err := sqlite_vec.SerializeFloat32(embeddings.VectorToFloat32(queryVector))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	// The vec0 table is global; the join restricts hits to the owner's rows.
	rows, err := idx.db.QueryContext(ctx, `
		SELECT v.embedding_id, vec_distance_L2(v.embedding, ?) AS distance
		FROM vec_note_embeddings v
		JOIN note_embeddings e ON e.id = v.embedding_id
		WHERE e.owner_id = ?
		ORDER BY distance
		LIMIT ?
	`, queryBytes, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (idx *VectorIndex) searchWithCosine(ctx context.Context, queryVector []float64, ownerID string, limit int) ([]int64, error) {
	rows, err := idx.db.QueryContext(ctx,
		"SELECT id, embedding FROM note_embeddings WHERE owner_id = ?", ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id    int64
		score float64
	}

	var candidates []scored
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			continue
		}

		vector, err := embeddings.BytesToVector(blob)
		if err != nil {
			logger.Debug("Skipping undecodable embedding %d: %v", id, err)
			continue
		}

		score := embeddings.CosineSimilarity(queryVector, vector)
		candidates = append(candidates, scored{id: id, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeddings: %w", err)
	}

	// Selection sort is fine at this scale: one user's embedding rows
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].score > candidates[i].score {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}

	var ids []int64
	for i := 0; i < limit && i < len(candidates); i++ {
		ids = append(ids, candidates[i].id)
	}

	return ids, nil
}
