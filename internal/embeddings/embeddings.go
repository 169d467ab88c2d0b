package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/riskymind/nkem-ai-note/internal/config"
	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
	"github.com/riskymind/nkem-ai-note/internal/logger"
)

type EmbeddingType string

const (
	EmbeddingTypeDocument EmbeddingType = "document"
	EmbeddingTypeSearch   EmbeddingType = "search"
)

type EmbeddingProvider interface {
	GetEmbedding(ctx context.Context, text string) ([]float64, error)
	GetEmbeddingWithType(ctx context.Context, text string, embedType EmbeddingType) ([]float64, error)
}

type OllamaEmbedding struct {
	cfg    *config.Config
	client *http.Client
}

func NewOllamaEmbedding(cfg *config.Config) *OllamaEmbedding {
	return &OllamaEmbedding{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// formatTextForNomic formats text according to Nomic's recommendations
// See: https://docs.nomic.ai/reference/endpoints/nomic-embed-text
func (e *OllamaEmbedding) formatTextForNomic(text string, embedType EmbeddingType) string {
	if !strings.Contains(strings.ToLower(e.cfg.EmbeddingModel), "nomic") {
		return text
	}

	switch embedType {
	case EmbeddingTypeSearch:
		return "search_query: " + text
	case EmbeddingTypeDocument:
		return "search_document: " + text
	default:
		return text
	}
}

func (e *OllamaEmbedding) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	return e.GetEmbeddingWithType(ctx, text, EmbeddingTypeDocument)
}

func (e *OllamaEmbedding) GetEmbeddingWithType(ctx context.Context, text string, embedType EmbeddingType) ([]float64, error) {
	if !e.cfg.EnableVectorSearch {
		logger.Debug("Vector search disabled, using fallback embedding")
		return e.fallbackEmbedding(text), nil
	}

	formattedText := e.formatTextForNomic(text, embedType)

	payload := map[string]interface{}{
		"model":  e.cfg.EmbeddingModel,
		"prompt": formattedText,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := e.cfg.GetOllamaAPIURL("embeddings")
	logger.Debug("Requesting %s embedding from %s with model %s", embedType, apiURL, e.cfg.EmbeddingModel)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		logger.Debug("Ollama API error: %v, using fallback embedding", err)
		return e.fallbackEmbedding(text), nil
	}
	defer resp.Body.Close()

	logger.Debug("Ollama response status: %d, time: %v", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Debug("Ollama API returned %d: %s, using fallback embedding", resp.StatusCode, string(body))
		return e.fallbackEmbedding(text), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Debug("Failed to read response: %v, using fallback embedding", err)
		return e.fallbackEmbedding(text), nil
	}

	var result struct {
		Embedding []float64 `json:"embedding"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		logger.Debug("Failed to parse embedding response: %v, using fallback embedding", err)
		return e.fallbackEmbedding(text), nil
	}

	actualDimensions := len(result.Embedding)
	logger.Debug("Got embedding with %d dimensions", actualDimensions)

	if e.cfg.VectorDimensions > 0 && actualDimensions != e.cfg.VectorDimensions {
		return nil, fmt.Errorf("%w: model returned %d dimensions but config expects %d",
			interrors.ErrDimensionMismatch, actualDimensions, e.cfg.VectorDimensions)
	}

	return result.Embedding, nil
}

func (e *OllamaEmbedding) fallbackEmbedding(text string) []float64 {
	// Hash-based embedding used when the model endpoint is unreachable.
	// It keeps indexing and search working, just with poor recall.
	dimensions := e.cfg.VectorDimensions
	if dimensions == 0 {
		dimensions = 384
	}
	embedding := make([]float64, dimensions)
	words := strings.Fields(strings.ToLower(text))

	for i, word := range words {
		hash := hashString(word)
		for j := 0; j < dimensions && j < len(word)*10; j++ {
			idx := (i*10 + j) % dimensions
			embedding[idx] += float64(hash%100) / 100.0
		}
	}

	// Normalize
	var sum float64
	for _, v := range embedding {
		sum += v * v
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range embedding {
			embedding[i] *= norm
		}
	}

	return embedding
}

func hashString(s string) int {
	h := 0
	for _, c := range s {
		h = h*31 + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}

func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
