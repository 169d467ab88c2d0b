package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/riskymind/nkem-ai-note/internal/auth"
	"github.com/riskymind/nkem-ai-note/internal/config"
	"github.com/riskymind/nkem-ai-note/internal/embeddings"
	"github.com/riskymind/nkem-ai-note/internal/models"
	"github.com/riskymind/nkem-ai-note/internal/notes"
	"github.com/riskymind/nkem-ai-note/internal/pipeline"
	"github.com/riskymind/nkem-ai-note/internal/search"
)

// stubEmbedder keeps search tests offline. It embeds text as a bag of
// words keyed by first letter, so texts sharing words score high under
// cosine similarity and unrelated texts score low.
type stubEmbedder struct{}

func (stubEmbedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	return stubVector(text), nil
}

func (stubEmbedder) GetEmbeddingWithType(ctx context.Context, text string, embedType embeddings.EmbeddingType) ([]float64, error) {
	return stubVector(text), nil
}

func stubVector(text string) []float64 {
	v := make([]float64, 26)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		r := rune(word[0])
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func setupServer(t *testing.T) http.Handler {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE note_embeddings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL,
			owner_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}

	cfg := &config.Config{
		VectorDimensions: 26,
		ChunkSize:        1000,
		APIKeys: map[string]string{
			"alice-token":   "alice",
			"mallory-token": "mallory",
		},
	}

	service := notes.NewService(db, models.NewNoteRepository(db), models.NewEmbeddingRepository(db))
	index := search.NewVectorIndex(db, false)
	pl := pipeline.New(cfg, service, stubEmbedder{}, index)
	verifier := auth.NewStaticVerifier(cfg.APIKeys)

	return NewAPIServer(cfg, service, pl, verifier).Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func createNote(t *testing.T, handler http.Handler, token, title, body string) int64 {
	t.Helper()
	rec := doRequest(t, handler, "POST", "/api/v1/notes", token, CreateNoteRequest{Title: title, Body: body})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	return int64(data["id"].(float64))
}

func TestHealthEndpoint(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, "GET", "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("Expected a request id header")
	}
}

func TestCreateAndListNotes(t *testing.T) {
	handler := setupServer(t)

	createNote(t, handler, "alice-token", "First", "first body")
	createNote(t, handler, "alice-token", "Second", "second body")

	rec := doRequest(t, handler, "GET", "/api/v1/notes", "alice-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("List returned %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	items := resp.Data.([]interface{})
	if len(items) != 2 {
		t.Fatalf("Expected 2 notes, got %d", len(items))
	}

	// Newest first
	first := items[0].(map[string]interface{})
	if first["title"] != "Second" {
		t.Errorf("Expected newest note first, got %v", first["title"])
	}
}

func TestListNotes_AnonymousGetsEmptyList(t *testing.T) {
	handler := setupServer(t)

	createNote(t, handler, "alice-token", "Private", "body")

	rec := doRequest(t, handler, "GET", "/api/v1/notes", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for anonymous list, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	items, ok := resp.Data.([]interface{})
	if !ok && resp.Data != nil {
		t.Fatalf("Expected a list, got %T", resp.Data)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty list for anonymous caller, got %d notes", len(items))
	}
}

func TestCreateNote_RequiresAuth(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, "POST", "/api/v1/notes", "", CreateNoteRequest{Title: "T", Body: "B"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestUpdateNote(t *testing.T) {
	handler := setupServer(t)

	id := createNote(t, handler, "alice-token", "A", "body1")

	rec := doRequest(t, handler, "PUT", fmt.Sprintf("/api/v1/notes/%d", id), "alice-token",
		UpdateNoteRequest{Title: "B", Body: "body1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Update returned %d: %s", rec.Code, rec.Body.String())
	}

	listRec := doRequest(t, handler, "GET", "/api/v1/notes", "alice-token", nil)
	resp := decodeResponse(t, listRec)
	note := resp.Data.([]interface{})[0].(map[string]interface{})
	if note["title"] != "B" || note["body"] != "body1" {
		t.Errorf("Expected B/body1, got %v/%v", note["title"], note["body"])
	}
}

func TestUpdateNote_ForeignAndMissingBothReturn404(t *testing.T) {
	handler := setupServer(t)

	id := createNote(t, handler, "alice-token", "A", "body")

	foreign := doRequest(t, handler, "PUT", fmt.Sprintf("/api/v1/notes/%d", id), "mallory-token",
		UpdateNoteRequest{Title: "X", Body: "Y"})
	missing := doRequest(t, handler, "PUT", fmt.Sprintf("/api/v1/notes/%d", id+100), "mallory-token",
		UpdateNoteRequest{Title: "X", Body: "Y"})

	if foreign.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("Expected 404/404, got %d/%d", foreign.Code, missing.Code)
	}

	// Identical bodies: existence must not leak
	if foreign.Body.String() != missing.Body.String() {
		t.Errorf("Responses differ: %q vs %q", foreign.Body.String(), missing.Body.String())
	}
}

func TestUpdateNote_Unauthenticated(t *testing.T) {
	handler := setupServer(t)

	id := createNote(t, handler, "alice-token", "A", "body")

	rec := doRequest(t, handler, "PUT", fmt.Sprintf("/api/v1/notes/%d", id), "",
		UpdateNoteRequest{Title: "X", Body: "Y"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	handler := setupServer(t)

	id := createNote(t, handler, "alice-token", "A", "body")

	rec := doRequest(t, handler, "DELETE", fmt.Sprintf("/api/v1/notes/%d", id), "alice-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete returned %d: %s", rec.Code, rec.Body.String())
	}

	getRec := doRequest(t, handler, "GET", fmt.Sprintf("/api/v1/notes/%d", id), "alice-token", nil)
	if getRec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", getRec.Code)
	}
}

func TestDeleteNote_NonOwner(t *testing.T) {
	handler := setupServer(t)

	id := createNote(t, handler, "alice-token", "A", "body")

	rec := doRequest(t, handler, "DELETE", fmt.Sprintf("/api/v1/notes/%d", id), "mallory-token", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for non-owner delete, got %d", rec.Code)
	}

	// Still present for the owner
	getRec := doRequest(t, handler, "GET", fmt.Sprintf("/api/v1/notes/%d", id), "alice-token", nil)
	if getRec.Code != http.StatusOK {
		t.Errorf("Note should survive foreign delete, got %d", getRec.Code)
	}
}

func TestSearchNotes(t *testing.T) {
	handler := setupServer(t)

	createNote(t, handler, "alice-token", "Groceries", "milk eggs bread")
	createNote(t, handler, "alice-token", "Meeting", "quarterly planning session")
	createNote(t, handler, "mallory-token", "Secret", "milk eggs bread")

	rec := doRequest(t, handler, "POST", "/api/v1/notes/search", "alice-token",
		SearchRequest{Query: "milk eggs bread", Limit: 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("Search returned %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	items := resp.Data.([]interface{})
	if len(items) == 0 {
		t.Fatal("Expected at least one search hit")
	}

	top := items[0].(map[string]interface{})
	if top["title"] != "Groceries" {
		t.Errorf("Expected Groceries as top hit, got %v", top["title"])
	}
	for _, item := range items {
		if item.(map[string]interface{})["owner_id"] != "alice" {
			t.Errorf("Search leaked a foreign note: %v", item)
		}
	}
}

func TestSearchNotes_AfterDeleteReturnsNothing(t *testing.T) {
	handler := setupServer(t)

	id := createNote(t, handler, "alice-token", "A", "body1")

	del := doRequest(t, handler, "DELETE", fmt.Sprintf("/api/v1/notes/%d", id), "alice-token", nil)
	if del.Code != http.StatusOK {
		t.Fatalf("Delete returned %d", del.Code)
	}

	rec := doRequest(t, handler, "POST", "/api/v1/notes/search", "alice-token",
		SearchRequest{Query: "body1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Search returned %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	items, _ := resp.Data.([]interface{})
	if len(items) != 0 {
		t.Errorf("Expected no hits after delete, got %d", len(items))
	}
}

func TestRefreshNote_ReplacesEmbeddings(t *testing.T) {
	handler := setupServer(t)

	id := createNote(t, handler, "alice-token", "A", "original content")

	rec := doRequest(t, handler, "PUT", fmt.Sprintf("/api/v1/notes/%d/refresh", id), "alice-token",
		UpdateNoteRequest{Title: "A2", Body: "completely different"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Refresh returned %d: %s", rec.Code, rec.Body.String())
	}

	searchRec := doRequest(t, handler, "POST", "/api/v1/notes/search", "alice-token",
		SearchRequest{Query: "completely different"})
	resp := decodeResponse(t, searchRec)
	items := resp.Data.([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected the refreshed note as a hit, got %d items", len(items))
	}
	if items[0].(map[string]interface{})["title"] != "A2" {
		t.Errorf("Expected refreshed title A2, got %v", items[0].(map[string]interface{})["title"])
	}
}

func TestInvalidNoteID(t *testing.T) {
	handler := setupServer(t)

	rec := doRequest(t, handler, "GET", "/api/v1/notes/0", "alice-token", nil)
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
		t.Errorf("Expected 400 or 404 for id 0, got %d", rec.Code)
	}
}
