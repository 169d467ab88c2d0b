package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/riskymind/nkem-ai-note/internal/auth"
	"github.com/riskymind/nkem-ai-note/internal/config"
	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
	"github.com/riskymind/nkem-ai-note/internal/logger"
	"github.com/riskymind/nkem-ai-note/internal/notes"
	"github.com/riskymind/nkem-ai-note/internal/pipeline"
)

type APIServer struct {
	cfg      *config.Config
	service  *notes.Service
	pipeline *pipeline.Pipeline
	verifier auth.Verifier
	server   *http.Server
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type CreateNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type UpdateNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func NewAPIServer(cfg *config.Config, service *notes.Service, pl *pipeline.Pipeline, verifier auth.Verifier) *APIServer {
	return &APIServer{
		cfg:      cfg,
		service:  service,
		pipeline: pl,
		verifier: verifier,
	}
}

func (s *APIServer) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting HTTP API server on %s", addr)
	return s.server.ListenAndServe()
}

// Handler builds the full middleware/router stack. Split from Start so
// tests can drive it through httptest.
func (s *APIServer) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(requestIDMiddleware)
	api.Use(auth.Middleware(s.verifier))

	api.HandleFunc("/notes", s.handleListNotes).Methods("GET")
	api.HandleFunc("/notes", s.handleCreateNote).Methods("POST")
	api.HandleFunc("/notes/search", s.handleSearchNotes).Methods("POST")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleGetNote).Methods("GET")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleUpdateNote).Methods("PUT")
	api.HandleFunc("/notes/{id:[0-9]+}/refresh", s.handleRefreshNote).Methods("PUT")
	api.HandleFunc("/notes/{id:[0-9]+}", s.handleDeleteNote).Methods("DELETE")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return c.Handler(router)
}

func (s *APIServer) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *APIServer) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: statusCode < 400,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := APIResponse{
		Success: false,
		Error:   err.Error(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode JSON response: %v", err)
	}
}

// writeServiceError maps service errors to status codes. ErrNoteAccess
// covers both the missing and the foreign note, so it is always a 404.
func (s *APIServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interrors.ErrUnauthenticated):
		s.writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, interrors.ErrNoteAccess):
		s.writeError(w, http.StatusNotFound, interrors.ErrNoteAccess)
	case errors.Is(err, interrors.ErrEmptyTitle), errors.Is(err, interrors.ErrEmptyBody):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *APIServer) parseIDParam(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	str, exists := vars["id"]
	if !exists {
		return 0, interrors.ErrInvalidNoteID
	}
	id, err := strconv.ParseInt(str, 10, 64)
	if err != nil || id <= 0 {
		return 0, interrors.ErrInvalidNoteID
	}
	return id, nil
}

// requireCaller resolves the authenticated caller or writes a 401.
func (s *APIServer) requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, ok := auth.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, interrors.ErrUnauthenticated)
		return "", false
	}
	return callerID, true
}

// Handlers

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *APIServer) handleListNotes(w http.ResponseWriter, r *http.Request) {
	// Anonymous callers get an empty list, not an error
	result, err := s.service.GetUserNotes(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *APIServer) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIDParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	note, err := s.service.GetNote(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, note)
}

func (s *APIServer) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if req.Title == "" || req.Body == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("title and body are required"))
		return
	}

	noteID, err := s.pipeline.CreateNote(r.Context(), req.Title, req.Body, callerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]int64{"id": noteID})
}

func (s *APIServer) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIDParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	// Full field replace: an omitted field is set to its zero value,
	// there is no merge with the stored note
	noteID, err := s.service.UpdateNote(r.Context(), id, req.Title, req.Body)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int64{"id": noteID})
}

func (s *APIServer) handleRefreshNote(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	id, err := s.parseIDParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	// Ownership gate before handing off to the privileged tier
	if _, err := s.service.GetNote(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}

	if err := s.pipeline.RefreshNote(r.Context(), id, req.Title, req.Body, callerID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *APIServer) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseIDParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.pipeline.DeleteNote(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

func (s *APIServer) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}

	if req.Limit == 0 {
		req.Limit = 10
	}

	result, err := s.pipeline.SearchNotes(r.Context(), req.Query, callerID, req.Limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}
