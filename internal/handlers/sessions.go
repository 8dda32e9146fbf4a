package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/erricrr/hf-togetherai-rpg/internal/session"
)

// SessionHandler serves the session resource.
//
// Routes:
// POST   /v1/sessions      - Create a new game
// GET    /v1/sessions/{id} - Read a game, including its history
// DELETE /v1/sessions/{id} - Delete a game
type SessionHandler struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewSessionHandler(sessions SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	var id uuid.UUID
	if path != "" {
		parsed, err := uuid.Parse(path)
		if err != nil {
			h.logger.Warn("Invalid session ID", "id", path, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
			return
		}
		id = parsed
	}

	switch {
	case r.Method == http.MethodPost && id == uuid.Nil:
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && id != uuid.Nil:
		h.handleRead(w, r, id)
	case r.Method == http.MethodDelete && id != uuid.Nil:
		h.handleDelete(w, r, id)
	case id == uuid.Nil && (r.Method == http.MethodGet || r.Method == http.MethodDelete):
		writeError(w, h.logger, http.StatusBadRequest, "Session ID is required")
	default:
		h.logger.Warn("Method not allowed for session endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var opts session.CreateOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid create session body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.sessions.Create(r.Context(), opts)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusBadGateway {
			status = http.StatusInternalServerError
		}
		h.logger.Error("Failed to create session", "error", err)
		writeError(w, h.logger, status, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, s)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.writeLookupError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) writeLookupError(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	h.logger.Error("Session storage error", "session_id", id, "error", err)
	writeError(w, h.logger, http.StatusInternalServerError, "Failed to access session")
}
