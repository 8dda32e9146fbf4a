package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

// DefaultTurnTimeout bounds one turn: narration, safety check and extraction.
const DefaultTurnTimeout = 2 * time.Minute

// ChatHandler handles chat requests
type ChatHandler struct {
	sessions SessionService
	logger   *slog.Logger
	timeout  time.Duration
}

// NewChatHandler creates a new chat handler
func NewChatHandler(sessions SessionService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		logger:   logger,
		timeout:  DefaultTurnTimeout,
	}
}

// ServeHTTP runs one turn for POST /v1/chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for chat endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported at /v1/chat.")
		return
	}

	var request chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'session_id' and 'message' fields.")
		return
	}
	if err := request.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	resp, status, err := runTurn(r.Context(), h.sessions, h.timeout, request)
	if err != nil {
		h.logger.Error("Error processing chat turn", "session_id", request.SessionID, "error", err)
		writeError(w, h.logger, status, turnErrorMessage(status))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// runTurn is shared by the HTTP and websocket chat surfaces.
func runTurn(ctx context.Context, sessions SessionService, timeout time.Duration, req chat.ChatRequest) (*chat.ChatResponse, int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := sessions.Turn(ctx, req.SessionID, req.Message)
	if err != nil {
		return nil, statusForError(err), err
	}
	return &chat.ChatResponse{
		SessionID: res.SessionID,
		Message:   res.Message,
		Inventory: res.Inventory,
	}, http.StatusOK, nil
}

func turnErrorMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Session not found"
	case http.StatusGatewayTimeout:
		return "The story took too long to respond. Please try again."
	default:
		return "Failed to generate response. Please try again."
	}
}
