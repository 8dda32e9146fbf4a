package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/erricrr/hf-togetherai-rpg/internal/session"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
	"github.com/erricrr/hf-togetherai-rpg/pkg/world"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionService is the game API the handlers expose. *session.Manager implements it.
type SessionService interface {
	Create(ctx context.Context, opts session.CreateOptions) (*state.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*state.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Turn(ctx context.Context, id uuid.UUID, input string) (*session.TurnResult, error)
}

var _ SessionService = (*session.Manager)(nil)

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// statusForError maps domain errors to HTTP status codes. Anything unrecognised
// came from an upstream model call.
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, world.ErrUnknownKingdom),
		errors.Is(err, world.ErrUnknownTown),
		errors.Is(err, world.ErrUnknownCharacter):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
