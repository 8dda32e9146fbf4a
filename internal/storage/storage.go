package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

// Storage persists game sessions.
type Storage interface {
	// Ping tests the backend connection
	Ping(ctx context.Context) error
	// Close releases the backend connection
	Close() error

	// SaveSession writes the session, replacing any previous copy
	SaveSession(ctx context.Context, s *state.Session) error
	// LoadSession returns nil, nil if the session doesn't exist
	LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error)
	// DeleteSession removes the session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}
