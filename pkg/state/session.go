package state

import (
	"time"

	"github.com/google/uuid"
)

// Session is one player's game: its state and the conversation so far.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	State     *GameState `json:"state"`
	History   History    `json:"history"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewSession creates a session around gs with a fresh ID.
func NewSession(gs *GameState) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		State:     gs,
		History:   make(History, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DeepCopy creates a deep copy of the Session
func (s *Session) DeepCopy() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.State = s.State.DeepCopy()
	cp.History = append(History(nil), s.History...)
	return &cp
}
