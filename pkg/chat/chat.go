package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ChatRequest represents a player action sent to the game api.
type ChatRequest struct {
	SessionID uuid.UUID `json:"session_id"` // Session that owns the game state
	Message   string    `json:"message"`
}

// ChatResponse represents the reply to a player action.
// Inventory reflects the state after the turn was applied.
type ChatResponse struct {
	SessionID uuid.UUID      `json:"session_id,omitempty"`
	Message   string         `json:"message,omitempty"`
	Inventory map[string]int `json:"inventory,omitempty"`
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Game master
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage represents a single chat message sent to an LLM.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

func (cr *ChatRequest) Validate() error {
	if cr.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	if strings.TrimSpace(cr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
