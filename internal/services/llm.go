package services

import (
	"context"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat generates a narrative response using the storytelling model
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// BackendChat generates a structured response using the backend model.
	// Providers run it at temperature 0 and request JSON output where the API supports it.
	BackendChat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}

// Completer runs a raw text completion. Guard models are served this way.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// backendModel picks the backend model, falling back to the main model.
func backendModel(modelName, backendModelName string) string {
	if backendModelName != "" {
		return backendModelName
	}
	return modelName
}
