package prompts

import (
	"fmt"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

// Builder constructs the narrator conversation using a fluent interface.
type Builder struct {
	gs           *state.GameState
	history      state.History
	userMessage  string
	historyLimit int
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
// The default history limit of 0 replays the full history.
func New() *Builder {
	return &Builder{
		messages: make([]chat.ChatMessage, 0),
	}
}

// WithGameState sets the game state.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithHistory sets the conversation so far.
func (b *Builder) WithHistory(h state.History) *Builder {
	b.history = h
	return b
}

// WithUserMessage sets the player's current action.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithHistoryLimit sets how many recent exchanges are replayed. 0 means all.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}
	if b.userMessage == "" {
		return nil, fmt.Errorf("user message is required")
	}

	b.messages = make([]chat.ChatMessage, 0, 3+2*len(b.history))

	// 1. System prompt
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: NarratorSystemPrompt,
	})

	// 2. World info
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: WorldInfo(b.gs),
	})

	// 3. History, oldest first
	b.addHistory()

	// 4. Current action
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: b.userMessage,
	})

	return b.messages, nil
}

// addHistory replays each exchange as the player's action followed by the reply.
func (b *Builder) addHistory() {
	for _, ex := range b.history.Last(b.historyLimit) {
		if ex.User != "" {
			b.messages = append(b.messages, chat.ChatMessage{Role: chat.ChatRoleUser, Content: ex.User})
		}
		if ex.Assistant != "" {
			b.messages = append(b.messages, chat.ChatMessage{Role: chat.ChatRoleAgent, Content: ex.Assistant})
		}
	}
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(gs *state.GameState, history state.History, message string, historyLimit int) ([]chat.ChatMessage, error) {
	return New().
		WithGameState(gs).
		WithHistory(history).
		WithUserMessage(message).
		WithHistoryLimit(historyLimit).
		Build()
}
