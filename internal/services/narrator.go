package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
	"github.com/erricrr/hf-togetherai-rpg/pkg/prompts"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

var _ turn.Narrator = (*LLMNarrator)(nil)

// LLMNarrator tells the story with the main chat model.
type LLMNarrator struct {
	llm          LLMService
	historyLimit int
}

// NewLLMNarrator creates a narrator. historyLimit caps how many exchanges are replayed; 0 replays all.
func NewLLMNarrator(llm LLMService, historyLimit int) *LLMNarrator {
	return &LLMNarrator{llm: llm, historyLimit: historyLimit}
}

// Narrate implements turn.Narrator
func (n *LLMNarrator) Narrate(ctx context.Context, input string, history state.History, gs *state.GameState) (string, error) {
	messages, err := prompts.BuildMessages(gs, history, input, n.historyLimit)
	if err != nil {
		return "", fmt.Errorf("failed to build narrator prompt: %w", err)
	}

	resp, err := n.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	narrative := strings.TrimSpace(resp.Message)
	if narrative == "" {
		return "", fmt.Errorf("narrator returned an empty response")
	}
	return narrative, nil
}
