package services

import (
	"context"
	"errors"
	"testing"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

func TestLLMNarrator_Narrate(t *testing.T) {
	mock := NewMockLLMAPI()
	mock.SetChatResponse("  You step into the forge.\n")
	narrator := NewLLMNarrator(mock, 0)

	gs := &state.GameState{World: "Kyrethia", Inventory: state.Inventory{"gold": 5}}
	history := state.History{{User: "look around", Assistant: "Smoke fills the street."}}

	out, err := narrator.Narrate(context.Background(), "enter the forge", history, gs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "You step into the forge." {
		t.Errorf("expected trimmed narrative, got %q", out)
	}

	_, calls, _, _ := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 chat call, got %d", len(calls))
	}
	msgs := calls[0].Messages
	last := msgs[len(msgs)-1]
	if last.Role != chat.ChatRoleUser || last.Content != "enter the forge" {
		t.Errorf("current action should be last, got %+v", last)
	}
	if msgs[len(msgs)-2].Content != "Smoke fills the street." {
		t.Errorf("history should precede the action, got %+v", msgs)
	}
}

func TestLLMNarrator_Errors(t *testing.T) {
	mock := NewMockLLMAPI()
	narrator := NewLLMNarrator(mock, 0)
	gs := &state.GameState{}

	transportErr := errors.New("503")
	mock.SetChatError(transportErr)
	if _, err := narrator.Narrate(context.Background(), "look", nil, gs); !errors.Is(err, transportErr) {
		t.Errorf("expected transport error, got %v", err)
	}

	mock.SetChatResponse("   ")
	if _, err := narrator.Narrate(context.Background(), "look", nil, gs); err == nil {
		t.Error("expected error for empty narrative")
	}

	if _, err := narrator.Narrate(context.Background(), "look", nil, nil); err == nil {
		t.Error("expected error for nil state")
	}
}
