package prompts

import (
	"strings"
	"testing"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

func testGameState() *state.GameState {
	return &state.GameState{
		World:     "Kyrethia, a land of storms.",
		Kingdom:   "Vorgath, a kingdom of iron.",
		Town:      "Kragnir, a mining town.",
		Character: "Eira Shadowglow, a tinkerer.",
		Start:     "You wake in Kragnir.",
		Inventory: state.Inventory{"gold": 5, "goggles": 1},
	}
}

func TestNew(t *testing.T) {
	builder := New()
	if builder == nil {
		t.Fatal("Expected builder to be created, got nil")
	}
	if builder.historyLimit != 0 {
		t.Errorf("Expected default history limit of 0, got %d", builder.historyLimit)
	}
	if builder.messages == nil {
		t.Error("Expected messages slice to be initialized")
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	gs := testGameState()
	history := state.History{{User: "look", Assistant: "You see a forge."}}

	builder := New().
		WithGameState(gs).
		WithHistory(history).
		WithUserMessage("Hello").
		WithHistoryLimit(10)

	if builder.gs != gs {
		t.Error("WithGameState did not set gamestate")
	}
	if len(builder.history) != 1 {
		t.Error("WithHistory did not set history")
	}
	if builder.userMessage != "Hello" {
		t.Error("WithUserMessage did not set message")
	}
	if builder.historyLimit != 10 {
		t.Error("WithHistoryLimit did not set limit")
	}
}

func TestBuilder_Build_Errors(t *testing.T) {
	if _, err := New().WithUserMessage("look").Build(); err == nil {
		t.Error("Expected error when gamestate is not set")
	}
	if _, err := New().WithGameState(testGameState()).Build(); err == nil {
		t.Error("Expected error when user message is not set")
	}
}

func TestBuilder_Build_Order(t *testing.T) {
	history := state.History{
		{User: "look around", Assistant: "You see a forge."},
		{User: "approach the forge", Assistant: "The smith nods at you."},
	}

	messages, err := BuildMessages(testGameState(), history, "ask about work", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: NarratorSystemPrompt},
		{Role: chat.ChatRoleUser},
		{Role: chat.ChatRoleUser, Content: "look around"},
		{Role: chat.ChatRoleAgent, Content: "You see a forge."},
		{Role: chat.ChatRoleUser, Content: "approach the forge"},
		{Role: chat.ChatRoleAgent, Content: "The smith nods at you."},
		{Role: chat.ChatRoleUser, Content: "ask about work"},
	}
	if len(messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(messages))
	}
	for i, m := range messages {
		if m.Role != want[i].Role {
			t.Errorf("message %d role = %s, want %s", i, m.Role, want[i].Role)
		}
		if i != 1 && m.Content != want[i].Content {
			t.Errorf("message %d content = %q, want %q", i, m.Content, want[i].Content)
		}
	}

	info := messages[1].Content
	for _, s := range []string{"World: Kyrethia", "Kingdom: Vorgath", "Town: Kragnir", "Your Character: Eira", `Inventory: {"goggles":1,"gold":5}`} {
		if !strings.Contains(info, s) {
			t.Errorf("world info missing %q:\n%s", s, info)
		}
	}
}

func TestBuilder_Build_HistoryLimit(t *testing.T) {
	history := state.History{
		{User: "one", Assistant: "1"},
		{User: "two", Assistant: "2"},
		{User: "three", Assistant: "3"},
	}

	messages, err := BuildMessages(testGameState(), history, "four", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// system, world info, one exchange, current action
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}
	if messages[2].Content != "three" || messages[3].Content != "3" {
		t.Errorf("expected most recent exchange, got %+v", messages[2:4])
	}
}

func TestBuilder_Build_SkipsEmptySides(t *testing.T) {
	history := state.History{{User: "", Assistant: "Welcome, traveler."}}

	messages, err := BuildMessages(testGameState(), history, "look", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[2].Role != chat.ChatRoleAgent {
		t.Errorf("expected assistant message, got %s", messages[2].Role)
	}
}
