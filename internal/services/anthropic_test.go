package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

func TestNewAnthropicService(t *testing.T) {
	service := NewAnthropicService("test-api-key", "claude-main", "claude-backend", discardLogger())

	if service.apiKey != "test-api-key" {
		t.Errorf("Expected API key test-api-key, got %s", service.apiKey)
	}
	if service.modelName != "claude-main" || service.backendModelName != "claude-backend" {
		t.Errorf("unexpected models %s %s", service.modelName, service.backendModelName)
	}
	if service.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if err := service.InitModel(context.Background(), "claude-main"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestAnthropicService_SplitChatMessages(t *testing.T) {
	service := NewAnthropicService("test-key", "claude", "", discardLogger())

	tests := []struct {
		name                   string
		messages               []chat.ChatMessage
		expectedSystem         string
		expectedNonSystemCount int
	}{
		{
			name: "single system message",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleSystem, Content: "You are a game master."},
				{Role: chat.ChatRoleUser, Content: "look"},
				{Role: chat.ChatRoleAgent, Content: "You see a door."},
			},
			expectedSystem:         "You are a game master.",
			expectedNonSystemCount: 2,
		},
		{
			name: "multiple system messages",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleSystem, Content: "You are a game master."},
				{Role: chat.ChatRoleUser, Content: "look"},
				{Role: chat.ChatRoleSystem, Content: "Be concise."},
			},
			expectedSystem:         "You are a game master.\n\nBe concise.",
			expectedNonSystemCount: 1,
		},
		{
			name: "no system messages",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleUser, Content: "look"},
			},
			expectedSystem:         "",
			expectedNonSystemCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			systemPrompt, nonSystemMessages := service.splitChatMessages(tt.messages)

			if systemPrompt != tt.expectedSystem {
				t.Errorf("Expected system prompt '%s', got '%s'", tt.expectedSystem, systemPrompt)
			}
			if len(nonSystemMessages) != tt.expectedNonSystemCount {
				t.Errorf("Expected %d non-system messages, got %d", tt.expectedNonSystemCount, len(nonSystemMessages))
			}
			for _, msg := range nonSystemMessages {
				if msg.Role == chat.ChatRoleSystem {
					t.Error("Found system message in non-system messages")
				}
			}
		})
	}
}

func TestAnthropicService_BackendChat(t *testing.T) {
	var got AnthropicChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic headers")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"{\"itemUpdates\":[]}"}]}`))
	}))
	defer srv.Close()

	service := NewAnthropicService("test-key", "claude-main", "claude-backend", discardLogger())
	service.baseURL = srv.URL

	resp, err := service.BackendChat(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "Extract items."},
		{Role: chat.ChatRoleUser, Content: "Recent Story: nothing"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != `{"itemUpdates":[]}` {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if got.Model != "claude-backend" {
		t.Errorf("expected backend model, got %s", got.Model)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", got.Temperature)
	}
	if got.System != "Extract items." || len(got.Messages) != 1 {
		t.Errorf("system prompt not split out: %+v", got)
	}
}

func TestAnthropicService_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[]}`))
	}))
	defer srv.Close()

	service := NewAnthropicService("k", "claude", "", discardLogger())
	service.baseURL = srv.URL

	resp, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "look"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != msgNoResponse {
		t.Errorf("expected %q, got %q", msgNoResponse, resp.Message)
	}
}
