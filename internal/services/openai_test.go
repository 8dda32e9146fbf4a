package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newChatCompletionServer answers /chat/completions with reply and records each request.
func newChatCompletionServer(t *testing.T, reply string, status int, got *[]OpenAIChatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		var req OpenAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		*got = append(*got, req)

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		resp := OpenAIChatResponse{Choices: []OpenAIChatChoice{{}}}
		resp.Choices[0].Message.Role = chat.ChatRoleAgent
		resp.Choices[0].Message.Content = reply
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIService_Chat(t *testing.T) {
	var got []OpenAIChatRequest
	srv := newChatCompletionServer(t, "You look north and see a river.", http.StatusOK, &got)
	svc := NewOpenAIService(srv.URL+"/", "test-key", "meta-llama/Llama-3.3-70B-Instruct", "", false, discardLogger())

	resp, err := svc.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "look north"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "You look north and see a river." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].Model != "meta-llama/Llama-3.3-70B-Instruct" {
		t.Errorf("unexpected model %s", got[0].Model)
	}
	if got[0].Temperature == nil || *got[0].Temperature != DefaultOpenAITemperature {
		t.Errorf("expected default temperature, got %v", got[0].Temperature)
	}
	if got[0].ResponseFormat != nil {
		t.Error("narrative requests should not set a response format")
	}
}

func TestOpenAIService_BackendChat(t *testing.T) {
	var got []OpenAIChatRequest
	srv := newChatCompletionServer(t, `{"itemUpdates":[]}`, http.StatusOK, &got)
	svc := NewOpenAIService(srv.URL, "test-key", "main-model", "backend-model", true, discardLogger())

	resp, err := svc.BackendChat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "Inventory Updates"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != `{"itemUpdates":[]}` {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if got[0].Model != "backend-model" {
		t.Errorf("expected backend model, got %s", got[0].Model)
	}
	if got[0].Temperature == nil || *got[0].Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", got[0].Temperature)
	}
	if got[0].ResponseFormat == nil || got[0].ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", got[0].ResponseFormat)
	}
}

func TestOpenAIService_Errors(t *testing.T) {
	var got []OpenAIChatRequest
	srv := newChatCompletionServer(t, "", http.StatusInternalServerError, &got)
	svc := NewOpenAIService(srv.URL, "test-key", "m", "", false, discardLogger())

	if _, err := svc.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}}); err == nil {
		t.Error("expected error for non-200 status")
	}
	if _, err := svc.Chat(context.Background(), nil); err == nil {
		t.Error("expected error for empty messages")
	}
}

func TestNewOpenAIService_DefaultBaseURL(t *testing.T) {
	svc := NewOpenAIService("", "k", "m", "", false, nil)
	if svc.baseURL != OpenAIBaseURL {
		t.Errorf("expected %s, got %s", OpenAIBaseURL, svc.baseURL)
	}
	if svc.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
}
