package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

func TestOllamaService_ChatAndBackend(t *testing.T) {
	var requests []ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"You see a cave."}}`))
	}))
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3", "llama3-json", discardLogger())
	msgs := []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "look"}}

	resp, err := svc.Chat(context.Background(), msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "You see a cave." {
		t.Errorf("unexpected message %q", resp.Message)
	}

	if _, err := svc.BackendChat(context.Background(), msgs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].Model != "llama3" || requests[0].Format != "" {
		t.Errorf("unexpected chat request %+v", requests[0])
	}
	if requests[1].Model != "llama3-json" || requests[1].Format != "json" {
		t.Errorf("unexpected backend request %+v", requests[1])
	}
	if temp, ok := requests[1].Options["temperature"].(float64); !ok || temp != 0 {
		t.Errorf("expected temperature 0, got %v", requests[1].Options["temperature"])
	}
}

func TestOllamaService_InitModelPullsMissingModel(t *testing.T) {
	var pulled atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"other"}]}`))
		case "/api/pull":
			pulled.Store(true)
			_, _ = w.Write([]byte(`{"status":"success"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3", "", discardLogger())
	if err := svc.InitModel(context.Background(), "llama3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pulled.Load() {
		t.Error("expected model to be pulled")
	}
}

func TestOllamaService_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3", "", discardLogger())
	svc.retryDelay = 0

	if _, err := svc.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "x"}}); err == nil {
		t.Error("expected error for 503")
	}
	if err := svc.InitModel(context.Background(), "llama3"); err == nil {
		t.Error("expected readiness error")
	}
}
