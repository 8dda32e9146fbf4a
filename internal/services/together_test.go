package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTogetherService_Complete(t *testing.T) {
	var got TogetherCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer together-key" {
			t.Error("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"c1","choices":[{"text":" safe","finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	svc := NewTogetherService("together-key", "", discardLogger())
	svc.baseURL = srv.URL

	out, err := svc.Complete(context.Background(), "[INST] check this [/INST]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != " safe" {
		t.Errorf("unexpected completion %q", out)
	}
	if got.Model != DefaultGuardModel {
		t.Errorf("expected default guard model, got %s", got.Model)
	}
	if !strings.Contains(got.Prompt, "check this") {
		t.Errorf("prompt not forwarded: %q", got.Prompt)
	}
}

func TestTogetherService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`},
		{"api error", http.StatusOK, `{"error":{"message":"overloaded"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"bad json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc := NewTogetherService("k", "guard", discardLogger())
			svc.baseURL = srv.URL
			if _, err := svc.Complete(context.Background(), "p"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
