package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
	"github.com/erricrr/hf-togetherai-rpg/pkg/prompts"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

func TestMockLLMService(t *testing.T) {
	mockService := NewMockLLMAPI()

	err := mockService.InitModel(context.Background(), "test-model")
	if err != nil {
		t.Errorf("InitModel failed: %v", err)
	}
	if len(mockService.InitModelCalls) != 1 || mockService.InitModelCalls[0] != "test-model" {
		t.Errorf("unexpected InitModel calls: %v", mockService.InitModelCalls)
	}

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "Hello"},
	}
	response, err := mockService.Chat(context.Background(), messages)
	if err != nil {
		t.Errorf("Chat failed: %v", err)
	}
	if response.Message != "Mock response" {
		t.Errorf("Expected 'Mock response', got '%s'", response.Message)
	}

	backend, err := mockService.BackendChat(context.Background(), prompts.BuildInventoryMessages(state.Inventory{}, "story"))
	if err != nil {
		t.Errorf("BackendChat failed: %v", err)
	}
	if backend.Message != `{"itemUpdates": []}` {
		t.Errorf("Expected empty item updates, got '%s'", backend.Message)
	}

	verdict, err := mockService.Complete(context.Background(), "prompt")
	if err != nil || verdict != "safe" {
		t.Errorf("Expected safe verdict, got %q, %v", verdict, err)
	}

	_, chatCalls, backendCalls, completeCalls := mockService.GetCalls()
	if len(chatCalls) != 1 || len(backendCalls) != 1 || len(completeCalls) != 1 {
		t.Errorf("unexpected call counts: %d %d %d", len(chatCalls), len(backendCalls), len(completeCalls))
	}

	mockService.Reset()
	if _, chatCalls, _, _ := mockService.GetCalls(); len(chatCalls) != 0 {
		t.Error("Reset did not clear calls")
	}
}

func TestMockLLMService_ErrorHandling(t *testing.T) {
	mockService := NewMockLLMAPI()

	expectedErr := fmt.Errorf("initialization failed")
	mockService.SetInitModelError(expectedErr)
	if err := mockService.InitModel(context.Background(), "test-model"); err != expectedErr {
		t.Errorf("Expected error '%v', got '%v'", expectedErr, err)
	}

	mockService.SetChatError(expectedErr)
	if _, err := mockService.Chat(context.Background(), nil); err != expectedErr {
		t.Errorf("Expected chat error, got %v", err)
	}

	mockService.SetBackendError(expectedErr)
	if _, err := mockService.BackendChat(context.Background(), nil); err != expectedErr {
		t.Errorf("Expected backend error, got %v", err)
	}
}
