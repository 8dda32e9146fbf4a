package services

import (
	"context"
	"strings"
	"sync"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
	"github.com/erricrr/hf-togetherai-rpg/pkg/prompts"
)

// MockLLMAPI is a mock implementation of LLMService and Completer for testing
type MockLLMAPI struct {
	InitModelFunc   func(ctx context.Context, modelName string) error
	ChatFunc        func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
	BackendChatFunc func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
	CompleteFunc    func(ctx context.Context, prompt string) (string, error)

	// Track calls for testing
	InitModelCalls   []string
	ChatCalls        []ChatCall
	BackendChatCalls []ChatCall
	CompleteCalls    []string

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls:   make([]string, 0),
		ChatCalls:        make([]ChatCall, 0),
		BackendChatCalls: make([]ChatCall, 0),
		CompleteCalls:    make([]string, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// Chat mocks narrative generation
func (m *MockLLMAPI) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return &chat.ChatResponse{Message: "Mock response"}, nil
}

// BackendChat mocks structured generation. By default an inventory request gets an empty update list.
func (m *MockLLMAPI) BackendChat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BackendChatCalls = append(m.BackendChatCalls, ChatCall{Messages: messages})
	if m.BackendChatFunc != nil {
		return m.BackendChatFunc(ctx, messages)
	}

	if len(messages) > 0 && messages[0].Role == chat.ChatRoleSystem &&
		strings.HasPrefix(messages[0].Content, prompts.InventorySystemPrompt[:40]) {
		return &chat.ChatResponse{Message: `{"itemUpdates": []}`}, nil
	}
	return &chat.ChatResponse{Message: "Mock response"}, nil
}

// Complete mocks a guard completion. The default verdict is safe.
func (m *MockLLMAPI) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteCalls = append(m.CompleteCalls, prompt)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "safe", nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.ChatCalls = make([]ChatCall, 0)
	m.BackendChatCalls = make([]ChatCall, 0)
	m.CompleteCalls = make([]string, 0)
}

// SetInitModelError sets up the mock to return an error on InitModel
func (m *MockLLMAPI) SetInitModelError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelFunc = func(ctx context.Context, modelName string) error {
		return err
	}
}

// SetChatResponse sets up the mock to return a fixed narrative
func (m *MockLLMAPI) SetChatResponse(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: message}, nil
	}
}

// SetChatError sets up the mock to return an error on Chat
func (m *MockLLMAPI) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, err
	}
}

// SetBackendResponse sets up the mock to return a fixed backend reply
func (m *MockLLMAPI) SetBackendResponse(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackendChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: message}, nil
	}
}

// SetBackendError sets up the mock to return an error on BackendChat
func (m *MockLLMAPI) SetBackendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackendChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, err
	}
}

// SetCompleteResponse sets up the mock to return a fixed guard reply
func (m *MockLLMAPI) SetCompleteResponse(out string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return out, nil
	}
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() ([]string, []ChatCall, []ChatCall, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := make([]string, len(m.InitModelCalls))
	copy(initCalls, m.InitModelCalls)

	chatCalls := make([]ChatCall, len(m.ChatCalls))
	copy(chatCalls, m.ChatCalls)

	backendCalls := make([]ChatCall, len(m.BackendChatCalls))
	copy(backendCalls, m.BackendChatCalls)

	completeCalls := make([]string, len(m.CompleteCalls))
	copy(completeCalls, m.CompleteCalls)

	return initCalls, chatCalls, backendCalls, completeCalls
}
