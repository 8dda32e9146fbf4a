package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

const (
	OpenAIBaseURL      = "https://api.openai.com/v1"
	HuggingFaceBaseURL = "https://router.huggingface.co/v1"

	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 256
	BackendOpenAIMaxTokens   = 512
)

// OpenAIService implements LLMService for any OpenAI-compatible chat completions API.
// The Hugging Face router, Together and OpenAI itself all speak this protocol.
type OpenAIService struct {
	baseURL          string
	apiKey           string
	modelName        string
	backendModelName string
	jsonMode         bool
	httpClient       *http.Client
	logger           *slog.Logger
}

// OpenAIResponseFormat requests structured output.
type OpenAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

// OpenAIChatRequest represents the request structure for chat completions
type OpenAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []chat.ChatMessage    `json:"messages"`
	Temperature    *float64              `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Stream         bool                  `json:"stream"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

// OpenAIChatChoice represents a single choice in the response
type OpenAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Refusal string `json:"refusal,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// OpenAIChatResponse represents the response structure for chat completions
type OpenAIChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []OpenAIChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenAIService creates a client for an OpenAI-compatible API.
// An empty baseURL uses OpenAI. jsonMode adds response_format to backend calls;
// leave it off for hosts that reject the parameter.
func NewOpenAIService(baseURL, apiKey, modelName, backendModelName string, jsonMode bool, logger *slog.Logger) *OpenAIService {
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	return &OpenAIService{
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           apiKey,
		modelName:        modelName,
		backendModelName: backendModelName,
		jsonMode:         jsonMode,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		logger: logger,
	}
}

// InitModel initializes the model (hosted APIs don't require explicit model initialization)
func (s *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// Chat generates a narrative response
func (s *OpenAIService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	temperature := DefaultOpenAITemperature
	content, err := s.chatCompletion(ctx, OpenAIChatRequest{
		Model:       s.modelName,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   DefaultOpenAIMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Message: content}, nil
}

// BackendChat generates a deterministic, JSON-oriented response with the backend model
func (s *OpenAIService) BackendChat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	temperature := 0.0
	req := OpenAIChatRequest{
		Model:       backendModel(s.modelName, s.backendModelName),
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   BackendOpenAIMaxTokens,
	}
	if s.jsonMode {
		req.ResponseFormat = &OpenAIResponseFormat{Type: "json_object"}
	}

	content, err := s.chatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Message: content}, nil
}

// chatCompletion makes a chat completion request
func (s *OpenAIService) chatCompletion(ctx context.Context, request OpenAIChatRequest) (string, error) {
	if len(request.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp OpenAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from API")
	}

	choice := chatResp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("model refused to respond: %s", choice.Message.Refusal)
	}

	if s.logger != nil {
		s.logger.Debug("Chat completion finished",
			"model", request.Model,
			"finish_reason", choice.FinishReason,
			"total_tokens", chatResp.Usage.TotalTokens)
	}

	return choice.Message.Content, nil
}
