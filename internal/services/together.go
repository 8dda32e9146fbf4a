package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	togetherBaseURL = "https://api.together.xyz/v1"

	DefaultGuardModel     = "Meta-Llama/LlamaGuard-2-8b"
	DefaultGuardMaxTokens = 32
)

// TogetherService runs text completions on Together AI. It hosts the guard model.
type TogetherService struct {
	baseURL    string
	apiKey     string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

// TogetherCompletionRequest represents the request structure for completions
type TogetherCompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
}

// TogetherCompletionResponse represents the response structure for completions
type TogetherCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewTogetherService creates a Together completions client. An empty model uses DefaultGuardModel.
func NewTogetherService(apiKey, modelName string, logger *slog.Logger) *TogetherService {
	if modelName == "" {
		modelName = DefaultGuardModel
	}
	return &TogetherService{
		baseURL:   togetherBaseURL,
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Complete returns the first completion choice for prompt
func (t *TogetherService) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(TogetherCompletionRequest{
		Model:     t.modelName,
		Prompt:    prompt,
		MaxTokens: DefaultGuardMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var completion TogetherCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from API")
	}

	if t.logger != nil {
		t.logger.Debug("Completion finished", "model", t.modelName, "finish_reason", completion.Choices[0].FinishReason)
	}
	return completion.Choices[0].Text, nil
}
