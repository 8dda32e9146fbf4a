package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
)

const (
	DefaultGeminiTemperature = 0.7
	geminiRoleUser           = "user"
	geminiRoleModel          = "model"
)

// GeminiService implements LLMService for Google Gemini
type GeminiService struct {
	client           *genai.Client
	modelName        string
	backendModelName string
	logger           *slog.Logger
}

// NewGeminiService creates a Gemini client. Call Close when done.
func NewGeminiService(ctx context.Context, apiKey, modelName, backendModelName string, logger *slog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:           client,
		modelName:        modelName,
		backendModelName: backendModelName,
		logger:           logger,
	}, nil
}

// Close releases the underlying client
func (g *GeminiService) Close() error {
	return g.client.Close()
}

// InitModel initializes the model (Gemini doesn't require explicit model initialization)
func (g *GeminiService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// Chat generates a narrative response
func (g *GeminiService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(DefaultGeminiTemperature)

	content, err := g.generate(ctx, model, messages)
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Message: content}, nil
}

// BackendChat requests JSON output at temperature 0 from the backend model
func (g *GeminiService) BackendChat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	model := g.client.GenerativeModel(backendModel(g.modelName, g.backendModelName))
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	content, err := g.generate(ctx, model, messages)
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Message: content}, nil
}

func (g *GeminiService) generate(ctx context.Context, model *genai.GenerativeModel, messages []chat.ChatMessage) (string, error) {
	system, history := toGeminiContents(messages)
	if len(history) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	last := history[len(history)-1]
	cs := model.StartChat()
	cs.History = history[:len(history)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return sb.String(), nil
}

// toGeminiContents joins system messages into one instruction and merges
// consecutive messages from the same speaker, since Gemini expects turns to alternate.
func toGeminiContents(messages []chat.ChatMessage) (string, []*genai.Content) {
	var systemParts []string
	var contents []*genai.Content

	for _, msg := range messages {
		if msg.Role == chat.ChatRoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}

		role := geminiRoleUser
		if msg.Role == chat.ChatRoleAgent {
			role = geminiRoleModel
		}

		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, genai.Text(msg.Content))
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	// The final message is the one sent; it must come from the user.
	if n := len(contents); n > 0 && contents[n-1].Role != geminiRoleUser {
		contents = append(contents, &genai.Content{
			Role:  geminiRoleUser,
			Parts: []genai.Part{genai.Text("Continue.")},
		})
	}

	return strings.Join(systemParts, "\n\n"), contents
}
