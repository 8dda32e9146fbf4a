package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/erricrr/hf-togetherai-rpg/internal/config"
	"github.com/erricrr/hf-togetherai-rpg/internal/services"
	"github.com/erricrr/hf-togetherai-rpg/internal/session"
	"github.com/erricrr/hf-togetherai-rpg/internal/storage"
	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
)

// newLLMService builds the narration/extraction client for cfg.LLMProvider.
// The returned closer is nil when the client holds no resources.
func newLLMService(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.LLMService, io.Closer, error) {
	switch cfg.LLMProvider {
	case "huggingface":
		return services.NewOpenAIService(services.HuggingFaceBaseURL, cfg.HFToken, cfg.ModelName, cfg.BackendModelName, false, log), nil, nil
	case "openai":
		baseURL := cfg.OpenAIBaseURL
		if baseURL == "" {
			baseURL = services.OpenAIBaseURL
		}
		return services.NewOpenAIService(baseURL, cfg.OpenAIAPIKey, cfg.ModelName, cfg.BackendModelName, true, log), nil, nil
	case "anthropic":
		return services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, cfg.BackendModelName, log), nil, nil
	case "venice":
		return services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName, cfg.BackendModelName), nil, nil
	case "ollama":
		return services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, cfg.BackendModelName, log), nil, nil
	case "gemini":
		svc, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ModelName, cfg.BackendModelName, log)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc, nil
	}
	return nil, nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
}

// newSafetyGate builds the narrative check. The local word filter runs first
// when enabled so obvious profanity never costs a guard call.
func newSafetyGate(cfg *config.Config, llm services.LLMService, log *slog.Logger) (turn.SafetyGate, error) {
	var gates services.ChainGate
	if cfg.ProfanityFilter {
		gates = append(gates, services.NewProfanityGate())
	}

	switch cfg.GuardProvider {
	case "together":
		gates = append(gates, services.NewGuardGate(services.NewTogetherService(cfg.TogetherAPIKey, cfg.GuardModel, log), "", log))
	case "llm":
		gates = append(gates, services.NewGuardGate(services.NewChatCompleter(llm), "", log))
	case "local":
		if !cfg.ProfanityFilter {
			gates = append(gates, services.NewProfanityGate())
		}
	default:
		return nil, fmt.Errorf("unsupported guard provider %q", cfg.GuardProvider)
	}
	return gates, nil
}

// newStorage opens the session store and, for Redis, a lock shared across API instances.
func newStorage(cfg *config.Config, log *slog.Logger) (storage.Storage, session.Locker, error) {
	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemoryStorage(), session.NewLocalLocker(), nil
	case "sqlite":
		s, err := storage.OpenSQLite(cfg.SQLitePath, cfg.SessionTTL, log)
		if err != nil {
			return nil, nil, err
		}
		return s, session.NewLocalLocker(), nil
	case "redis":
		s, err := storage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
		if err != nil {
			return nil, nil, err
		}
		return s, session.NewRedisLocker(s.Client(), "", 3*time.Minute, log), nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}
