package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	LLMProviders     = []string{"huggingface", "openai", "anthropic", "venice", "ollama", "gemini"}
	GuardProviders   = []string{"together", "llm", "local"}
	StorageBackends  = []string{"memory", "redis", "sqlite"}
	defaultModelName = map[string]string{
		"huggingface": "meta-llama/Llama-3.3-70B-Instruct",
		"openai":      "gpt-4o-mini",
		"anthropic":   "claude-3-5-haiku-latest",
		"venice":      "llama-3.3-70b",
		"ollama":      "llama3.2",
		"gemini":      "gemini-1.5-flash",
	}
)

type Config struct {
	Port         string `env:"PORT"        envDefault:"8080"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName string `env:"LOG_LEVEL"   envDefault:"info"`
	LogLevel     slog.Level

	LLMProvider      string `env:"LLM_PROVIDER"       envDefault:"huggingface"`
	ModelName        string `env:"MODEL_NAME"`
	BackendModelName string `env:"BACKEND_MODEL_NAME"`
	HFToken          string `env:"HF_TOKEN"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	VeniceAPIKey     string `env:"VENICE_API_KEY"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	OllamaURL        string `env:"OLLAMA_URL"         envDefault:"http://localhost:11434"`

	GuardProvider   string `env:"GUARD_PROVIDER"   envDefault:"together"`
	TogetherAPIKey  string `env:"TOGETHER_API_KEY"`
	GuardModel      string `env:"GUARD_MODEL"      envDefault:"Meta-Llama/LlamaGuard-2-8b"`
	ProfanityFilter bool   `env:"PROFANITY_FILTER" envDefault:"true"`

	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	RedisURL       string        `env:"REDIS_URL"       envDefault:"localhost:6379"`
	SQLitePath     string        `env:"SQLITE_PATH"     envDefault:"data/sessions.db"`
	SessionTTL     time.Duration `env:"SESSION_TTL"     envDefault:"24h"` // idle expiry for redis and sqlite; memory sessions live until restart

	WorldFile      string `env:"WORLD_FILE"      envDefault:"data/worlds/kyrethia.json"`
	WorldKingdom   string `env:"WORLD_KINGDOM"   envDefault:"Vorgath"`
	WorldTown      string `env:"WORLD_TOWN"      envDefault:"Kragnir"`
	WorldCharacter string `env:"WORLD_CHARACTER" envDefault:"Eira Shadowglow"`
	HistoryLimit   int    `env:"HISTORY_LIMIT"   envDefault:"0"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment, fills provider defaults and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.GuardProvider = strings.ToLower(strings.TrimSpace(cfg.GuardProvider))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModelName[cfg.LLMProvider]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks provider names and that each selected provider has its credentials.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(LLMProviders, c.LLMProvider) {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q must be one of %s", c.LLMProvider, strings.Join(LLMProviders, ", ")))
	}
	if key := c.providerKeyName(); key != "" && c.providerKey() == "" {
		errs = append(errs, fmt.Errorf("%s is required when LLM_PROVIDER=%s", key, c.LLMProvider))
	}

	if !slices.Contains(GuardProviders, c.GuardProvider) {
		errs = append(errs, fmt.Errorf("GUARD_PROVIDER %q must be one of %s", c.GuardProvider, strings.Join(GuardProviders, ", ")))
	}
	if c.GuardProvider == "together" && c.TogetherAPIKey == "" {
		errs = append(errs, errors.New("TOGETHER_API_KEY is required when GUARD_PROVIDER=together"))
	}

	if !slices.Contains(StorageBackends, c.StorageBackend) {
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND %q must be one of %s", c.StorageBackend, strings.Join(StorageBackends, ", ")))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, errors.New("HISTORY_LIMIT cannot be negative"))
	}
	if c.WorldFile == "" {
		errs = append(errs, errors.New("WORLD_FILE is required"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) providerKeyName() string {
	switch c.LLMProvider {
	case "huggingface":
		return "HF_TOKEN"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "venice":
		return "VENICE_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	}
	return ""
}

func (c *Config) providerKey() string {
	switch c.LLMProvider {
	case "huggingface":
		return c.HFToken
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "venice":
		return c.VeniceAPIKey
	case "gemini":
		return c.GeminiAPIKey
	}
	return ""
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
