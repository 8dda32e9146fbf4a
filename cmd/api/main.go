package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erricrr/hf-togetherai-rpg/internal/config"
	"github.com/erricrr/hf-togetherai-rpg/internal/handlers"
	"github.com/erricrr/hf-togetherai-rpg/internal/logger"
	"github.com/erricrr/hf-togetherai-rpg/internal/middleware"
	"github.com/erricrr/hf-togetherai-rpg/internal/services"
	"github.com/erricrr/hf-togetherai-rpg/internal/session"
	"github.com/erricrr/hf-togetherai-rpg/internal/storage"
	"github.com/erricrr/hf-togetherai-rpg/internal/telemetry"
	"github.com/erricrr/hf-togetherai-rpg/internal/turn"
	"github.com/erricrr/hf-togetherai-rpg/pkg/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting RPG API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"guard_provider", cfg.GuardProvider,
		"storage_backend", cfg.StorageBackend)

	shutdownTracing, err := telemetry.Setup(context.Background(), "hf-togetherai-rpg", cfg.OTLPEndpoint)
	if err != nil {
		log.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}

	def, err := world.Load(cfg.WorldFile)
	if err != nil {
		log.Error("Failed to load world", "error", err, "path", cfg.WorldFile)
		os.Exit(1)
	}
	defaults := world.Selection{Kingdom: cfg.WorldKingdom, Town: cfg.WorldTown, Character: cfg.WorldCharacter}
	if _, err := def.NewGameState(defaults, nil); err != nil {
		log.Error("Default character does not exist in world", "error", err)
		os.Exit(1)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	llmService, llmCloser, err := newLLMService(initCtx, cfg, log)
	if err != nil {
		log.Error("Failed to create LLM service", "error", err)
		os.Exit(1)
	}
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	gate, err := newSafetyGate(cfg, llmService, log)
	if err != nil {
		log.Error("Failed to create safety gate", "error", err)
		os.Exit(1)
	}

	store, locker, err := newStorage(cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	if rs, ok := store.(*storage.RedisStorage); ok {
		if err := rs.WaitForConnection(initCtx, 30, 2*time.Second); err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
	} else if err := store.Ping(initCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	orchestrator := turn.NewOrchestrator(
		services.NewLLMNarrator(llmService, cfg.HistoryLimit),
		gate,
		services.NewLLMInventoryExtractor(llmService, log),
		log,
	)
	manager := session.NewManager(store, locker, orchestrator, def, defaults, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	sessionHandler := handlers.NewSessionHandler(manager, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)
	mux.Handle("/v1/chat", handlers.NewChatHandler(manager, log))
	mux.Handle("/v1/ws", handlers.NewWSHandler(manager, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: turns and websocket connections manage their own deadlines.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if llmCloser != nil {
		if err := llmCloser.Close(); err != nil {
			log.Error("Error closing LLM client", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}
