package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/gm-engine/internal/config"
	"github.com/jwebster45206/gm-engine/internal/gm"
	"github.com/jwebster45206/gm-engine/internal/handlers"
	"github.com/jwebster45206/gm-engine/internal/logger"
	"github.com/jwebster45206/gm-engine/internal/memory"
	"github.com/jwebster45206/gm-engine/internal/middleware"
	"github.com/jwebster45206/gm-engine/internal/services"
	"github.com/jwebster45206/gm-engine/internal/storage"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting GM Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"narrative_model", cfg.Stages.Narrative.Model,
		"language", cfg.Language)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	llmService, err := newLLMService(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize LLM provider", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}

	lex, err := loadLexicon(cfg)
	if err != nil {
		log.Error("Failed to load lexicon", "language", cfg.Language, "path", cfg.LexiconPath, "error", err)
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	if err := store.WaitForConnection(ctx); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	memories, err := memory.Open(cfg.MemoryDBPath, newEmbedder(ctx, cfg, log), log)
	if err != nil {
		log.Error("Failed to open memory store", "path", cfg.MemoryDBPath, "error", err)
		os.Exit(1)
	}

	orch := gm.NewOrchestrator(llmService, store, gm.Options{
		Stages: cfg.Stages,
		Memory: cfg.Memory,
		Rules: rules.Options{
			TargetAC:  cfg.DefaultTargetAC,
			WeaponDie: cfg.DefaultWeaponDie,
		},
		Lexicon:  lex,
		Roller:   dice.NewRoller(nil),
		Memories: memories,
	}, log)
	game := gm.NewGame(store, orch, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	mux.Handle("/v1/turn", handlers.NewTurnHandler(game, log))

	characterHandler := handlers.NewCharacterHandler(game, store, log)
	mux.Handle("/v1/characters", characterHandler)
	mux.Handle("/v1/characters/", characterHandler)

	mux.Handle("/v1/settings/", handlers.NewSettingsHandler(store, log))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Logger(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: handlers.TurnTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := memories.Close(); err != nil {
		log.Error("Error closing memory store", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

func newLLMService(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return services.NewAnthropicService(cfg.AnthropicAPIKey, log), nil
	case config.ProviderVenice:
		return services.NewVeniceService(cfg.VeniceAPIKey, log), nil
	case config.ProviderGemini:
		return services.NewGeminiService(ctx, cfg.GeminiAPIKey, log)
	default:
		return services.NewOpenRouterService(cfg.OpenRouterAPIKey, log), nil
	}
}

// newEmbedder uses Gemini embeddings when a key is configured and the local
// hashing embedder otherwise.
func newEmbedder(ctx context.Context, cfg *config.Config, log *slog.Logger) memory.Embedder {
	if cfg.GeminiAPIKey != "" {
		e, err := memory.NewGenAIEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err == nil {
			log.Info("Using GenAI embeddings for memory", "model", cfg.EmbeddingModel)
			return e
		}
		log.Warn("GenAI embedder unavailable, falling back to hashing embedder", "error", err)
	}
	return memory.NewHashEmbedder()
}

func loadLexicon(cfg *config.Config) (*lexicon.Lexicon, error) {
	if cfg.LexiconPath != "" {
		return lexicon.Load(cfg.LexiconPath)
	}
	return lexicon.Default(cfg.Language)
}
