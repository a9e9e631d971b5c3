package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/dice"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderVenice     = "venice"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

// Stages holds the model configuration for each model call of a turn.
type Stages struct {
	Intent      chat.ModelConfig
	Narrative   chat.ModelConfig
	CombatState chat.ModelConfig
	Memory      chat.ModelConfig
	World       chat.ModelConfig
}

// MemoryConfig tunes retrieval.
type MemoryConfig struct {
	TopK            int
	RecentLimit     int
	MinImportance   int
	SimilarityFloor float64
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	LLMProvider      string
	OpenRouterAPIKey string
	VeniceAPIKey     string
	AnthropicAPIKey  string
	GeminiAPIKey     string

	RedisURL       string
	MemoryDBPath   string
	EmbeddingModel string

	Language    string
	LexiconPath string

	Stages Stages
	Memory MemoryConfig

	DefaultTargetAC  int
	DefaultWeaponDie dice.Die
}

// DefaultStages are the per-stage settings used when nothing is overridden.
func DefaultStages() Stages {
	const model = "x-ai/grok-4-fast"
	return Stages{
		Intent:      chat.ModelConfig{Model: model, Temperature: 0.1, MaxTokens: 250, ResponseFormat: chat.FormatJSON},
		Narrative:   chat.ModelConfig{Model: model, Temperature: 0.8, MaxTokens: 400, FrequencyPenalty: 0.3, PresencePenalty: 0.2, ResponseFormat: chat.FormatText},
		CombatState: chat.ModelConfig{Model: model, Temperature: 0.3, MaxTokens: 250, ResponseFormat: chat.FormatJSON},
		Memory:      chat.ModelConfig{Model: model, Temperature: 0.2, MaxTokens: 400, ResponseFormat: chat.FormatText},
		World:       chat.ModelConfig{Model: model, Temperature: 0.1, MaxTokens: 300, ResponseFormat: chat.FormatText},
	}
}

func DefaultMemory() MemoryConfig {
	return MemoryConfig{TopK: 3, RecentLimit: 5, MinImportance: 3, SimilarityFloor: 0.5}
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenRouter)),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		VeniceAPIKey:     getEnv("VENICE_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),

		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		MemoryDBPath:   getEnv("MEMORY_DB_PATH", "gm-memory.db"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),

		Language:    getEnv("LANGUAGE", "en"),
		LexiconPath: getEnv("LEXICON_PATH", ""),
	}

	var errs []error
	cfg.Stages = DefaultStages()
	for name, stage := range cfg.stageMap() {
		if err := overrideStage(name, stage); err != nil {
			errs = append(errs, err)
		}
	}

	cfg.Memory = DefaultMemory()
	var err error
	if cfg.Memory.TopK, err = getEnvInt("MEMORY_TOP_K", cfg.Memory.TopK); err != nil {
		errs = append(errs, err)
	}
	if cfg.Memory.RecentLimit, err = getEnvInt("MEMORY_RECENT_LIMIT", cfg.Memory.RecentLimit); err != nil {
		errs = append(errs, err)
	}
	if cfg.Memory.MinImportance, err = getEnvInt("MEMORY_MIN_IMPORTANCE", cfg.Memory.MinImportance); err != nil {
		errs = append(errs, err)
	}
	if cfg.Memory.SimilarityFloor, err = getEnvFloat("MEMORY_SIMILARITY_FLOOR", cfg.Memory.SimilarityFloor); err != nil {
		errs = append(errs, err)
	}
	if cfg.DefaultTargetAC, err = getEnvInt("DEFAULT_TARGET_AC", 12); err != nil {
		errs = append(errs, err)
	}
	cfg.DefaultWeaponDie = dice.Die(strings.ToLower(getEnv("DEFAULT_WEAPON_DIE", string(dice.D8))))

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) stageMap() map[string]*chat.ModelConfig {
	return map[string]*chat.ModelConfig{
		"INTENT":       &c.Stages.Intent,
		"NARRATIVE":    &c.Stages.Narrative,
		"COMBAT_STATE": &c.Stages.CombatState,
		"MEMORY":       &c.Stages.Memory,
		"WORLD":        &c.Stages.World,
	}
}

// overrideStage applies <STAGE>_MODEL, <STAGE>_TEMPERATURE and
// <STAGE>_MAX_TOKENS.
func overrideStage(prefix string, stage *chat.ModelConfig) error {
	stage.Model = getEnv(prefix+"_MODEL", stage.Model)
	var err error
	if stage.Temperature, err = getEnvFloat(prefix+"_TEMPERATURE", stage.Temperature); err != nil {
		return err
	}
	if stage.MaxTokens, err = getEnvInt(prefix+"_MAX_TOKENS", stage.MaxTokens); err != nil {
		return err
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderVenice:
		return c.VeniceAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

// Validate checks the provider, its key and every stage.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenRouter, ProviderVenice, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("unsupported LLM provider %q (supported: openrouter, venice, anthropic, gemini)", c.LLMProvider)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("an API key is required for provider %q", c.LLMProvider)
	}
	if err := c.Stages.Validate(); err != nil {
		return err
	}
	if c.Memory.TopK < 0 || c.Memory.RecentLimit < 0 {
		return fmt.Errorf("memory limits cannot be negative")
	}
	if c.Memory.SimilarityFloor < -1 || c.Memory.SimilarityFloor > 1 {
		return fmt.Errorf("memory similarity floor must be between -1 and 1, got %v", c.Memory.SimilarityFloor)
	}
	if c.DefaultTargetAC <= 0 {
		return fmt.Errorf("default target AC must be positive, got %d", c.DefaultTargetAC)
	}
	if !c.DefaultWeaponDie.Valid() {
		return fmt.Errorf("unsupported default weapon die %q", c.DefaultWeaponDie)
	}
	return nil
}

// Validate checks every stage configuration.
func (s Stages) Validate() error {
	named := []struct {
		name string
		cfg  chat.ModelConfig
	}{
		{"intent", s.Intent},
		{"narrative", s.Narrative},
		{"combat_state", s.CombatState},
		{"memory", s.Memory},
		{"world", s.World},
	}
	for _, n := range named {
		if err := n.cfg.Validate(); err != nil {
			return fmt.Errorf("%s stage: %w", n.name, err)
		}
	}
	return nil
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
