package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/gm-engine/pkg/chat"
	"google.golang.org/genai"
)

// GeminiService implements LLMService on the Google GenAI SDK.
type GeminiService struct {
	client *genai.Client
	logger *slog.Logger
}

func NewGeminiService(ctx context.Context, apiKey string, logger *slog.Logger) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiService{client: client, logger: logger}, nil
}

// geminiContents converts chat messages into a system instruction and a
// list of contents. The agent role maps to "model".
func geminiContents(messages []chat.ChatMessage) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.ChatRoleSystem:
			system = append(system, msg.Content)
		case chat.ChatRoleAgent:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser), contents
}

func geminiConfig(system *genai.Content, cfg chat.ModelConfig) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(cfg.Temperature)),
		MaxOutputTokens:   int32(cfg.MaxTokens),
	}
	if cfg.TopP > 0 {
		gc.TopP = genai.Ptr(float32(cfg.TopP))
	}
	if cfg.FrequencyPenalty != 0 {
		gc.FrequencyPenalty = genai.Ptr(float32(cfg.FrequencyPenalty))
	}
	if cfg.PresencePenalty != 0 {
		gc.PresencePenalty = genai.Ptr(float32(cfg.PresencePenalty))
	}
	if cfg.Structured() {
		gc.ResponseMIMEType = "application/json"
	}
	return gc
}

// Complete calls GenerateContent.
func (g *GeminiService) Complete(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error) {
	system, contents := geminiContents(messages)

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, cfg.Model, contents, geminiConfig(system, cfg))
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{Provider: "gemini", StatusCode: apiErr.Code, Body: apiErr.Status + " " + apiErr.Message}
		}
		if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
			return "", fmt.Errorf("gemini: %w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	g.logger.Debug("Model call completed",
		"provider", "gemini",
		"model", cfg.Model,
		"duration_ms", time.Since(start).Milliseconds())

	text := resp.Text()
	if text == "" {
		return msgNoResponse, nil
	}
	return text, nil
}
