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

	"github.com/jwebster45206/gm-engine/pkg/chat"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	veniceBaseURL     = "https://api.venice.ai/api/v1"
)

// OpenAICompatService implements LLMService for providers that speak the
// OpenAI chat completions protocol (OpenRouter, Venice).
type OpenAICompatService struct {
	provider   string
	baseURL    string
	apiKey     string
	headers    map[string]string
	venice     bool
	httpClient *http.Client
	logger     *slog.Logger
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type VeniceParameters struct {
	IncludeVeniceSystemPrompt bool   `json:"include_venice_system_prompt"`
	EnableWebSearch           string `json:"enable_web_search"`
}

// ChatCompletionRequest is the OpenAI-style request body.
type ChatCompletionRequest struct {
	Model            string             `json:"model"`
	Messages         []chat.ChatMessage `json:"messages"`
	Temperature      float64            `json:"temperature"`
	MaxTokens        int                `json:"max_tokens,omitempty"`
	TopP             float64            `json:"top_p,omitempty"`
	FrequencyPenalty float64            `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64            `json:"presence_penalty,omitempty"`
	Stream           bool               `json:"stream"`
	ResponseFormat   *ResponseFormat    `json:"response_format,omitempty"`
	VeniceParameters *VeniceParameters  `json:"venice_parameters,omitempty"`
}

type ChatCompletionChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// ChatCompletionResponse is the OpenAI-style response body.
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenRouterService creates a service for OpenRouter.
func NewOpenRouterService(apiKey string, logger *slog.Logger) *OpenAICompatService {
	s := newOpenAICompat("openrouter", openRouterBaseURL, apiKey, logger)
	s.headers["HTTP-Referer"] = "https://github.com/jwebster45206/gm-engine"
	s.headers["X-Title"] = "gm-engine"
	return s
}

// NewVeniceService creates a service for Venice AI.
func NewVeniceService(apiKey string, logger *slog.Logger) *OpenAICompatService {
	s := newOpenAICompat("venice", veniceBaseURL, apiKey, logger)
	s.venice = true
	return s
}

func newOpenAICompat(provider, baseURL, apiKey string, logger *slog.Logger) *OpenAICompatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAICompatService{
		provider: provider,
		baseURL:  baseURL,
		apiKey:   apiKey,
		headers:  map[string]string{},
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the service at another endpoint (tests, proxies).
func (s *OpenAICompatService) WithBaseURL(url string) *OpenAICompatService {
	s.baseURL = url
	return s
}

func (s *OpenAICompatService) buildRequest(messages []chat.ChatMessage, cfg chat.ModelConfig) ChatCompletionRequest {
	req := ChatCompletionRequest{
		Model:            cfg.Model,
		Messages:         messages,
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		TopP:             cfg.TopP,
		FrequencyPenalty: cfg.FrequencyPenalty,
		PresencePenalty:  cfg.PresencePenalty,
	}
	if cfg.Structured() {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}
	if s.venice {
		req.VeniceParameters = &VeniceParameters{
			IncludeVeniceSystemPrompt: false,
			EnableWebSearch:           "off",
		}
	}
	return req
}

// Complete makes a chat completion request.
func (s *OpenAICompatService) Complete(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error) {
	reqBody, err := json.Marshal(s.buildRequest(messages, cfg))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Provider: s.provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out ChatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return "", &APIError{Provider: s.provider, StatusCode: resp.StatusCode, Body: out.Error.Message + " " + out.Error.Type}
	}

	s.logger.Debug("Model call completed",
		"provider", s.provider,
		"model", cfg.Model,
		"duration_ms", time.Since(start).Milliseconds())

	if len(out.Choices) == 0 {
		return msgNoResponse, nil
	}
	return out.Choices[0].Message.Content, nil
}
