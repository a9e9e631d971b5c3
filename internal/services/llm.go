package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
)

const msgNoResponse = "(no response)"

// ErrRateLimited marks a provider-side rate limit. Other failures are
// generic and should be reported as unavailability.
var ErrRateLimited = errors.New("rate limited")

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// Complete sends messages with a per-stage configuration and returns the
	// model's text.
	Complete(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error)
}

// APIError is a non-2xx provider response.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Is reports rate-limit responses as ErrRateLimited.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && isRateLimit(e.StatusCode, e.Body)
}

func isRateLimit(status int, body string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "rate_limit") || strings.Contains(lower, "rate limit")
}

// Placeholder is the player-facing text used in place of a failed model
// reply. It never parses as JSON, so structured stages fall back cleanly.
func Placeholder(err error, lex *lexicon.Lexicon) string {
	if errors.Is(err, ErrRateLimited) {
		return lex.Messages.RateLimited
	}
	return lex.Messages.ModelUnavailable
}
