package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/gm-engine/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	CompleteFunc func(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error)

	// Track calls for testing
	CompleteCalls []CompleteCall

	mu sync.Mutex // protects all fields above
}

type CompleteCall struct {
	Messages []chat.ChatMessage
	Config   chat.ModelConfig
}

var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		CompleteCalls: make([]CompleteCall, 0),
	}
}

// Complete records the call and returns the configured reply.
func (m *MockLLMAPI) Complete(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, CompleteCall{Messages: messages, Config: cfg})
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, cfg)
	}
	return "Mock response", nil
}

// SetCompleteError makes every call fail with err.
func (m *MockLLMAPI) SetCompleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error) {
		return "", err
	}
}

// SetResponses replies by model name. Unknown models get "Mock response".
func (m *MockLLMAPI) SetResponses(byModel map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error) {
		if r, ok := byModel[cfg.Model]; ok {
			return r, nil
		}
		return "Mock response", nil
	}
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = make([]CompleteCall, 0)
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() []CompleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]CompleteCall, len(m.CompleteCalls))
	copy(calls, m.CompleteCalls)
	return calls
}
