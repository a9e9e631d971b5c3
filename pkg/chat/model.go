package chat

import "fmt"

// ResponseFormat selects free text or structured JSON output.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// ModelConfig is the per-stage model configuration.
type ModelConfig struct {
	Model            string         `json:"model"`
	Temperature      float64        `json:"temperature"`
	MaxTokens        int            `json:"max_tokens"`
	TopP             float64        `json:"top_p,omitempty"`             // 0 means provider default
	FrequencyPenalty float64        `json:"frequency_penalty,omitempty"` // -2.0 to 2.0
	PresencePenalty  float64        `json:"presence_penalty,omitempty"`  // -2.0 to 2.0
	ResponseFormat   ResponseFormat `json:"response_format,omitempty"`
}

// Structured reports whether the stage asks for JSON output.
func (m ModelConfig) Structured() bool {
	return m.ResponseFormat == FormatJSON
}

func (m ModelConfig) Validate() error {
	if m.Model == "" {
		return fmt.Errorf("model is required")
	}
	if m.Temperature < 0 || m.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %v", m.Temperature)
	}
	if m.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", m.MaxTokens)
	}
	if m.TopP < 0 || m.TopP > 1 {
		return fmt.Errorf("top_p must be between 0.0 and 1.0, got %v", m.TopP)
	}
	if m.FrequencyPenalty < -2 || m.FrequencyPenalty > 2 {
		return fmt.Errorf("frequency_penalty must be between -2.0 and 2.0, got %v", m.FrequencyPenalty)
	}
	if m.PresencePenalty < -2 || m.PresencePenalty > 2 {
		return fmt.Errorf("presence_penalty must be between -2.0 and 2.0, got %v", m.PresencePenalty)
	}
	switch m.ResponseFormat {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("response_format must be %q or %q, got %q", FormatText, FormatJSON, m.ResponseFormat)
	}
	return nil
}
