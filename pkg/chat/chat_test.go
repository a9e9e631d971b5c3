package chat

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestTurnRequest_Validate(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		req     TurnRequest
		wantErr bool
	}{
		{"valid", TurnRequest{CharacterID: id, Action: "I open the door"}, false},
		{"missing character", TurnRequest{Action: "I open the door"}, true},
		{"blank action", TurnRequest{CharacterID: id, Action: "   "}, true},
		{"too long", TurnRequest{CharacterID: id, Action: strings.Repeat("a", MaxActionLength+1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTurnRequest_ValidateTrims(t *testing.T) {
	req := TurnRequest{CharacterID: uuid.New(), Action: "  look around \n"}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Action != "look around" {
		t.Errorf("Action = %q, want trimmed", req.Action)
	}
}

func TestModelConfig_Validate(t *testing.T) {
	base := ModelConfig{Model: "x-ai/grok-4-fast", Temperature: 0.8, MaxTokens: 400}
	tests := []struct {
		name    string
		mutate  func(*ModelConfig)
		wantErr bool
	}{
		{"valid", func(*ModelConfig) {}, false},
		{"json format", func(m *ModelConfig) { m.ResponseFormat = FormatJSON }, false},
		{"missing model", func(m *ModelConfig) { m.Model = "" }, true},
		{"temperature too high", func(m *ModelConfig) { m.Temperature = 2.1 }, true},
		{"negative temperature", func(m *ModelConfig) { m.Temperature = -0.1 }, true},
		{"zero tokens", func(m *ModelConfig) { m.MaxTokens = 0 }, true},
		{"top_p too high", func(m *ModelConfig) { m.TopP = 1.5 }, true},
		{"frequency penalty bounds", func(m *ModelConfig) { m.FrequencyPenalty = -2 }, false},
		{"frequency penalty too low", func(m *ModelConfig) { m.FrequencyPenalty = -2.5 }, true},
		{"presence penalty too high", func(m *ModelConfig) { m.PresencePenalty = 3 }, true},
		{"unknown format", func(m *ModelConfig) { m.ResponseFormat = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
