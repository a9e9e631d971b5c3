package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jwebster45206/gm-engine/pkg/lexicon"
)

func TestPlaceholder(t *testing.T) {
	en := lexicon.MustDefault("en")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limit status", &APIError{Provider: "p", StatusCode: 429}, en.Messages.RateLimited},
		{"wrapped rate limit", fmt.Errorf("gemini: %w", ErrRateLimited), en.Messages.RateLimited},
		{"server error", &APIError{Provider: "p", StatusCode: 500, Body: "boom"}, en.Messages.ModelUnavailable},
		{"transport error", errors.New("dial tcp: refused"), en.Messages.ModelUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Placeholder(tt.err, en); got != tt.want {
				t.Errorf("Placeholder() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Provider: "venice", StatusCode: 502, Body: "bad gateway"}
	want := "venice API request failed with status 502: bad gateway"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
