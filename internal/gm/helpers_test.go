package gm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/internal/config"
	"github.com/jwebster45206/gm-engine/internal/services"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/memory"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

const (
	intentModel    = "intent-model"
	narrativeModel = "narrative-model"
	combatModel    = "combat-model"
)

const attackIntent = `{"action_type":"attack","requires_roll":true,"roll_type":"attack","target":"goblin","difficulty":"medium","reasoning":"The player swings at the goblin"}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testStages() config.Stages {
	s := config.DefaultStages()
	s.Intent.Model = intentModel
	s.Narrative.Model = narrativeModel
	s.CombatState.Model = combatModel
	return s
}

// scriptedLLM replies per stage model; a missing reply is a server error.
func scriptedLLM(replies map[string]string) *services.MockLLMAPI {
	m := services.NewMockLLMAPI()
	m.CompleteFunc = func(ctx context.Context, messages []chat.ChatMessage, cfg chat.ModelConfig) (string, error) {
		if r, ok := replies[cfg.Model]; ok {
			return r, nil
		}
		return "", &services.APIError{Provider: "test", StatusCode: 500, Body: "no reply scripted"}
	}
	return m
}

func callsFor(m *services.MockLLMAPI, model string) int {
	n := 0
	for _, c := range m.GetCalls() {
		if c.Config.Model == model {
			n++
		}
	}
	return n
}

// fakeMemory is an in-memory memory.Store.
type fakeMemory struct {
	mu        sync.Mutex
	searchErr error
	hits      []memory.Scored
	recent    []memory.Memory
	created   []memory.NewMemory
}

func (f *fakeMemory) Search(ctx context.Context, q memory.SearchQuery) ([]memory.Scored, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeMemory) Recent(ctx context.Context, characterID uuid.UUID, limit int, sessionID *uuid.UUID) ([]memory.Memory, error) {
	return f.recent, nil
}

func (f *fakeMemory) Create(ctx context.Context, m memory.NewMemory) (*memory.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.Content == "" {
		return nil, errors.New("empty memory")
	}
	f.created = append(f.created, m)
	return &memory.Memory{ID: uuid.New(), CharacterID: m.CharacterID, Content: m.Content, Category: m.Category, Importance: m.Importance}, nil
}

func (f *fakeMemory) Created() []memory.NewMemory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]memory.NewMemory(nil), f.created...)
}
