package gm

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/internal/config"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/memory"
	"github.com/jwebster45206/gm-engine/pkg/rules"
)

// MemoryManager reads and writes a character's episodic memory. Store
// failures are logged and never reach the player.
type MemoryManager struct {
	store  memory.Store
	cfg    config.MemoryConfig
	lex    *lexicon.Lexicon
	logger *slog.Logger
}

func NewMemoryManager(store memory.Store, cfg config.MemoryConfig, lex *lexicon.Lexicon, logger *slog.Logger) *MemoryManager {
	return &MemoryManager{store: store, cfg: cfg, lex: lex, logger: logger}
}

// Digest returns the memory block for the narrative prompt. The bool is
// false when the store could not be read.
func (m *MemoryManager) Digest(ctx context.Context, characterID uuid.UUID, sessionID *uuid.UUID, action string) (string, bool) {
	relevant, err := m.store.Search(ctx, memory.SearchQuery{
		CharacterID:     characterID,
		Text:            action,
		Limit:           m.cfg.TopK,
		SimilarityFloor: m.cfg.SimilarityFloor,
		MinImportance:   m.cfg.MinImportance,
	})
	if err != nil {
		m.logger.Warn("Memory search failed", "stage", "memory", "character_id", characterID, "error", err)
		return m.lex.Messages.MemoryUnavailable, false
	}

	recent, err := m.store.Recent(ctx, characterID, m.cfg.RecentLimit, sessionID)
	if err != nil {
		m.logger.Warn("Recent memory lookup failed", "stage", "memory", "character_id", characterID, "error", err)
		return m.lex.Messages.MemoryUnavailable, false
	}

	return memory.BuildDigest(relevant, recent, m.lex), true
}

// Record is one finished turn to remember.
type Record struct {
	CharacterID uuid.UUID
	SessionID   uuid.UUID
	Action      string
	Narrative   string
	Category    intent.Category
	Mechanics   rules.Result
	Location    string
}

// Remember tags and stores a finished turn.
func (m *MemoryManager) Remember(ctx context.Context, r Record) {
	meta := memory.DeriveMetadata(r.Action, r.Narrative, r.Category, r.Mechanics, m.lex)
	session := r.SessionID
	_, err := m.store.Create(ctx, memory.NewMemory{
		CharacterID: r.CharacterID,
		SessionID:   &session,
		Content:     memory.Content(r.Action, r.Narrative),
		Category:    meta.Category,
		Importance:  meta.Importance,
		Entities:    meta.Entities,
		Location:    r.Location,
	})
	if err != nil {
		m.logger.Error("Failed to store memory", "stage", "memory", "character_id", r.CharacterID, "error", err)
		return
	}
	m.logger.Debug("Memory stored", "character_id", r.CharacterID, "category", meta.Category, "importance", meta.Importance)
}
