// Package memory defines episodic memories, the store contract used to
// retrieve them, and the rules that tag a finished turn as a memory.
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category classifies a memory.
type Category string

const (
	CategoryEvent     Category = "event"
	CategoryDialogue  Category = "dialogue"
	CategoryDiscovery Category = "discovery"
	CategoryCombat    Category = "combat"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryEvent, CategoryDialogue, CategoryDiscovery, CategoryCombat:
		return true
	}
	return false
}

const (
	MinImportance = 0
	MaxImportance = 10
)

// Memory is one remembered moment of a character's story. Memories are
// never updated once written.
type Memory struct {
	ID          uuid.UUID  `json:"id"`
	CharacterID uuid.UUID  `json:"character_id"`
	SessionID   *uuid.UUID `json:"session_id,omitempty"`
	Content     string     `json:"content"`
	Category    Category   `json:"category"`
	Importance  int        `json:"importance"`
	Entities    []string   `json:"entities"`
	Location    string     `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Scored is a search hit.
type Scored struct {
	Memory     Memory  `json:"memory"`
	Similarity float64 `json:"similarity"`
}

// SearchQuery selects memories similar to Text.
type SearchQuery struct {
	CharacterID     uuid.UUID
	Text            string
	Limit           int
	SimilarityFloor float64
	MinImportance   int
}

// NewMemory is the input to Store.Create.
type NewMemory struct {
	CharacterID uuid.UUID
	SessionID   *uuid.UUID
	Content     string
	Category    Category
	Importance  int
	Entities    []string
	Location    string
}

// Store is long-term episodic memory.
type Store interface {
	// Search returns hits ordered by similarity, then importance, descending.
	Search(ctx context.Context, q SearchQuery) ([]Scored, error)
	// Recent returns the newest memories first. A nil session means any.
	Recent(ctx context.Context, characterID uuid.UUID, limit int, sessionID *uuid.UUID) ([]Memory, error)
	Create(ctx context.Context, m NewMemory) (*Memory, error)
}
