package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu          sync.RWMutex
	characters  map[uuid.UUID]*character.Character
	worldStates map[uuid.UUID]*state.WorldState
	sessions    map[uuid.UUID]*Session
	settings    map[string]*Settings
	typing      map[uuid.UUID]time.Time

	pingError       error
	saveWorldError  error
	saveCharError   error
	typingSets      int
	typingClears    int
	worldStateSaves int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		characters:  make(map[uuid.UUID]*character.Character),
		worldStates: make(map[uuid.UUID]*state.WorldState),
		sessions:    make(map[uuid.UUID]*Session),
		settings:    make(map[string]*Settings),
		typing:      make(map[uuid.UUID]time.Time),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveWorldStateError makes SaveWorldState fail with err.
func (m *MockStorage) SetSaveWorldStateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveWorldError = err
}

// SetSaveCharacterError makes SaveCharacter fail with err.
func (m *MockStorage) SetSaveCharacterError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCharError = err
}

// TypingCalls returns how many times typing was set and cleared.
func (m *MockStorage) TypingCalls() (sets, clears int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.typingSets, m.typingClears
}

// WorldStateSaves returns the number of successful world state saves.
func (m *MockStorage) WorldStateSaves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.worldStateSaves
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveCharacter(ctx context.Context, c *character.Character) error {
	if c == nil {
		return errors.New("character cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveCharError != nil {
		return m.saveCharError
	}
	c.UpdatedAt = time.Now()
	m.characters[c.ID] = c.Clone()
	return nil
}

func (m *MockStorage) LoadCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, exists := m.characters[id]
	if !exists {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *MockStorage) LoadCharacterByUser(ctx context.Context, userID string) (*character.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.characters {
		if c.UserID == userID {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (m *MockStorage) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.characters, id)
	delete(m.worldStates, id)
	delete(m.typing, id)
	return nil
}

func (m *MockStorage) LoadWorldState(ctx context.Context, characterID uuid.UUID) (*state.WorldState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, exists := m.worldStates[characterID]
	if !exists {
		return nil, nil
	}
	return ws.Clone(), nil
}

func (m *MockStorage) SaveWorldState(ctx context.Context, characterID uuid.UUID, ws *state.WorldState) (int, error) {
	if ws == nil {
		return 0, errors.New("world state cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveWorldError != nil {
		return 0, m.saveWorldError
	}
	version := 1
	if prev, ok := m.worldStates[characterID]; ok {
		version = prev.Version + 1
	}
	stored := ws.Clone()
	stored.Version = version
	stored.UpdatedAt = time.Now()
	m.worldStates[characterID] = stored
	m.worldStateSaves++
	return version, nil
}

func (m *MockStorage) SaveTurn(ctx context.Context, c *character.Character, ws *state.WorldState) (int, error) {
	if c == nil || ws == nil {
		return 0, errors.New("character and world state are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveWorldError != nil {
		return 0, m.saveWorldError
	}
	if m.saveCharError != nil {
		return 0, m.saveCharError
	}
	now := time.Now()
	c.UpdatedAt = now
	m.characters[c.ID] = c.Clone()

	version := 1
	if prev, ok := m.worldStates[c.ID]; ok {
		version = prev.Version + 1
	}
	stored := ws.Clone()
	stored.Version = version
	stored.UpdatedAt = now
	m.worldStates[c.ID] = stored
	m.worldStateSaves++
	return version, nil
}

func (m *MockStorage) CreateSession(ctx context.Context, characterID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{ID: uuid.New(), CharacterID: characterID, StartedAt: time.Now()}
	m.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m *MockStorage) GetActiveSession(ctx context.Context, characterID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active *Session
	for _, s := range m.sessions {
		if s.CharacterID == characterID && s.Active() {
			if active == nil || s.StartedAt.After(active.StartedAt) {
				active = s
			}
		}
	}
	if active == nil {
		return nil, nil
	}
	cp := *active
	return &cp, nil
}

func (m *MockStorage) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	s.EndedAt = &now
	return nil
}

func (m *MockStorage) IncrementSessionStats(ctx context.Context, sessionID uuid.UUID, stats SessionStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.TurnsCount += stats.Turns
	s.TotalDamageDealt += stats.DamageDealt
	s.TotalDamageTaken += stats.DamageTaken
	return nil
}

// Session returns a stored session by id (for testing).
func (m *MockStorage) Session(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

func (m *MockStorage) LoadSettings(ctx context.Context, userID string) (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[userID]
	if !ok {
		return DefaultSettings(userID), nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockStorage) SaveSettings(ctx context.Context, s *Settings) error {
	if s == nil || s.UserID == "" {
		return errors.New("settings need a user id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.UpdatedAt = time.Now()
	m.settings[s.UserID] = &cp
	return nil
}

func (m *MockStorage) SetTyping(ctx context.Context, characterID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing[characterID] = time.Now().Add(ttl)
	m.typingSets++
	return nil
}

func (m *MockStorage) ClearTyping(ctx context.Context, characterID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.typing, characterID)
	m.typingClears++
	return nil
}

// Typing reports whether a typing flag is set and unexpired (for testing).
func (m *MockStorage) Typing(characterID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.typing[characterID]
	return ok && time.Now().Before(exp)
}
