package gm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/internal/services"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(llm services.LLMService, faces ...int) (*Game, *storage.MockStorage) {
	store := storage.NewMockStorage()
	return NewGame(store, newTestOrchestrator(llm, store, faces, nil), testLogger()), store
}

func TestGame_PlayTurn(t *testing.T) {
	ctx := context.Background()
	llm := scriptedLLM(map[string]string{
		intentModel:    attackIntent,
		narrativeModel: "Steel rings against the goblin's shield.",
		combatModel:    goblinCombat,
	})
	g, store := newTestGame(llm, 15, 5)

	c, err := g.CreateCharacter(ctx, "user-1", "Aria")
	require.NoError(t, err)

	resp, err := g.PlayTurn(ctx, chat.TurnRequest{CharacterID: c.ID, Action: "  I attack the goblin  "})
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	require.NotNil(t, resp.Mechanics)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, intent.CategoryAttack, resp.Intent.Category)
	assert.Equal(t, 16, resp.Character.HP)
	assert.True(t, resp.WorldState.InCombat)
	assert.Contains(t, resp.Message, "Goblin hits you for 4 damage!")

	session, err := store.GetActiveSession(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 1, session.TurnsCount)
	assert.Equal(t, 7, session.TotalDamageDealt)
	assert.Equal(t, 4, session.TotalDamageTaken)

	sets, clears := store.TypingCalls()
	assert.GreaterOrEqual(t, sets, 1)
	assert.Equal(t, 1, clears)
	assert.False(t, store.Typing(c.ID))

	// a second turn reuses the session
	_, err = g.PlayTurn(ctx, chat.TurnRequest{CharacterID: c.ID, Action: "I attack the goblin"})
	require.NoError(t, err)
	again, err := store.GetActiveSession(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, again.ID)
	assert.Equal(t, 2, again.TurnsCount)
}

func TestGame_PlayTurnPersistFailureSkipsStats(t *testing.T) {
	ctx := context.Background()
	llm := scriptedLLM(map[string]string{
		intentModel:    attackIntent,
		narrativeModel: "Steel rings against the goblin's shield.",
		combatModel:    goblinCombat,
	})
	g, store := newTestGame(llm, 15, 5)
	c, err := g.CreateCharacter(ctx, "user-1", "Aria")
	require.NoError(t, err)

	store.SetSaveCharacterError(errors.New("redis down"))
	resp, err := g.PlayTurn(ctx, chat.TurnRequest{CharacterID: c.ID, Action: "I attack the goblin"})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)
	assert.Equal(t, 20, resp.Character.HP)

	session, err := store.GetActiveSession(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Zero(t, session.TurnsCount)
	assert.Zero(t, session.TotalDamageDealt)
	assert.Zero(t, session.TotalDamageTaken)

	ws, err := store.LoadWorldState(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ws.InCombat, "stored world is unchanged")
}

func TestGame_PlayTurnErrors(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(services.NewMockLLMAPI(), 10)

	_, err := g.PlayTurn(ctx, chat.TurnRequest{CharacterID: uuid.New(), Action: "look"})
	assert.ErrorIs(t, err, ErrCharacterNotFound)

	_, err = g.PlayTurn(ctx, chat.TurnRequest{Action: "look"})
	assert.Error(t, err)

	_, err = g.PlayTurn(ctx, chat.TurnRequest{CharacterID: uuid.New(), Action: "   "})
	assert.Error(t, err)
}

func TestGame_PlayTurnCombatDisabled(t *testing.T) {
	ctx := context.Background()
	llm := scriptedLLM(map[string]string{narrativeModel: "The goblin shrugs off your bluster."})
	g, store := newTestGame(llm, 20)

	c, err := g.CreateCharacter(ctx, "user-2", "Bram")
	require.NoError(t, err)
	require.NoError(t, store.SaveSettings(ctx, &storage.Settings{UserID: "user-2", CombatEnabled: false}))

	resp, err := g.PlayTurn(ctx, chat.TurnRequest{CharacterID: c.ID, Action: "I attack the goblin"})
	require.NoError(t, err)
	require.NotNil(t, resp.Mechanics)
	assert.True(t, resp.Mechanics.CombatDisabled)
	assert.False(t, resp.WorldState.InCombat)
	assert.Len(t, llm.GetCalls(), 1)
}

func TestGame_CreateCharacter(t *testing.T) {
	ctx := context.Background()
	g, store := newTestGame(services.NewMockLLMAPI())

	c, err := g.CreateCharacter(ctx, " user-3 ", " Cyra ")
	require.NoError(t, err)
	assert.Equal(t, "user-3", c.UserID)
	assert.Equal(t, "Cyra", c.Name)
	assert.Equal(t, 20, c.HP)

	ws, err := store.LoadWorldState(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.False(t, ws.InCombat)

	dup, err := g.CreateCharacter(ctx, "user-3", "Other")
	assert.ErrorIs(t, err, ErrCharacterExists)
	require.NotNil(t, dup)
	assert.Equal(t, c.ID, dup.ID)

	_, err = g.CreateCharacter(ctx, "", "Nobody")
	assert.ErrorIs(t, err, ErrInvalidCharacter)
	_, err = g.CreateCharacter(ctx, "user-4", "  ")
	assert.ErrorIs(t, err, ErrInvalidCharacter)
}

func TestGame_NewAdventure(t *testing.T) {
	ctx := context.Background()
	llm := scriptedLLM(map[string]string{
		intentModel:    attackIntent,
		narrativeModel: "The goblin bites.",
		combatModel:    goblinCombat,
	})
	g, store := newTestGame(llm, 3)

	c, err := g.CreateCharacter(ctx, "user-5", "Dara")
	require.NoError(t, err)
	resp, err := g.PlayTurn(ctx, chat.TurnRequest{CharacterID: c.ID, Action: "I attack the goblin"})
	require.NoError(t, err)
	require.Less(t, resp.Character.HP, 20)
	session, err := store.GetActiveSession(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, session)

	restored, world, err := g.NewAdventure(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, restored.HP)
	assert.False(t, world.InCombat)
	assert.Empty(t, world.Enemies)

	stored, err := store.LoadWorldState(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, stored.InCombat)
	ended, ok := store.Session(session.ID)
	require.True(t, ok)
	assert.False(t, ended.Active())
	active, err := store.GetActiveSession(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, _, err = g.NewAdventure(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}
