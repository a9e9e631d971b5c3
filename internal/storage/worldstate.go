package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/state"
	"github.com/redis/go-redis/v9"
)

// World state is a hash with the JSON document in "data" and a counter in
// "version". The counter is the source of truth for the version.

func (r *RedisStorage) LoadWorldState(ctx context.Context, characterID uuid.UUID) (*state.WorldState, error) {
	fields, err := r.client.HGetAll(ctx, worldStateKey(characterID)).Result()
	if err != nil {
		r.logger.Error("Failed to load world state", "character_id", characterID, "error", err)
		return nil, fmt.Errorf("failed to load world state: %w", err)
	}
	data, ok := fields["data"]
	if !ok || data == "" {
		return nil, nil
	}

	var ws state.WorldState
	if err := json.Unmarshal([]byte(data), &ws); err != nil {
		r.logger.Error("Failed to unmarshal world state", "character_id", characterID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal world state: %w", err)
	}
	if v, err := strconv.Atoi(fields["version"]); err == nil {
		ws.Version = v
	}
	ws.Normalize()
	return &ws, nil
}

func (r *RedisStorage) SaveWorldState(ctx context.Context, characterID uuid.UUID, ws *state.WorldState) (int, error) {
	if ws == nil {
		return 0, errors.New("world state cannot be nil")
	}
	ws.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(ws)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal world state: %w", err)
	}

	var version *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		version = queueWorldState(ctx, pipe, characterID, data)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save world state", "character_id", characterID, "error", err)
		return 0, fmt.Errorf("failed to save world state: %w", err)
	}

	ws.Version = int(version.Val())
	return ws.Version, nil
}

func queueWorldState(ctx context.Context, pipe redis.Pipeliner, characterID uuid.UUID, data []byte) *redis.IntCmd {
	key := worldStateKey(characterID)
	pipe.HSet(ctx, key, "data", data)
	return pipe.HIncrBy(ctx, key, "version", 1)
}

// SaveTurn writes the character and its world state in one MULTI/EXEC, so
// either both land or neither does.
func (r *RedisStorage) SaveTurn(ctx context.Context, c *character.Character, ws *state.WorldState) (int, error) {
	if c == nil || ws == nil {
		return 0, errors.New("character and world state are required")
	}
	now := time.Now().UTC()
	c.UpdatedAt = now
	ws.UpdatedAt = now

	charData, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal character: %w", err)
	}
	worldData, err := json.Marshal(ws)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal world state: %w", err)
	}

	var version *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueCharacter(ctx, pipe, c, charData)
		version = queueWorldState(ctx, pipe, c.ID, worldData)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save turn", "character_id", c.ID, "error", err)
		return 0, fmt.Errorf("failed to save turn: %w", err)
	}

	ws.Version = int(version.Val())
	return ws.Version, nil
}
