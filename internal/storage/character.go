package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/redis/go-redis/v9"
)

// Character operations. A user owns at most one character; saving a
// character points the user index at it.

func (r *RedisStorage) SaveCharacter(ctx context.Context, c *character.Character) error {
	if c == nil {
		return errors.New("character cannot be nil")
	}
	c.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(c)
	if err != nil {
		r.logger.Error("Failed to marshal character", "character_id", c.ID, "error", err)
		return fmt.Errorf("failed to marshal character: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueCharacter(ctx, pipe, c, data)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save character", "character_id", c.ID, "error", err)
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

func queueCharacter(ctx context.Context, pipe redis.Pipeliner, c *character.Character, data []byte) {
	pipe.Set(ctx, characterKey(c.ID), data, 0)
	if c.UserID != "" {
		pipe.Set(ctx, characterUserKey(c.UserID), c.ID.String(), 0)
	}
}

func (r *RedisStorage) LoadCharacter(ctx context.Context, id uuid.UUID) (*character.Character, error) {
	data, err := r.client.Get(ctx, characterKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load character", "character_id", id, "error", err)
		return nil, fmt.Errorf("failed to load character: %w", err)
	}

	var c character.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	return &c, nil
}

func (r *RedisStorage) LoadCharacterByUser(ctx context.Context, userID string) (*character.Character, error) {
	raw, err := r.client.Get(ctx, characterUserKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up character for user: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt character index for user %s: %w", userID, err)
	}

	c, err := r.LoadCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		r.logger.Warn("Character index points at a missing character", "user_id", userID, "character_id", id)
	}
	return c, nil
}

// DeleteCharacter removes the character, its user index, world state and
// typing flag.
func (r *RedisStorage) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	c, err := r.LoadCharacter(ctx, id)
	if err != nil {
		return err
	}
	keys := []string{characterKey(id), worldStateKey(id), typingKey(id), activeSessionKey(id)}
	if c != nil && c.UserID != "" {
		keys = append(keys, characterUserKey(c.UserID))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Failed to delete character", "character_id", id, "error", err)
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}
