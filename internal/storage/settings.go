package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/storage"
	"github.com/redis/go-redis/v9"
)

func (r *RedisStorage) LoadSettings(ctx context.Context, userID string) (*storage.Settings, error) {
	data, err := r.client.Get(ctx, settingsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return storage.DefaultSettings(userID), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	var s storage.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	s.UserID = userID
	return &s, nil
}

func (r *RedisStorage) SaveSettings(ctx context.Context, s *storage.Settings) error {
	if s == nil || s.UserID == "" {
		return errors.New("settings need a user id")
	}
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := r.client.Set(ctx, settingsKey(s.UserID), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save settings", "user_id", s.UserID, "error", err)
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Typing indicators

func (r *RedisStorage) SetTyping(ctx context.Context, characterID uuid.UUID, ttl time.Duration) error {
	if err := r.client.Set(ctx, typingKey(characterID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to set typing flag: %w", err)
	}
	return nil
}

func (r *RedisStorage) ClearTyping(ctx context.Context, characterID uuid.UUID) error {
	if err := r.client.Del(ctx, typingKey(characterID)).Err(); err != nil {
		return fmt.Errorf("failed to clear typing flag: %w", err)
	}
	return nil
}
