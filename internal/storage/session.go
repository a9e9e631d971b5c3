package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// Sessions are hashes so the stat counters can be incremented in place.
// session:active:<character> points at the open session.

func (r *RedisStorage) CreateSession(ctx context.Context, characterID uuid.UUID) (*storage.Session, error) {
	s := &storage.Session{
		ID:          uuid.New(),
		CharacterID: characterID,
		StartedAt:   time.Now().UTC(),
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(s.ID), map[string]any{
			"character_id":       characterID.String(),
			"started_at":         s.StartedAt.Format(time.RFC3339Nano),
			"turns_count":        0,
			"total_damage_dealt": 0,
			"total_damage_taken": 0,
		})
		pipe.Set(ctx, activeSessionKey(characterID), s.ID.String(), 0)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to create session", "character_id", characterID, "error", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

func (r *RedisStorage) GetActiveSession(ctx context.Context, characterID uuid.UUID) (*storage.Session, error) {
	raw, err := r.client.Get(ctx, activeSessionKey(characterID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt active session pointer: %w", err)
	}

	s, err := r.loadSession(ctx, id)
	if err != nil || s == nil || !s.Active() {
		return nil, err
	}
	return s, nil
}

func (r *RedisStorage) loadSession(ctx context.Context, id uuid.UUID) (*storage.Session, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	s := &storage.Session{ID: id}
	if s.CharacterID, err = uuid.Parse(fields["character_id"]); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	s.StartedAt, _ = time.Parse(time.RFC3339Nano, fields["started_at"])
	if ended, ok := fields["ended_at"]; ok && ended != "" {
		if t, err := time.Parse(time.RFC3339Nano, ended); err == nil {
			s.EndedAt = &t
		}
	}
	s.TurnsCount, _ = strconv.Atoi(fields["turns_count"])
	s.TotalDamageDealt, _ = strconv.Atoi(fields["total_damage_dealt"])
	s.TotalDamageTaken, _ = strconv.Atoi(fields["total_damage_taken"])
	return s, nil
}

func (r *RedisStorage) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	s, err := r.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if s == nil {
		return storage.ErrNotFound
	}

	activeKey := activeSessionKey(s.CharacterID)
	current, err := r.client.Get(ctx, activeKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to look up active session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(sessionID), "ended_at", time.Now().UTC().Format(time.RFC3339Nano))
		if current == sessionID.String() {
			pipe.Del(ctx, activeKey)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to end session", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (r *RedisStorage) IncrementSessionStats(ctx context.Context, sessionID uuid.UUID, stats storage.SessionStats) error {
	key := sessionKey(sessionID)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, "turns_count", int64(stats.Turns))
		pipe.HIncrBy(ctx, key, "total_damage_dealt", int64(stats.DamageDealt))
		pipe.HIncrBy(ctx, key, "total_damage_taken", int64(stats.DamageTaken))
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to update session stats", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to update session stats: %w", err)
	}
	return nil
}
