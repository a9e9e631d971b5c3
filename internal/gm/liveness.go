package gm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/pkg/storage"
	"golang.org/x/sync/errgroup"
)

const (
	TypingRefresh = 4 * time.Second
	typingTTL     = 10 * time.Second
)

// Indicator is a background liveness signal. It runs until ctx is done.
type Indicator func(ctx context.Context) error

// RunWithIndicators runs fn while the indicators signal activity. The
// indicators are cancelled as soon as fn returns and RunWithIndicators waits
// for them to stop. Their errors, cancellation included, are not reported.
func RunWithIndicators(ctx context.Context, fn func(context.Context), indicators ...Indicator) {
	indCtx, cancel := context.WithCancel(ctx)
	var g errgroup.Group
	for _, ind := range indicators {
		g.Go(func() error {
			if err := ind(indCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	fn(ctx)
	cancel()
	_ = g.Wait()
}

// TypingIndicator keeps a typing flag alive in storage and clears it when
// the turn is over.
func TypingIndicator(store storage.Storage, characterID uuid.UUID, interval time.Duration, logger *slog.Logger) Indicator {
	return func(ctx context.Context) error {
		defer func() {
			if err := store.ClearTyping(context.WithoutCancel(ctx), characterID); err != nil {
				logger.Warn("Failed to clear typing flag", "character_id", characterID, "error", err)
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := store.SetTyping(ctx, characterID, typingTTL); err != nil && ctx.Err() == nil {
				logger.Warn("Failed to set typing flag", "character_id", characterID, "error", err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

// HeartbeatIndicator logs at debug level while a turn is running.
func HeartbeatIndicator(logger *slog.Logger, characterID uuid.UUID, interval time.Duration) Indicator {
	return func(ctx context.Context) error {
		start := time.Now()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				logger.Debug("Turn still running", "character_id", characterID, "elapsed_ms", time.Since(start).Milliseconds())
			}
		}
	}
}
