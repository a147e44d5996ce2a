package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// BestEffort wraps a cache so write and delete failures are logged instead of returned.
// Read failures other than ErrMiss are logged and still returned so callers can drop the entry.
type BestEffort struct {
	next   Cache
	logger *zap.Logger
}

func NewBestEffort(next Cache, logger *zap.Logger) *BestEffort {
	if next == nil {
		next = Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BestEffort{next: next, logger: logger}
}

func (b *BestEffort) GetJSON(ctx context.Context, key string, dst any) error {
	err := b.next.GetJSON(ctx, key, dst)
	if err != nil && !errors.Is(err, ErrMiss) {
		b.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// SetJSON never returns an error.
func (b *BestEffort) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := b.next.SetJSON(ctx, key, value, ttl); err != nil {
		b.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Delete never returns an error. A failed delete leaves a stale entry until its TTL expires.
func (b *BestEffort) Delete(ctx context.Context, keys ...string) error {
	if err := b.next.Delete(ctx, keys...); err != nil {
		b.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
	return nil
}
