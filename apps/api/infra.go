package main

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/platform/go/cache"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/storage"
)

const cachePrefix = "wedding-admin"

// buildPublisher returns a best-effort publisher for the configured broker.
func buildPublisher(cfg config, logger *zap.Logger) (events.Publisher, error) {
	var next events.Publisher
	switch cfg.EventsBackend {
	case "rabbitmq":
		p, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue)
		if err != nil {
			return nil, fmt.Errorf("init rabbitmq publisher: %w", err)
		}
		next = p
	case "kafka":
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		next = p
	default:
		next = events.Noop{}
	}
	logger.Info("domain events configured", zap.String("backend", cfg.EventsBackend))
	return events.NewBestEffort(next, logger.Named("events")), nil
}

// buildCache connects to Redis when REDIS_URL is set. The returned client is nil otherwise.
func buildCache(ctx context.Context, cfg config, logger *zap.Logger) (cache.Cache, *redis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Info("redis not configured; report cache and export rate limit disabled")
		return cache.Noop{}, nil, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewBestEffort(cache.NewRedis(client, cachePrefix), logger.Named("cache")), client, nil
}

// buildArchive returns the export archive, or nil when archiving is disabled.
// The closer releases the GCS client and is never nil.
func buildArchive(ctx context.Context, cfg config) (storage.Archive, io.Closer, error) {
	switch cfg.StorageBackend {
	case "gcs":
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: %w", err)
		}
		return storage.NewGCSBucket(client, cfg.StorageBucket, cfg.StoragePrefix), client, nil
	case "local":
		dir, err := storage.NewLocalDir(cfg.StorageLocalDir)
		if err != nil {
			return nil, nil, err
		}
		return dir, nopCloser{}, nil
	default:
		return nil, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
