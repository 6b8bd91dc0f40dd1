// Package cache provides the shared redis client.
package cache

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/clustersystems/commission-tracker/internal/config"
)

// New returns a redis client, or nil when no address is configured. Callers
// treat a nil client as "distributed coordination disabled".
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Warn("redis not configured, sync lock is process-local only")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

var Module = fx.Provide(New)
