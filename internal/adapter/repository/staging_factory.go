package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"aeroclassifieds/internal/adapter/repository/memory"
	"aeroclassifieds/internal/domain/repository"
	"aeroclassifieds/pkg/config"
	"aeroclassifieds/pkg/logger"
)

// NewStagingFromConfig returns a Redis-backed staging area when REDIS_ADDR is
// set and an in-process one otherwise. The returned close func is never nil.
func NewStagingFromConfig(ctx context.Context, cfg *config.Config) (repository.StagingRepository, func() error, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, staged attachments are kept in memory")
		return memory.NewStagingRepository(), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("Staging attachments in redis at %s", cfg.RedisAddr)
	return NewRedisStagingRepository(client), client.Close, nil
}
