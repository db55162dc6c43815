package database

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/MayankVir/alonie-backend/internal/config"
)

// InitRedis initializes the Redis client. Redis is optional: when the
// connection fails the function returns nil and callers skip caching.
func InitRedis(config *config.Config, log *zap.Logger) *redis.Client {
	if config.RedisHost == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisAddr := config.GetRedisAddr()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Username: config.RedisUsername,
		Password: config.RedisPassword,
	})

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Warn("failed to connect to Redis, continuing without caching",
			zap.String("addr", redisAddr), zap.Error(err))
		return nil
	}

	log.Info("connected to Redis", zap.String("addr", redisAddr))
	return redisClient
}
