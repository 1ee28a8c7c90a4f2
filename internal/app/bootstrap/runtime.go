package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/selaro-receptionist/internal/clinic"
	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/conversation"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore shares sessions and turn locks through Redis when available,
// otherwise keeps them in process.
func BuildSessionStore(redisClient *redis.Client, cfg *appconfig.Config) (conversation.SessionStore, conversation.Locker) {
	if redisClient == nil || cfg == nil {
		return conversation.NewMemorySessionStore(), conversation.NewKeyedMutex()
	}
	lease := cfg.LLMTimeout * 2
	return conversation.NewRedisSessionStore(redisClient, cfg.SessionTTL, nil), conversation.NewRedisLocker(redisClient, lease)
}

// BuildKnowledgeStore returns the Redis knowledge store when Redis is available.
func BuildKnowledgeStore(redisClient *redis.Client) clinic.KnowledgeStore {
	if redisClient == nil {
		return clinic.NewMemoryKnowledgeStore()
	}
	return clinic.NewRedisKnowledgeStore(redisClient)
}
