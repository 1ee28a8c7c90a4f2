package clinic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	knowledgeKey        = "selaro:knowledge"
	knowledgeVersionKey = "selaro:knowledge:ver"
)

// KnowledgeStore holds the free-text clinic knowledge the receptionist answers from.
type KnowledgeStore interface {
	Get(ctx context.Context) (string, error)
	Replace(ctx context.Context, text string) (version int64, err error)
}

// RedisKnowledgeStore keeps the knowledge text and a version counter in Redis so every
// API instance answers from the same text.
type RedisKnowledgeStore struct {
	client *redis.Client
}

func NewRedisKnowledgeStore(client *redis.Client) *RedisKnowledgeStore {
	if client == nil {
		panic("clinic: redis client cannot be nil")
	}
	return &RedisKnowledgeStore{client: client}
}

func (s *RedisKnowledgeStore) Get(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, knowledgeKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("clinic: get knowledge: %w", err)
	}
	return val, nil
}

func (s *RedisKnowledgeStore) Replace(ctx context.Context, text string) (int64, error) {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, knowledgeKey, text, 0)
	ver := pipe.Incr(ctx, knowledgeVersionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("clinic: replace knowledge: %w", err)
	}
	return ver.Val(), nil
}

// MemoryKnowledgeStore is used when Redis is not configured.
type MemoryKnowledgeStore struct {
	mu      sync.RWMutex
	text    string
	version int64
}

func NewMemoryKnowledgeStore() *MemoryKnowledgeStore {
	return &MemoryKnowledgeStore{}
}

func (s *MemoryKnowledgeStore) Get(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text, nil
}

func (s *MemoryKnowledgeStore) Replace(_ context.Context, text string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.version++
	return s.version, nil
}

// SeedKnowledge loads path into store unless the store already has text.
// An empty path is a no-op. It reports whether the store was written.
func SeedKnowledge(ctx context.Context, store KnowledgeStore, path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	existing, err := store.Get(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(existing) != "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("clinic: read knowledge file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return false, nil
	}
	if _, err := store.Replace(ctx, text); err != nil {
		return false, err
	}
	return true, nil
}
