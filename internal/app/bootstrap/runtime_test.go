package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/wolfman30/selaro-receptionist/internal/clinic"
	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/conversation"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientAndStores(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), SessionTTL: time.Minute, LLMTimeout: time.Second}

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	if client == nil {
		t.Fatalf("expected redis client")
	}
	defer client.Close()

	store, locker := BuildSessionStore(client, cfg)
	if _, ok := store.(*conversation.RedisSessionStore); !ok {
		t.Fatalf("expected RedisSessionStore, got %T", store)
	}
	if _, ok := locker.(*conversation.RedisLocker); !ok {
		t.Fatalf("expected RedisLocker, got %T", locker)
	}
	if _, ok := BuildKnowledgeStore(client).(*clinic.RedisKnowledgeStore); !ok {
		t.Fatalf("expected RedisKnowledgeStore")
	}
}

func TestBuildStoresWithoutRedis(t *testing.T) {
	store, locker := BuildSessionStore(nil, &appconfig.Config{})
	if _, ok := store.(*conversation.MemorySessionStore); !ok {
		t.Fatalf("expected MemorySessionStore, got %T", store)
	}
	if _, ok := locker.(*conversation.KeyedMutex); !ok {
		t.Fatalf("expected KeyedMutex, got %T", locker)
	}
	if _, ok := BuildKnowledgeStore(nil).(*clinic.MemoryKnowledgeStore); !ok {
		t.Fatalf("expected MemoryKnowledgeStore")
	}
}

func TestBuildRepositoriesInMemory(t *testing.T) {
	repos, err := BuildRepositories(context.Background(), &appconfig.Config{}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer repos.Close()
	if repos.Backend != "memory" {
		t.Fatalf("expected memory backend, got %q", repos.Backend)
	}
	if repos.Leads == nil || repos.Appointments == nil || repos.Calls == nil {
		t.Fatalf("expected all repositories to be set")
	}
}
