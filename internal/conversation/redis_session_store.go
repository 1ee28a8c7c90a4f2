package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "selaro:session:"

// RedisSessionStore shares conversation state between API instances. Each key
// carries a Redis TTL as well, so abandoned sessions expire without a sweep.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisSessionStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("selaro.conversation.sessions")
	}
	return &RedisSessionStore{redis: client, ttl: ttl, tracer: tracer}
}

func (s *RedisSessionStore) Load(ctx context.Context, key string) (*State, bool, error) {
	if key == "" {
		return nil, false, ErrEmptySessionKey
	}
	ctx, span := s.tracer.Start(ctx, "conversation.load_session",
		trace.WithAttributes(attribute.String("session.key", key)))
	defer span.End()

	data, err := s.redis.Get(ctx, sessionRedisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	if state.Fields == nil {
		state.Fields = make(map[Field]string, len(RequiredFields))
	}
	return &state, true, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.SessionKey == "" {
		return ErrEmptySessionKey
	}
	ctx, span := s.tracer.Start(ctx, "conversation.save_session",
		trace.WithAttributes(attribute.String("session.key", state.SessionKey)))
	defer span.End()

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionRedisKey(state.SessionKey), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, sessionRedisKey(key)).Err(); err != nil {
		return fmt.Errorf("conversation: failed to delete session: %w", err)
	}
	return nil
}

// Sweep scans all session keys and drops those idle since before cutoff.
func (s *RedisSessionStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.sweep_sessions")
	defer span.End()

	removed := 0
	err := s.scan(ctx, func(keys []string) error {
		for _, key := range keys {
			data, err := s.redis.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return fmt.Errorf("conversation: sweep read %s: %w", key, err)
			}
			var state State
			if err := json.Unmarshal(data, &state); err != nil || state.LastActivity.Before(cutoff) {
				if err := s.redis.Del(ctx, key).Err(); err != nil {
					return fmt.Errorf("conversation: sweep delete %s: %w", key, err)
				}
				removed++
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Int("sessions.removed", removed))
	return removed, err
}

func (s *RedisSessionStore) Count(ctx context.Context) (int, error) {
	total := 0
	err := s.scan(ctx, func(keys []string) error {
		total += len(keys)
		return nil
	})
	return total, err
}

func (s *RedisSessionStore) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("conversation: scan sessions failed: %w", err)
		}
		if err := fn(keys); err != nil {
			return err
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func sessionRedisKey(key string) string {
	return sessionKeyPrefix + key
}
