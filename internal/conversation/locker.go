package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serialises turns for one session key. Different keys never block each other.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker. Idle keys are released so the map does not grow.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free or ctx is done.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.sem
				m.release(key, l)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// Held returns the number of keys currently locked or waited on.
func (m *KeyedMutex) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

const lockKeyPrefix = "selaro:lock:"

// ErrLockTimeout is returned when a RedisLocker gives up waiting.
var ErrLockTimeout = errors.New("conversation: session lock timeout")

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serialises turns across API instances sharing one Redis. The lock
// expires after lease so a crashed holder cannot wedge a session.
type RedisLocker struct {
	redis *redis.Client
	lease time.Duration
	retry time.Duration
}

func NewRedisLocker(client *redis.Client, lease time.Duration) *RedisLocker {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}
	return &RedisLocker{redis: client, lease: lease, retry: 25 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := lockKeyPrefix + key

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.redis.SetNX(ctx, redisKey, token, l.lease).Result()
		if err != nil {
			return nil, fmt.Errorf("conversation: acquire session lock: %w", err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// Release with a fresh context; the turn's context may already be done.
					ctx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					_ = unlockScript.Run(ctx, l.redis, []string{redisKey}, token).Err()
				})
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}
