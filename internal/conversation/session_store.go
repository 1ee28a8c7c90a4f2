package conversation

import (
	"context"
	"sync"
	"time"
)

// SessionStore keeps conversation state keyed by session key. Implementations hand
// out copies: mutating a loaded state has no effect until Save.
type SessionStore interface {
	Load(ctx context.Context, key string) (*State, bool, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, key string) error
	// Sweep removes sessions whose last activity is before cutoff and returns how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*State)}
}

func (s *MemorySessionStore) Load(_ context.Context, key string) (*State, bool, error) {
	if key == "" {
		return nil, false, ErrEmptySessionKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[key]
	if !ok {
		return nil, false, nil
	}
	return state.Clone(), true, nil
}

func (s *MemorySessionStore) Save(_ context.Context, state *State) error {
	if state == nil || state.SessionKey == "" {
		return ErrEmptySessionKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.SessionKey] = state.Clone()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

func (s *MemorySessionStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, state := range s.sessions {
		if state.LastActivity.Before(cutoff) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemorySessionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
