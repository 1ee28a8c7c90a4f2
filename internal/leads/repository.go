package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage. Save is idempotent on the
// conversation id: a second save for the same conversation returns the first lead
// with created=false.
type Repository interface {
	Save(ctx context.Context, req *CreateLeadRequest) (lead *Lead, created bool, err error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	GetByConversationID(ctx context.Context, conversationID string) (*Lead, error)
	// GetBySessionKey returns the newest lead for a session key.
	GetBySessionKey(ctx context.Context, sessionKey string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
}

// InMemoryRepository is a Repository for development and tests.
type InMemoryRepository struct {
	mu             sync.RWMutex
	leads          map[string]*Lead
	byConversation map[string]string
	bySession      map[string]string
	now            func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:          make(map[string]*Lead),
		byConversation: make(map[string]string),
		bySession:      make(map[string]string),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Save(_ context.Context, req *CreateLeadRequest) (*Lead, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byConversation[req.ConversationID]; ok {
		return copyLead(r.leads[id]), false, nil
	}
	lead := &Lead{
		ID:             uuid.New().String(),
		ConversationID: req.ConversationID,
		SessionKey:     req.SessionKey,
		Channel:        req.Channel,
		Name:           req.Name,
		Phone:          req.Phone,
		Reason:         req.Reason,
		PreferredTime:  req.PreferredTime,
		Urgency:        req.Urgency,
		Transcript:     append([]string(nil), req.Transcript...),
		CreatedAt:      r.now(),
	}
	r.leads[lead.ID] = lead
	r.byConversation[lead.ConversationID] = lead.ID
	r.bySession[lead.SessionKey] = lead.ID
	return copyLead(lead), true, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyLead(lead), nil
}

func (r *InMemoryRepository) GetByConversationID(_ context.Context, conversationID string) (*Lead, error) {
	return r.lookup(r.byConversation, conversationID)
}

func (r *InMemoryRepository) GetBySessionKey(_ context.Context, sessionKey string) (*Lead, error) {
	return r.lookup(r.bySession, sessionKey)
}

func (r *InMemoryRepository) lookup(index map[string]string, key string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyLead(r.leads[id]), nil
}

// List returns leads newest first.
func (r *InMemoryRepository) List(_ context.Context, filter ListFilter) ([]*Lead, error) {
	filter = filter.normalized()

	r.mu.RLock()
	all := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.Urgency != "" && lead.Urgency != filter.Urgency {
			continue
		}
		all = append(all, copyLead(lead))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if filter.Offset >= len(all) {
		return []*Lead{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func copyLead(l *Lead) *Lead {
	out := *l
	out.Transcript = append([]string(nil), l.Transcript...)
	return &out
}
