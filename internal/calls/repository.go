package calls

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores call logs, newest first.
type Repository interface {
	Create(ctx context.Context, req *CreateRequest) (*CallLog, error)
	List(ctx context.Context) ([]*CallLog, error)
	Count(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, id, status string) (*CallLog, error)
}

type InMemoryRepository struct {
	mu   sync.RWMutex
	logs map[string]*CallLog
	now  func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		logs: make(map[string]*CallLog),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Create(_ context.Context, req *CreateRequest) (*CallLog, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := &CallLog{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Phone:         req.Phone,
		Service:       req.Service,
		PreferredTime: req.PreferredTime,
		Urgency:       req.Urgency,
		Status:        StatusNew,
		SessionKey:    req.SessionKey,
		Transcript:    append([]string{}, req.Transcript...),
		CreatedAt:     r.now(),
	}
	r.mu.Lock()
	r.logs[log.ID] = log
	r.mu.Unlock()
	return copyLog(log), nil
}

func (r *InMemoryRepository) List(_ context.Context) ([]*CallLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*CallLog, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, copyLog(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.logs), nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id, status string) (*CallLog, error) {
	status, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	l.Status = status
	return copyLog(l), nil
}

func copyLog(l *CallLog) *CallLog {
	out := *l
	out.Transcript = append([]string{}, l.Transcript...)
	return &out
}
