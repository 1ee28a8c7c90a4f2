package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores appointments. List with an empty status returns all of them,
// ordered by date and time.
type Repository interface {
	Create(ctx context.Context, req *CreateRequest) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, status string) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) (*Appointment, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is a Repository for development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Appointment
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[string]*Appointment),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Create(_ context.Context, req *CreateRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := r.now()
	a := &Appointment{
		ID:          uuid.New().String(),
		PatientName: req.PatientName,
		Phone:       req.Phone,
		Reason:      req.Reason,
		Date:        req.Date,
		Time:        req.Time,
		Status:      StatusPending,
		Urgency:     req.Urgency,
		SessionKey:  req.SessionKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.mu.Lock()
	r.items[a.ID] = a
	r.mu.Unlock()

	out := *a
	return &out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

func (r *InMemoryRepository) List(_ context.Context, status string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Appointment, 0, len(r.items))
	for _, a := range r.items {
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id, status string) (*Appointment, error) {
	status, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = r.now()
	out := *a
	return &out, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
