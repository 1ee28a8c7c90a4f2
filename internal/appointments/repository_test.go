package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreate(name, date, tm string) *CreateRequest {
	return &CreateRequest{
		PatientName: name,
		Phone:       "0341123456",
		Reason:      "Kontrolle",
		Date:        date,
		Time:        tm,
	}
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*CreateRequest)
		want error
	}{
		{"valid", func(*CreateRequest) {}, nil},
		{"missing name", func(r *CreateRequest) { r.PatientName = "  " }, ErrMissingName},
		{"missing phone", func(r *CreateRequest) { r.Phone = "" }, ErrMissingPhone},
		{"bad date", func(r *CreateRequest) { r.Date = "11.06.2025" }, ErrInvalidDate},
		{"bad time", func(r *CreateRequest) { r.Time = "10 Uhr" }, ErrInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate("Anna Müller", "2025-06-11", "10:00")
			tt.mut(req)
			err := req.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, "normal", req.Urgency)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]string{
		"pending":   StatusPending,
		"Confirmed": StatusConfirmed,
		"CANCELLED": StatusCancelled,
		"canceled":  StatusCancelled,
	} {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStatus("done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	tick := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	ctx := context.Background()

	late, err := repo.Create(ctx, validCreate("Max Schmidt", "2025-06-12", "09:00"))
	require.NoError(t, err)
	early, err := repo.Create(ctx, validCreate("Anna Müller", "2025-06-11", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, early.Status)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID, "ordered by date and time")

	updated, err := repo.UpdateStatus(ctx, late.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	confirmed, err := repo.List(ctx, StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, late.ID, confirmed[0].ID)

	_, err = repo.UpdateStatus(ctx, late.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = repo.UpdateStatus(ctx, "missing", StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, early.ID))
	assert.ErrorIs(t, repo.Delete(ctx, early.ID), ErrNotFound)
	_, err = repo.GetByID(ctx, early.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	a, err := repo.Create(context.Background(), validCreate("Anna Müller", "2025-06-11", "10:00"))
	require.NoError(t, err)
	a.Status = StatusCancelled

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}
