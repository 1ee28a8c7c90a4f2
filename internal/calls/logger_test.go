package calls

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/selaro-receptionist/internal/leads"
)

func TestLeadLoggerRecordsVoiceLeads(t *testing.T) {
	repo := NewInMemoryRepository()
	logger := NewLeadLogger(repo, nil)

	err := logger.HandleLead(context.Background(), &leads.Lead{
		ID:            "lead-1",
		SessionKey:    "call:CA123",
		Channel:       "voice",
		Name:          "Max Schmidt",
		Phone:         "0341123456",
		Reason:        "Kontrolle",
		PreferredTime: "2025-06-11 10:00",
		Urgency:       "normal",
		Transcript:    []string{"Anrufer: Hallo"},
	})
	require.NoError(t, err)

	logs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Max Schmidt", logs[0].Name)
	assert.Equal(t, "Kontrolle", logs[0].Service)
	assert.Equal(t, StatusNew, logs[0].Status)
	assert.Equal(t, "call:CA123", logs[0].SessionKey)
	assert.Equal(t, "calls", logger.Name())
}

func TestLeadLoggerIgnoresOtherChannels(t *testing.T) {
	repo := NewInMemoryRepository()
	logger := NewLeadLogger(repo, nil)

	require.NoError(t, logger.HandleLead(context.Background(), &leads.Lead{ID: "lead-2", Channel: "web", Name: "A", Phone: "1"}))
	require.NoError(t, logger.HandleLead(context.Background(), nil))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	first, err := repo.Create(ctx, &CreateRequest{Name: "Erste", Phone: "1", Urgency: "sofort"})
	require.NoError(t, err)
	assert.Equal(t, "normal", first.Urgency)
	assert.NotNil(t, first.Transcript)

	second, err := repo.Create(ctx, &CreateRequest{Name: "Zweite", Phone: "2", Urgency: "urgent"})
	require.NoError(t, err)

	logs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID, "newest first")

	updated, err := repo.UpdateStatus(ctx, first.ID, "called")
	require.NoError(t, err)
	assert.Equal(t, StatusCalled, updated.Status)

	_, err = repo.UpdateStatus(ctx, first.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = repo.UpdateStatus(ctx, "missing", "booked")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Create(ctx, &CreateRequest{Name: " ", Phone: "1"})
	assert.ErrorIs(t, err, ErrMissingName)
}
