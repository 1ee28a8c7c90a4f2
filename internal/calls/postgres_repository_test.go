package calls

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var callColumnNames = []string{"id", "name", "phone", "service", "preferred_time", "urgency", "status", "session_key", "transcript", "created_at"}

func callRow(id, status string) *sqlmock.Rows {
	return sqlmock.NewRows(callColumnNames).AddRow(
		id, "Max Schmidt", "0341987654", "Schmerzen", "2025-06-12 09:00", "urgent", status, "call:CA1",
		`{"user: Hallo","assistant: Guten Tag"}`, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	)
}

func TestPostgresRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO call_logs").
		WithArgs(sqlmock.AnyArg(), "Max Schmidt", "0341987654", "Schmerzen", "2025-06-12 09:00", "urgent", StatusNew, "call:CA1", sqlmock.AnyArg()).
		WillReturnRows(callRow("call-1", StatusNew))

	repo := NewPostgresRepository(db)
	log, err := repo.Create(context.Background(), &CreateRequest{
		Name:          "Max Schmidt",
		Phone:         "0341987654",
		Service:       "Schmerzen",
		PreferredTime: "2025-06-12 09:00",
		Urgency:       "urgent",
		SessionKey:    "call:CA1",
		Transcript:    []string{"user: Hallo", "assistant: Guten Tag"},
	})
	require.NoError(t, err)
	assert.Equal(t, "call-1", log.ID)
	assert.Equal(t, []string{"user: Hallo", "assistant: Guten Tag"}, log.Transcript)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryCreateValidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewPostgresRepository(db).Create(context.Background(), &CreateRequest{Name: "Max"})
	assert.ErrorIs(t, err, ErrMissingPhone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryListAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM call_logs ORDER BY created_at DESC").WillReturnRows(callRow("call-1", StatusCalled))
	mock.ExpectQuery("SELECT count").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewPostgresRepository(db)
	logs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, StatusCalled, logs[0].Status)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryListError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM call_logs").WillReturnError(errors.New("connection refused"))
	_, err = NewPostgresRepository(db).List(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestPostgresRepositoryUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE call_logs SET status").WithArgs("call-1", StatusBooked).WillReturnRows(callRow("call-1", StatusBooked))
	mock.ExpectQuery("UPDATE call_logs SET status").WithArgs("missing", StatusCalled).WillReturnError(sql.ErrNoRows)

	repo := NewPostgresRepository(db)
	log, err := repo.UpdateStatus(context.Background(), "call-1", "booked")
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, log.Status)

	_, err = repo.UpdateStatus(context.Background(), "missing", "Called")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.UpdateStatus(context.Background(), "call-1", "Lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}
