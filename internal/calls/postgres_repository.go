package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository keeps call logs in the call_logs table through database/sql
// and the lib/pq driver.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const callColumns = `id, name, phone, service, preferred_time, urgency, status, session_key, transcript, created_at`

func (r *PostgresRepository) Create(ctx context.Context, req *CreateRequest) (*CallLog, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO call_logs (id, name, phone, service, preferred_time, urgency, status, session_key, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+callColumns,
		uuid.New().String(), req.Name, req.Phone, req.Service, req.PreferredTime,
		req.Urgency, StatusNew, req.SessionKey, pq.Array(req.Transcript))
	log, err := scanCall(row)
	if err != nil {
		return nil, fmt.Errorf("calls: insert failed: %w", err)
	}
	return log, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*CallLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+callColumns+` FROM call_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("calls: list failed: %w", err)
	}
	defer rows.Close()

	out := []*CallLog{}
	for rows.Next() {
		log, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("calls: scan failed: %w", err)
		}
		out = append(out, log)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM call_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("calls: count failed: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) (*CallLog, error) {
	status, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `UPDATE call_logs SET status = $2 WHERE id = $1 RETURNING `+callColumns, id, status)
	log, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("calls: update failed: %w", err)
	}
	return log, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCall(row scanner) (*CallLog, error) {
	var l CallLog
	if err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Service, &l.PreferredTime, &l.Urgency,
		&l.Status, &l.SessionKey, pq.Array(&l.Transcript), &l.CreatedAt); err != nil {
		return nil, err
	}
	if l.Transcript == nil {
		l.Transcript = []string{}
	}
	return &l, nil
}
