package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q rowQuerier) *PostgresRepository {
	if q == nil {
		panic("leads: querier required")
	}
	return &PostgresRepository{pool: q}
}

const leadColumns = `id, conversation_id, session_key, channel, name, phone, reason, preferred_time, urgency, transcript, created_at`

// Save inserts the lead unless the conversation already has one. The unique index on
// conversation_id makes concurrent or retried commits collapse into one row.
func (r *PostgresRepository) Save(ctx context.Context, req *CreateLeadRequest) (*Lead, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	id := uuid.New().String()
	transcript := req.Transcript
	if transcript == nil {
		transcript = []string{}
	}
	query := `
		INSERT INTO leads (id, conversation_id, session_key, channel, name, phone, reason, preferred_time, urgency, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (conversation_id) DO NOTHING
		RETURNING ` + leadColumns
	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		id,
		req.ConversationID,
		req.SessionKey,
		req.Channel,
		req.Name,
		req.Phone,
		req.Reason,
		req.PreferredTime,
		req.Urgency,
		transcript,
	))
	if err == nil {
		return lead, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("leads: insert failed: %w", err)
	}

	existing, err := r.GetByConversationID(ctx, req.ConversationID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByConversationID(ctx context.Context, conversationID string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE conversation_id = $1`
	return r.getOne(ctx, query, conversationID)
}

func (r *PostgresRepository) GetBySessionKey(ctx context.Context, sessionKey string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE session_key = $1 ORDER BY created_at DESC LIMIT 1`
	return r.getOne(ctx, query, sessionKey)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter = filter.normalized()

	var (
		where []string
		args  []any
	)
	if filter.Urgency != "" {
		args = append(args, filter.Urgency)
		where = append(where, fmt.Sprintf("urgency = $%d", len(args)))
	}
	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.ConversationID,
		&lead.SessionKey,
		&lead.Channel,
		&lead.Name,
		&lead.Phone,
		&lead.Reason,
		&lead.PreferredTime,
		&lead.Urgency,
		&lead.Transcript,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
