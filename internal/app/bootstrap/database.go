package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/wolfman30/selaro-receptionist/internal/appointments"
	"github.com/wolfman30/selaro-receptionist/internal/calls"
	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Repositories bundles the persistence the API serves from.
type Repositories struct {
	Leads        leads.Repository
	Appointments appointments.Repository
	Calls        calls.Repository
	Backend      string

	pool  *pgxpool.Pool
	sqlDB *sql.DB
}

// Close releases database connections, if any.
func (r *Repositories) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
	if r.sqlDB != nil {
		_ = r.sqlDB.Close()
	}
}

// BuildRepositories connects to Postgres when DATABASE_URL is set. Leads and
// appointments go through pgx; call logs use database/sql with the lib/pq driver.
// Without a database everything is kept in memory.
func BuildRepositories(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*Repositories, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("DATABASE_URL not set; using in-memory repositories")
		return &Repositories{
			Leads:        leads.NewInMemoryRepository(),
			Appointments: appointments.NewInMemoryRepository(),
			Calls:        calls.NewInMemoryRepository(),
			Backend:      "memory",
		}, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}

	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: open sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	logger.Info("postgres repositories configured")
	return &Repositories{
		Leads:        leads.NewPostgresRepository(pool),
		Appointments: appointments.NewPostgresRepository(pool),
		Calls:        calls.NewPostgresRepository(sqlDB),
		Backend:      "postgres",
		pool:         pool,
		sqlDB:        sqlDB,
	}, nil
}
