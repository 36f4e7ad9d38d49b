package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/nexconsult/case-fetcher/internal/models"
)

// Pool is the subset of *pgxpool.Pool the sink uses; pgxmock pools satisfy it too.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresSink implements Sink using pgxpool.
type PostgresSink struct {
	pool Pool
}

// NewPostgres creates a PostgresSink with a small connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresSink, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSink{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS case_search_log (
	id           BIGSERIAL PRIMARY KEY,
	case_type    TEXT NOT NULL,
	case_number  TEXT NOT NULL,
	filing_year  TEXT NOT NULL,
	raw_response TEXT NOT NULL DEFAULT '',
	searched_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_case_search_log_searched_at ON case_search_log(searched_at DESC);
`

func (s *PostgresSink) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresSink) Append(ctx context.Context, entry models.SearchLogEntry) error {
	searchedAt := entry.SearchedAt
	if searchedAt.IsZero() {
		searchedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO case_search_log (case_type, case_number, filing_year, raw_response, searched_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.CaseType, entry.CaseNumber, entry.FilingYear, entry.RawPageMarkup, searchedAt,
	)
	return eris.Wrap(err, "postgres: insert search log")
}

// Recent returns the newest entries first, without their page markup.
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]models.SearchLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, case_type, case_number, filing_year, searched_at FROM case_search_log ORDER BY searched_at DESC, id DESC LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list search log")
	}
	defer rows.Close()

	var entries []models.SearchLogEntry
	for rows.Next() {
		var e models.SearchLogEntry
		if err := rows.Scan(&e.ID, &e.CaseType, &e.CaseNumber, &e.FilingYear, &e.SearchedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search log")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list search log iterate")
}

func (s *PostgresSink) Health() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return map[string]interface{}{"status": "unhealthy", "driver": "postgres", "error": err.Error()}
	}
	return map[string]interface{}{"status": "healthy", "driver": "postgres"}
}
