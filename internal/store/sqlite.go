package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/nexconsult/case-fetcher/internal/models"
)

// SQLiteSink implements Sink using modernc.org/sqlite.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS case_search_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	case_type    TEXT NOT NULL,
	case_number  TEXT NOT NULL,
	filing_year  TEXT NOT NULL,
	raw_response TEXT NOT NULL DEFAULT '',
	searched_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_case_search_log_searched_at ON case_search_log(searched_at);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) Append(ctx context.Context, entry models.SearchLogEntry) error {
	searchedAt := entry.SearchedAt
	if searchedAt.IsZero() {
		searchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO case_search_log (case_type, case_number, filing_year, raw_response, searched_at) VALUES (?, ?, ?, ?, ?)`,
		entry.CaseType, entry.CaseNumber, entry.FilingYear, entry.RawPageMarkup, searchedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert search log")
}

// Recent returns the newest entries first, without their page markup.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]models.SearchLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, case_type, case_number, filing_year, searched_at FROM case_search_log ORDER BY searched_at DESC, id DESC LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list search log")
	}
	defer rows.Close()

	var entries []models.SearchLogEntry
	for rows.Next() {
		var e models.SearchLogEntry
		if err := rows.Scan(&e.ID, &e.CaseType, &e.CaseNumber, &e.FilingYear, &e.SearchedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search log")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list search log iterate")
}

func (s *SQLiteSink) Health() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return map[string]interface{}{"status": "unhealthy", "driver": "sqlite", "error": err.Error()}
	}
	return map[string]interface{}{"status": "healthy", "driver": "sqlite"}
}
