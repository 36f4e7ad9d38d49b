// Package store persists the append-only log of case search attempts.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/nexconsult/case-fetcher/internal/config"
	"github.com/nexconsult/case-fetcher/internal/models"
)

// DefaultRecentLimit caps Recent when callers pass a non-positive limit
const DefaultRecentLimit = 50

// MaxRecentLimit is the most entries Recent ever returns
const MaxRecentLimit = 500

// Sink is a durable, write-once log of search attempts.
type Sink interface {
	Append(ctx context.Context, entry models.SearchLogEntry) error
	Recent(ctx context.Context, limit int) ([]models.SearchLogEntry, error)
	Migrate(ctx context.Context) error
	Health() map[string]interface{}
	Close() error
}

// Open connects to the configured sink and applies its schema.
func Open(ctx context.Context, cfg config.LogSinkConfig) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch cfg.Driver {
	case config.SinkSQLite:
		sink, err = NewSQLite(cfg.DSN)
	case config.SinkPostgres:
		sink, err = NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := sink.Migrate(ctx); err != nil {
		sink.Close() //nolint:errcheck
		return nil, err
	}
	return sink, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
