package services

import (
	"context"

	"github.com/nexconsult/case-fetcher/internal/browser"
	"github.com/nexconsult/case-fetcher/internal/models"
)

// SessionAcquirer hands out fresh browser sessions. *browser.Manager implements it.
type SessionAcquirer interface {
	Acquire(ctx context.Context) (*browser.Session, error)
}

// SearchLogSink records search attempts
type SearchLogSink interface {
	// Append durably writes one entry
	Append(ctx context.Context, entry models.SearchLogEntry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]models.SearchLogEntry, error)

	// Health returns sink health status
	Health() map[string]interface{}

	// Close releases the underlying connection
	Close() error
}

// CaptchaServiceInterface defines the interface for CAPTCHA acquisition
type CaptchaServiceInterface interface {
	// Acquire loads the portal and returns its current CAPTCHA image.
	// Errors are *CaptchaError.
	Acquire(ctx context.Context) (*models.CaptchaChallenge, error)

	// GetStats returns acquisition counters
	GetStats() models.CaptchaMetrics
}

// SearchServiceInterface defines the interface for case searches
type SearchServiceInterface interface {
	// Execute runs one search and always returns exactly one outcome
	Execute(ctx context.Context, query models.SearchQuery) models.SearchOutcome

	// GetStats returns search counters
	GetStats() models.SearchMetrics
}

// SessionStoreInterface defines the per-visitor key-value store
type SessionStoreInterface interface {
	// Get retrieves a value; ok is false when the key is absent or expired
	Get(ctx context.Context, sessionID, key string) (string, bool, error)

	// Put stores a value, last write wins
	Put(ctx context.Context, sessionID, key, value string) error

	// Delete removes a value
	Delete(ctx context.Context, sessionID, key string) error

	// PutOutcome stores a search outcome under result_data and error_data
	PutOutcome(ctx context.Context, sessionID string, outcome models.SearchOutcome) error

	// GetOutcome reads back what PutOutcome stored
	GetOutcome(ctx context.Context, sessionID string) (*models.CaseResult, string, error)

	// Health returns store health status
	Health() map[string]interface{}
}

// ReportRendererInterface turns a result into a document
type ReportRendererInterface interface {
	// Render returns PDF bytes; ErrNoResult for a nil result
	Render(result *models.CaseResult) ([]byte, error)
}
