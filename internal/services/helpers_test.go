package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/browser"
	"github.com/nexconsult/case-fetcher/internal/browser/browsertest"
	"github.com/nexconsult/case-fetcher/internal/logger"
	"github.com/nexconsult/case-fetcher/internal/models"
)

func quietLogger() *logrus.Logger {
	return logger.Discard()
}

func testPortal(baseURL string) Portal {
	p := DefaultPortal()
	p.BaseURL = baseURL
	p.PresenceTimeout = 100 * time.Millisecond
	p.AttributeTimeout = 100 * time.Millisecond
	p.SettleTimeout = 50 * time.Millisecond
	p.FetchTimeout = 2 * time.Second
	return p
}

func newTestManager(d *browsertest.Driver) (*browser.Manager, *browsertest.Launcher) {
	cfg := browser.DefaultConfig()
	cfg.PollInterval = 2 * time.Millisecond
	cfg.PageLoadTimeout = 100 * time.Millisecond
	cfg.ActionTimeout = 100 * time.Millisecond
	cfg.LaunchTimeout = 100 * time.Millisecond
	cfg.MaxSessions = 1

	launcher := browsertest.NewLauncher(d)
	return browser.NewManager(cfg, launcher, quietLogger()), launcher
}

// memorySink is an in-memory SearchLogSink
type memorySink struct {
	mu      sync.Mutex
	entries []models.SearchLogEntry
	err     error
	panics  bool
}

func (s *memorySink) Append(_ context.Context, entry models.SearchLogEntry) error {
	if s.panics {
		panic("sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return s.err
}

func (s *memorySink) Recent(_ context.Context, limit int) ([]models.SearchLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.SearchLogEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		e.RawPageMarkup = ""
		out = append(out, e)
	}
	return out, nil
}

func (s *memorySink) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy", "driver": "memory"}
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) Entries() []models.SearchLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SearchLogEntry(nil), s.entries...)
}
