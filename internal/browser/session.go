package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Manager hands out isolated browser sessions. Sessions are never reused;
// the manager only bounds how many are live at once.
type Manager struct {
	config   Config
	launcher Launcher
	logger   *logrus.Logger
	slots    chan struct{}
	closed   atomic.Bool

	live     atomic.Int64
	launched atomic.Int64
	failed   atomic.Int64
}

// NewManager creates a new session manager
func NewManager(cfg Config, launcher Launcher, logger *logrus.Logger) *Manager {
	cfg = cfg.withDefaults()
	if launcher == nil {
		launcher = NewChromeLauncher()
	}

	logger.WithFields(logrus.Fields{
		"max_sessions": cfg.MaxSessions,
		"headless":     cfg.Headless,
		"window":       fmt.Sprintf("%dx%d", cfg.WindowWidth, cfg.WindowHeight),
	}).Info("Browser session manager initialized")

	return &Manager{
		config:   cfg,
		launcher: launcher,
		logger:   logger,
		slots:    make(chan struct{}, cfg.MaxSessions),
	}
}

// Config returns the configuration sessions are launched with
func (m *Manager) Config() Config {
	return m.config
}

// Acquire launches a fresh browser session. Waiting for a free slot and
// starting the browser share one LaunchTimeout budget.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	if m.closed.Load() {
		return nil, errors.New("browser manager is closed")
	}

	launchCtx, cancel := context.WithTimeout(ctx, m.config.LaunchTimeout)
	defer cancel()

	select {
	case m.slots <- struct{}{}:
	case <-launchCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("waiting for a browser slot: %w", ctx.Err())
		}
		return nil, &TimeoutError{Condition: ConditionLaunch, Timeout: m.config.LaunchTimeout}
	}

	id := uuid.New().String()
	logger := m.logger.WithField("session_id", id)

	start := time.Now()
	driver, err := m.launch(launchCtx, logger)
	if err != nil {
		<-m.slots
		m.failed.Add(1)
		logger.WithError(err).Error("Failed to launch browser")
		if ctx.Err() == nil && launchCtx.Err() != nil {
			return nil, &TimeoutError{Condition: ConditionLaunch, Timeout: m.config.LaunchTimeout}
		}
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	m.live.Add(1)
	m.launched.Add(1)
	logger.WithField("duration", time.Since(start)).Debug("Browser session started")

	return &Session{
		id:      id,
		driver:  driver,
		config:  m.config,
		logger:  logger,
		onClose: m.releaseSlot,
	}, nil
}

type launchResult struct {
	driver Driver
	err    error
}

// launch runs the launcher but stops waiting once ctx ends. A driver that
// arrives after that is closed without ever being handed out.
func (m *Manager) launch(ctx context.Context, logger *logrus.Entry) (Driver, error) {
	done := make(chan launchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- launchResult{err: fmt.Errorf("launcher panicked: %v", r)}
			}
		}()
		d, err := m.launcher.Launch(ctx, m.config)
		done <- launchResult{driver: d, err: err}
	}()

	select {
	case r := <-done:
		return r.driver, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.driver != nil {
				if err := r.driver.Close(); err != nil {
					logger.WithError(err).Debug("Ignoring late browser teardown error")
				}
			}
		}()
		return nil, ctx.Err()
	}
}

func (m *Manager) releaseSlot() {
	m.live.Add(-1)
	<-m.slots
}

// GetStats returns session statistics
func (m *Manager) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"live_sessions":   int(m.live.Load()),
		"max_sessions":    m.config.MaxSessions,
		"launched_total":  m.launched.Load(),
		"failed_launches": m.failed.Load(),
	}
}

// Health returns session manager health status
func (m *Manager) Health() map[string]interface{} {
	stats := m.GetStats()

	status := "healthy"
	if m.closed.Load() {
		status = "unhealthy"
	} else if stats["live_sessions"].(int) >= m.config.MaxSessions {
		status = "degraded"
	}

	return map[string]interface{}{
		"status": status,
		"stats":  stats,
	}
}

// Close stops handing out new sessions. Live sessions are released by their owners.
func (m *Manager) Close() error {
	m.closed.Store(true)
	m.logger.Info("Browser session manager closed")
	return nil
}

// Session is a handle on one live browser process
type Session struct {
	id      string
	driver  Driver
	config  Config
	logger  *logrus.Entry
	onClose func()
	once    sync.Once
}

// NewSession wraps an already launched driver. Release closes the driver;
// it does not take part in any manager's accounting.
func NewSession(driver Driver, cfg Config, logger *logrus.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		driver: driver,
		config: cfg.withDefaults(),
		logger: logger.WithField("session_id", id),
	}
}

// ID returns the session handle id
func (s *Session) ID() string {
	return s.id
}

// Navigate loads url, bounded by the page load timeout
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.WithField("url", url).Debug("Navigating")

	navCtx, cancel := context.WithTimeout(ctx, s.config.PageLoadTimeout)
	defer cancel()

	if err := s.driver.Navigate(navCtx, url); err != nil {
		if s.deadlineHit(ctx, navCtx, err) {
			return &TimeoutError{Condition: ConditionPageLoad, Timeout: s.config.PageLoadTimeout}
		}
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Location returns the current page URL
func (s *Session) Location(ctx context.Context) (string, error) {
	var location string
	err := s.action(ctx, "read location", func(ctx context.Context) error {
		var err error
		location, err = s.driver.Location(ctx)
		return err
	})
	return location, err
}

// WaitFor polls cond until it holds or timeout elapses. Stale element errors
// during polling are retried; any other error ends the wait.
func (s *Session) WaitFor(ctx context.Context, cond Condition, timeout time.Duration) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	logger := s.logger.WithField("condition", cond.Name)
	polls := 0
	for {
		polls++
		value, ok, err := cond.Check(waitCtx, s.driver)
		switch {
		case errors.Is(err, ErrStaleElement):
			logger.WithField("poll", polls).Debug("Stale element while polling, retrying")
		case err != nil:
			if s.deadlineHit(ctx, waitCtx, err) {
				return "", &TimeoutError{Condition: cond.Name, Timeout: timeout}
			}
			return "", fmt.Errorf("wait for %s: %w", cond.Name, err)
		case ok:
			logger.WithField("polls", polls).Debug("Condition satisfied")
			return value, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &TimeoutError{Condition: cond.Name, Timeout: timeout}
		case <-ticker.C:
		}
	}
}

// SetValue assigns value to the first element matching selector
func (s *Session) SetValue(ctx context.Context, selector, value string) error {
	return s.action(ctx, "set value "+selector, func(ctx context.Context) error {
		return s.driver.SetValue(ctx, selector, value)
	})
}

// Click clicks the first element matching selector
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.action(ctx, "click "+selector, func(ctx context.Context) error {
		return s.driver.Click(ctx, selector)
	})
}

// HTML returns the full page markup
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.action(ctx, "read page markup", func(ctx context.Context) error {
		var err error
		html, err = s.driver.HTML(ctx)
		return err
	})
	return html, err
}

// Release tears the browser down. It is idempotent, safe on a nil or
// partially initialised session, and never returns teardown errors.
func (s *Session) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.driver != nil {
			if err := s.driver.Close(); err != nil {
				s.logger.WithError(err).Debug("Ignoring browser teardown error")
			}
		}
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Browser session released")
	})
}

// action runs fn bounded by the action timeout
func (s *Session) action(ctx context.Context, name string, fn func(context.Context) error) error {
	actCtx, cancel := context.WithTimeout(ctx, s.config.ActionTimeout)
	defer cancel()

	if err := fn(actCtx); err != nil {
		if s.deadlineHit(ctx, actCtx, err) {
			return &TimeoutError{Condition: name, Timeout: s.config.ActionTimeout}
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// deadlineHit reports whether err came from the inner bound rather than the caller
func (s *Session) deadlineHit(parent, inner context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(inner.Err(), context.DeadlineExceeded)
}
