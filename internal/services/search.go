package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/browser"
	"github.com/nexconsult/case-fetcher/internal/models"
)

// User-facing search failure messages
const (
	MsgPageLoadTimeout = "Page load timed out. Try again."
	MsgNoData          = "No case details were found on the result page."
	msgUnexpected      = "Something went wrong: %v"
)

const defaultLogTimeout = 5 * time.Second

// CaseSearchExecutor fills and submits the portal's search form in a fresh
// browser session and scrapes whatever page comes back.
type CaseSearchExecutor struct {
	sessions SessionAcquirer
	portal   Portal
	scraper  *ResultScraper
	sink     SearchLogSink
	logger   *logrus.Logger

	logTimeout time.Duration

	total     atomic.Int64
	succeeded atomic.Int64
	mu        sync.Mutex
	failed    map[models.FailureKind]int64
}

// NewCaseSearchExecutor creates a new search executor. sink may be nil.
func NewCaseSearchExecutor(sessions SessionAcquirer, portal Portal, scraper *ResultScraper, sink SearchLogSink, logger *logrus.Logger) *CaseSearchExecutor {
	return &CaseSearchExecutor{
		sessions:   sessions,
		portal:     portal,
		scraper:    scraper,
		sink:       sink,
		logger:     logger,
		logTimeout: defaultLogTimeout,
		failed:     make(map[models.FailureKind]int64),
	}
}

// Execute runs one search. It always returns exactly one outcome and appends
// exactly one log entry, whatever happens in between.
func (e *CaseSearchExecutor) Execute(ctx context.Context, query models.SearchQuery) models.SearchOutcome {
	query.Normalize()
	start := time.Now()

	logger := e.logger.WithFields(logrus.Fields{
		"case_type":   query.CaseType,
		"case_number": query.CaseNumber,
		"filing_year": query.FilingYear,
	})
	logger.Info("Starting case search")

	outcome, markup := e.run(ctx, query, logger)
	e.record(ctx, query, markup, logger)
	e.count(outcome)

	fields := logrus.Fields{
		"duration":     time.Since(start),
		"markup_bytes": len(markup),
	}
	if outcome.OK() {
		logger.WithFields(fields).Info("Case search completed")
	} else {
		fields["kind"] = outcome.Kind()
		fields["reason"] = outcome.Reason()
		logger.WithFields(fields).Warn("Case search failed")
	}
	return outcome
}

// run drives the browser. The session is released before it returns.
func (e *CaseSearchExecutor) run(ctx context.Context, q models.SearchQuery, logger *logrus.Entry) (outcome models.SearchOutcome, markup string) {
	var session *browser.Session
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Case search panicked")
			outcome = models.Failure(models.FailureUnexpected, fmt.Sprintf(msgUnexpected, r))
		}
		session.Release()
	}()

	var err error
	session, err = e.sessions.Acquire(ctx)
	if err != nil {
		return automationFailure(err), ""
	}
	logger = logger.WithField("session_id", session.ID())

	if err = session.Navigate(ctx, e.portal.BaseURL); err != nil {
		return automationFailure(err), ""
	}
	if _, err = session.WaitFor(ctx, browser.ElementPresent(e.portal.FormAnchor), e.portal.PresenceTimeout); err != nil {
		return automationFailure(err), ""
	}

	fields := []struct{ selector, value string }{
		{e.portal.CaseTypeField, q.CaseType},
		{e.portal.CaseNumberField, q.CaseNumber},
		{e.portal.FilingYearField, q.FilingYear},
		{e.portal.CaptchaField, q.CaptchaSolution},
	}
	for _, f := range fields {
		if err = session.SetValue(ctx, f.selector, f.value); err != nil {
			return automationFailure(err), ""
		}
	}

	if err = session.Click(ctx, e.portal.SubmitButton); err != nil {
		return automationFailure(err), ""
	}

	settled := browser.AnyOf(
		browser.ElementPresent(e.portal.ResultContainer),
		browser.ElementPresent(e.portal.ErrorBanner),
	)
	signal, err := session.WaitFor(ctx, settled, e.portal.SettleTimeout)
	switch {
	case browser.IsTimeout(err):
		logger.WithField("timeout", e.portal.SettleTimeout).Warn("No post-submit signal, scraping the page as is")
	case err != nil:
		return automationFailure(err), ""
	default:
		logger.WithField("signal", signal).Debug("Result page settled")
	}

	markup, err = session.HTML(ctx)
	if err != nil {
		return automationFailure(err), ""
	}

	result, bannerText := e.scraper.Scrape(markup)
	switch {
	case bannerText != "":
		return models.Failure(models.FailurePortalReported, bannerText), markup
	case result == nil:
		return models.Failure(models.FailureNoData, MsgNoData), markup
	default:
		return models.Success(result), markup
	}
}

// record appends the log entry. Failures are logged and never change the outcome.
func (e *CaseSearchExecutor) record(ctx context.Context, q models.SearchQuery, markup string, logger *logrus.Entry) {
	if e.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Search log sink panicked")
		}
	}()

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.logTimeout)
	defer cancel()

	if err := e.sink.Append(logCtx, models.NewSearchLogEntry(q, markup)); err != nil {
		logger.WithError(err).Warn("Failed to record search attempt")
	}
}

func (e *CaseSearchExecutor) count(o models.SearchOutcome) {
	e.total.Add(1)
	if o.OK() {
		e.succeeded.Add(1)
		return
	}
	e.mu.Lock()
	e.failed[o.Kind()]++
	e.mu.Unlock()
}

// GetStats returns search counters
func (e *CaseSearchExecutor) GetStats() models.SearchMetrics {
	e.mu.Lock()
	failed := make(map[string]int64, len(e.failed))
	for k, v := range e.failed {
		failed[string(k)] = v
	}
	e.mu.Unlock()

	return models.SearchMetrics{
		Total:     e.total.Load(),
		Succeeded: e.succeeded.Load(),
		Failed:    failed,
	}
}

// automationFailure converts a browser fault into a user-facing outcome
func automationFailure(err error) models.SearchOutcome {
	if browser.IsTimeout(err) {
		return models.Failure(models.FailureTimeout, MsgPageLoadTimeout)
	}
	return models.Failure(models.FailureUnexpected, fmt.Sprintf(msgUnexpected, err))
}
