package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/case-fetcher/internal/browser"
	"github.com/nexconsult/case-fetcher/internal/browser/browsertest"
	"github.com/nexconsult/case-fetcher/internal/models"
)

const testPortalURL = "https://portal.example/ecourtindia_v6/"

const janeDoeMarkup = `<html><body>
<div id="history_cnr">
  <table class="case_details_table">
    <tr><td>Case Type</td><td>CRL.A.</td></tr>
    <tr><td><label>Petitioner</label></td><td> Jane   Doe </td></tr>
    <tr><td>Next Date of Hearing</td><td>12-03-2025</td></tr>
  </table>
  <a href="/ecourtindia_v6/order_judgement.php?id=9">View judgment</a>
</div>
</body></html>`

// searchDriver returns a page with the search form. On submit it swaps in
// markup and, when signal is non-empty, makes that element appear.
func searchDriver(markup, signal string) *browsertest.Driver {
	p := DefaultPortal()
	d := browsertest.NewDriver(map[string]*browsertest.Element{
		p.FormAnchor:      {},
		p.CaseTypeField:   {},
		p.CaseNumberField: {},
		p.FilingYearField: {},
		p.CaptchaField:    {},
		p.SubmitButton:    {},
	})
	d.OnClick = func(d *browsertest.Driver, selector string) {
		d.Markup = markup
		if signal != "" {
			d.SetElement(signal, &browsertest.Element{})
		}
	}
	return d
}

func newTestExecutor(d *browsertest.Driver, sink SearchLogSink) (*CaseSearchExecutor, *browser.Manager) {
	m, _ := newTestManager(d)
	portal := testPortal(testPortalURL)
	scraper := NewResultScraper(portal, nil, quietLogger())
	return NewCaseSearchExecutor(m, portal, scraper, sink, quietLogger()), m
}

var janeQuery = models.SearchQuery{
	CaseType:        "  CRL.A. ",
	CaseNumber:      "1234 ",
	FilingYear:      " 2023",
	CaptchaSolution: " x7k2p ",
}

func TestExecute_Success(t *testing.T) {
	d := searchDriver(janeDoeMarkup, DefaultPortal().ResultContainer)
	sink := &memorySink{}
	e, m := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	require.True(t, outcome.OK(), outcome.Reason())
	result := outcome.Result()
	require.NotNil(t, result.Petitioner)
	assert.Equal(t, "Jane Doe", *result.Petitioner)
	assert.Nil(t, result.Respondent)
	require.NotNil(t, result.NextHearingDate)
	assert.Equal(t, "12-03-2025", *result.NextHearingDate)
	require.NotNil(t, result.JudgmentPDFURL)
	assert.Equal(t, "https://portal.example/ecourtindia_v6/order_judgement.php?id=9", *result.JudgmentPDFURL)
	assert.Empty(t, outcome.Reason())

	p := DefaultPortal()
	assert.Equal(t, "CRL.A.", d.Values[p.CaseTypeField])
	assert.Equal(t, "1234", d.Values[p.CaseNumberField])
	assert.Equal(t, "2023", d.Values[p.FilingYearField])
	assert.Equal(t, "x7k2p", d.Values[p.CaptchaField])
	assert.Equal(t, []string{p.SubmitButton}, d.Clicks)
	assert.Equal(t, []string{testPortalURL}, d.Navigations)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "CRL.A.", entries[0].CaseType)
	assert.Equal(t, "1234", entries[0].CaseNumber)
	assert.Equal(t, "2023", entries[0].FilingYear)
	assert.Equal(t, janeDoeMarkup, entries[0].RawPageMarkup)
	assert.False(t, entries[0].SearchedAt.IsZero())

	assertReleased(t, d, m)
}

func TestExecute_PortalBanner(t *testing.T) {
	markup := `<html><body><div class="alert alert-danger">
	  No case found
	</div></body></html>`
	d := searchDriver(markup, DefaultPortal().ErrorBanner)
	sink := &memorySink{}
	e, m := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	assert.False(t, outcome.OK())
	assert.Nil(t, outcome.Result())
	assert.Equal(t, models.FailurePortalReported, outcome.Kind())
	assert.Equal(t, "No case found", outcome.Reason())
	require.Len(t, sink.Entries(), 1)
	assert.Equal(t, markup, sink.Entries()[0].RawPageMarkup)
	assertReleased(t, d, m)
}

func TestExecute_PageLoadTimeout(t *testing.T) {
	d := searchDriver(janeDoeMarkup, "")
	d.BlockNavigate = true
	sink := &memorySink{}
	e, m := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	assert.Equal(t, models.FailureTimeout, outcome.Kind())
	assert.Equal(t, MsgPageLoadTimeout, outcome.Reason())
	assert.Nil(t, outcome.Result())
	require.Len(t, sink.Entries(), 1)
	assert.Equal(t, "", sink.Entries()[0].RawPageMarkup)
	assertReleased(t, d, m)
}

func TestExecute_HungBrowserLaunch(t *testing.T) {
	d := searchDriver(janeDoeMarkup, DefaultPortal().ResultContainer)
	sink := &memorySink{}
	m, launcher := newTestManager(d)
	launcher.Hang = make(chan struct{})
	t.Cleanup(func() { close(launcher.Hang) })

	portal := testPortal(testPortalURL)
	e := NewCaseSearchExecutor(m, portal, NewResultScraper(portal, nil, quietLogger()), sink, quietLogger())

	done := make(chan models.SearchOutcome, 1)
	go func() {
		done <- e.Execute(context.WithoutCancel(context.Background()), janeQuery)
	}()

	var outcome models.SearchOutcome
	select {
	case outcome = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("search did not finish while the browser launch hung")
	}

	assert.Equal(t, models.FailureTimeout, outcome.Kind())
	assert.Equal(t, MsgPageLoadTimeout, outcome.Reason())
	require.Len(t, sink.Entries(), 1)
	assert.Equal(t, "", sink.Entries()[0].RawPageMarkup)
	assert.Equal(t, 0, m.GetStats()["live_sessions"])
	assert.Empty(t, d.Navigations)
}

func TestExecute_FormNeverAppears(t *testing.T) {
	d := browsertest.NewDriver(nil)
	sink := &memorySink{}
	e, m := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	assert.Equal(t, models.FailureTimeout, outcome.Kind())
	assert.Equal(t, MsgPageLoadTimeout, outcome.Reason())
	assert.Empty(t, d.Clicks)
	require.Len(t, sink.Entries(), 1)
	assertReleased(t, d, m)
}

func TestExecute_UnexpectedFailure(t *testing.T) {
	d := searchDriver(janeDoeMarkup, "")
	d.SetValueErr = errors.New("element not interactable")
	sink := &memorySink{}
	e, m := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	assert.Equal(t, models.FailureUnexpected, outcome.Kind())
	assert.Contains(t, outcome.Reason(), "Something went wrong:")
	assert.Contains(t, outcome.Reason(), "element not interactable")
	require.Len(t, sink.Entries(), 1)
	assertReleased(t, d, m)
}

func TestExecute_NoDataIsExplicit(t *testing.T) {
	markup := `<html><body><div id="history_cnr"><p>Please try again later.</p></div></body></html>`
	d := searchDriver(markup, DefaultPortal().ResultContainer)
	sink := &memorySink{}
	e, m := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	assert.False(t, outcome.OK())
	assert.Nil(t, outcome.Result())
	assert.Equal(t, models.FailureNoData, outcome.Kind())
	assert.Equal(t, MsgNoData, outcome.Reason())
	require.Len(t, sink.Entries(), 1)
	assertReleased(t, d, m)
}

func TestExecute_SettleTimeoutStillScrapes(t *testing.T) {
	d := searchDriver(janeDoeMarkup, "")
	sink := &memorySink{}
	e, m := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	require.True(t, outcome.OK(), outcome.Reason())
	assert.Equal(t, "Jane Doe", *outcome.Result().Petitioner)
	assertReleased(t, d, m)
}

func TestExecute_LogFailureDoesNotChangeOutcome(t *testing.T) {
	d := searchDriver(janeDoeMarkup, DefaultPortal().ResultContainer)
	sink := &memorySink{err: errors.New("disk full")}
	e, _ := newTestExecutor(d, sink)

	outcome := e.Execute(context.Background(), janeQuery)

	assert.True(t, outcome.OK())
	assert.Len(t, sink.Entries(), 1)
}

func TestExecute_PanickingSinkDoesNotEscape(t *testing.T) {
	d := searchDriver(janeDoeMarkup, DefaultPortal().ResultContainer)
	e, _ := newTestExecutor(d, &memorySink{panics: true})

	var outcome models.SearchOutcome
	require.NotPanics(t, func() {
		outcome = e.Execute(context.Background(), janeQuery)
	})
	assert.True(t, outcome.OK())
}

func TestExecute_OneOutcomeAndOneEntryPerCall(t *testing.T) {
	queries := []models.SearchQuery{
		{},
		{CaseType: "   ", CaseNumber: "\t", FilingYear: "20x3", CaptchaSolution: ""},
		{CaseType: "<script>", CaseNumber: "-1", FilingYear: "99999", CaptchaSolution: "'; DROP"},
		janeQuery,
	}

	sink := &memorySink{}
	for i, q := range queries {
		d := searchDriver(janeDoeMarkup, DefaultPortal().ResultContainer)
		e, m := newTestExecutor(d, sink)

		outcome := e.Execute(context.Background(), q)

		assert.True(t, outcome.OK() != (outcome.Reason() != ""), "outcome must be exactly one of result or failure")
		assert.Len(t, sink.Entries(), i+1)
		assertReleased(t, d, m)
	}
}

func TestExecute_WithoutSink(t *testing.T) {
	d := searchDriver(janeDoeMarkup, DefaultPortal().ResultContainer)
	e, m := newTestExecutor(d, nil)

	outcome := e.Execute(context.Background(), janeQuery)
	assert.True(t, outcome.OK())
	assertReleased(t, d, m)
}

func TestExecute_Stats(t *testing.T) {
	sink := &memorySink{}

	ok := searchDriver(janeDoeMarkup, DefaultPortal().ResultContainer)
	m, launcher := newTestManager(ok)
	portal := testPortal(testPortalURL)
	e := NewCaseSearchExecutor(m, portal, NewResultScraper(portal, nil, quietLogger()), sink, quietLogger())

	e.Execute(context.Background(), janeQuery)

	launcher.Driver = browsertest.NewDriver(nil)
	e.Execute(context.Background(), janeQuery)

	stats := e.GetStats()
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Failed[string(models.FailureTimeout)])
}
