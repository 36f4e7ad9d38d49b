package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/case-fetcher/internal/models"
)

func newTestScraper() *ResultScraper {
	return NewResultScraper(testPortal(testPortalURL), nil, quietLogger())
}

func TestScrape_PetitionerWithoutRespondent(t *testing.T) {
	markup := `<table><tr><td>Petitioner</td><td>Jane Doe</td></tr></table>`

	result, errText := newTestScraper().Scrape(markup)

	assert.Empty(t, errText)
	require.NotNil(t, result)
	require.NotNil(t, result.Petitioner)
	assert.Equal(t, "Jane Doe", *result.Petitioner)
	assert.Nil(t, result.Respondent)
	assert.Nil(t, result.NextHearingDate)
	assert.Nil(t, result.JudgmentPDFURL)
}

func TestScrape_AllFields(t *testing.T) {
	markup := `<html><body>
	<h2>Petitioner and Advocate</h2>
	<table>
	  <tr><td>1) Ramesh Kumar<br>Advocate- S. Iyer</td></tr>
	</table>
	<h2>Respondent and Advocate</h2>
	<table><tr><td>1) State of Delhi</td></tr></table>
	<table>
	  <tr><th>Next Date of Hearing</th><td><strong>14th March 2025</strong></td></tr>
	</table>
	<a href="order_judgement.php?filename=abc.pdf">Order</a>
	</body></html>`

	result, errText := newTestScraper().Scrape(markup)

	assert.Empty(t, errText)
	require.NotNil(t, result)
	assert.Equal(t, "1) Ramesh Kumar Advocate- S. Iyer", *result.Petitioner)
	assert.Equal(t, "1) State of Delhi", *result.Respondent)
	assert.Equal(t, "14th March 2025", *result.NextHearingDate)
	assert.Equal(t, "https://portal.example/ecourtindia_v6/order_judgement.php?filename=abc.pdf", *result.JudgmentPDFURL)
}

func TestScrape_BannerWins(t *testing.T) {
	markup := `<div class="alert-danger">Invalid Captcha</div>
	<table><tr><td>Petitioner</td><td>Jane Doe</td></tr></table>`

	result, errText := newTestScraper().Scrape(markup)

	assert.Nil(t, result)
	assert.Equal(t, "Invalid Captcha", errText)
}

func TestScrape_EmptyBannerIsIgnored(t *testing.T) {
	markup := `<div class="alert-danger">   </div>
	<table><tr><td>Petitioner</td><td>Jane Doe</td></tr></table>`

	result, errText := newTestScraper().Scrape(markup)

	assert.Empty(t, errText)
	require.NotNil(t, result)
	assert.Equal(t, "Jane Doe", *result.Petitioner)
}

func TestScrape_LabelWithoutCellIsAbsent(t *testing.T) {
	markup := `<p>Petitioner</p><table><tr><td>Respondent</td><td></td></tr></table>`

	result, errText := newTestScraper().Scrape(markup)

	assert.Empty(t, errText)
	// the first cell after "Petitioner" is the Respondent label cell
	require.NotNil(t, result)
	assert.Equal(t, "Respondent", *result.Petitioner)
	assert.Nil(t, result.Respondent)
}

func TestScrape_IgnoresScripts(t *testing.T) {
	markup := `<script>var label = "Petitioner";</script><table><tr><td>Jane Doe</td></tr></table>`

	result, errText := newTestScraper().Scrape(markup)

	assert.Empty(t, errText)
	assert.Nil(t, result)
}

func TestScrape_NothingFound(t *testing.T) {
	for _, markup := range []string{"", "<html>", "not html at all <<<>>>", "<table><td>"} {
		result, errText := newTestScraper().Scrape(markup)
		assert.Nil(t, result, markup)
		assert.Empty(t, errText, markup)
	}
}

func TestScrape_CustomRules(t *testing.T) {
	rules := []ExtractionRule{{
		Field:  "petitioner",
		Label:  regexp.MustCompile(`(?i)appellant`),
		Assign: func(r *models.CaseResult, v string) { r.Petitioner = &v },
	}}
	s := NewResultScraper(testPortal(testPortalURL), rules, quietLogger())

	result, _ := s.Scrape(`<table><tr><td>APPELLANT</td><td>Jane Doe</td></tr></table>`)
	require.NotNil(t, result)
	assert.Equal(t, "Jane Doe", *result.Petitioner)
}
