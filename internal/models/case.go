package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// SearchQuery represents a case search request
type SearchQuery struct {
	CaseType        string `json:"case_type" form:"case_type" example:"CRL.A."`
	CaseNumber      string `json:"case_number" form:"case_number" example:"1234"`
	FilingYear      string `json:"filing_year" form:"filing_year" example:"2023"`
	CaptchaSolution string `json:"captcha" form:"captcha" example:"x7k2p"`

	// CaptchaSolutionAlias accepts the long form key; Normalize folds it
	// into CaptchaSolution.
	CaptchaSolutionAlias string `json:"captcha_solution,omitempty" form:"captcha_solution" swaggerignore:"true"`
}

// Normalize trims surrounding whitespace from every field. Values are not
// otherwise validated; the portal decides what it accepts.
func (q *SearchQuery) Normalize() {
	if strings.TrimSpace(q.CaptchaSolution) == "" {
		q.CaptchaSolution = q.CaptchaSolutionAlias
	}
	q.CaptchaSolutionAlias = ""
	q.CaseType = strings.TrimSpace(q.CaseType)
	q.CaseNumber = strings.TrimSpace(q.CaseNumber)
	q.FilingYear = strings.TrimSpace(q.FilingYear)
	q.CaptchaSolution = strings.TrimSpace(q.CaptchaSolution)
}

// EncodingBase64 is the only encoding a CaptchaChallenge carries
const EncodingBase64 = "base64"

// CaptchaChallenge is a CAPTCHA image handed to a human for solving. It is
// only valid while the portal-issued token behind it lives.
type CaptchaChallenge struct {
	Data     string `json:"image_bytes_base64"`
	Encoding string `json:"encoding" example:"base64"`
	MIMEType string `json:"mime_type,omitempty" example:"image/png"`
}

// Bytes decodes the image payload
func (c *CaptchaChallenge) Bytes() ([]byte, error) {
	if c.Encoding != "" && c.Encoding != EncodingBase64 {
		return nil, fmt.Errorf("unsupported captcha encoding %q", c.Encoding)
	}
	return base64.StdEncoding.DecodeString(c.Data)
}

// Extension returns a file extension matching the image type
func (c *CaptchaChallenge) Extension() string {
	switch c.MIMEType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".png"
	}
}

// CaseResult holds the fields scraped from a case detail page. A nil field
// means the page did not show it.
type CaseResult struct {
	Petitioner      *string `json:"petitioner" example:"Jane Doe"`
	Respondent      *string `json:"respondent" example:"State of Delhi"`
	NextHearingDate *string `json:"next_hearing_date" example:"12-03-2025"`
	JudgmentPDFURL  *string `json:"judgment_pdf_url"`
}

// IsEmpty reports whether no field was found
func (r *CaseResult) IsEmpty() bool {
	return r == nil ||
		r.Petitioner == nil && r.Respondent == nil && r.NextHearingDate == nil && r.JudgmentPDFURL == nil
}

// SearchLogEntry is the write-once record of one search attempt
type SearchLogEntry struct {
	ID            int64     `json:"id,omitempty"`
	CaseType      string    `json:"case_type"`
	CaseNumber    string    `json:"case_number"`
	FilingYear    string    `json:"filing_year"`
	RawPageMarkup string    `json:"raw_page_markup,omitempty"`
	SearchedAt    time.Time `json:"searched_at"`
}

// NewSearchLogEntry builds the log entry for query with whatever markup was captured
func NewSearchLogEntry(q SearchQuery, markup string) SearchLogEntry {
	return SearchLogEntry{
		CaseType:      q.CaseType,
		CaseNumber:    q.CaseNumber,
		FilingYear:    q.FilingYear,
		RawPageMarkup: markup,
		SearchedAt:    time.Now().UTC(),
	}
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
