package services

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/models"
)

// Report errors. Their text is shown to users as is.
var (
	ErrNoResult     = errors.New("No result found to export")
	ErrRenderFailed = errors.New("Failed to generate PDF")
)

// ReportFilename is the download name of rendered reports
const ReportFilename = "case_result.pdf"

const notAvailable = "Not available"

// ReportRenderer renders a CaseResult as a one-page PDF
type ReportRenderer struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewReportRenderer creates a new report renderer
func NewReportRenderer(logger *logrus.Logger) *ReportRenderer {
	return &ReportRenderer{logger: logger, now: time.Now}
}

// Render returns the PDF bytes. A nil result fails with ErrNoResult before
// any rendering happens; generation faults wrap ErrRenderFailed.
func (r *ReportRenderer) Render(result *models.CaseResult) (out []byte, err error) {
	if result == nil {
		return nil, ErrNoResult
	}

	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrRenderFailed, rec)
		}
		if err != nil {
			r.logger.WithError(err).Error("PDF rendering failed")
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Case Result", true)
	pdf.SetCreator("casefetch", true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Case Result", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, "Generated "+r.now().UTC().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetTextColor(0, 0, 0)

	rows := []struct {
		label string
		value *string
	}{
		{"Petitioner", result.Petitioner},
		{"Respondent", result.Respondent},
		{"Next Date of Hearing", result.NextHearingDate},
	}

	const labelW, valueW, lineH = 55.0, 115.0, 8.0
	pdf.SetFillColor(235, 238, 243)
	for _, row := range rows {
		value := notAvailable
		if row.value != nil {
			value = *row.value
		}
		value = tr(value)

		h := lineH * float64(valueLines(pdf, value, valueW-2))

		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(labelW, h, row.label, "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(valueW, lineH, value, "1", "L", false)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, lineH, "Judgment", "1", 0, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if result.JudgmentPDFURL != nil {
		pdf.SetTextColor(20, 70, 160)
		pdf.CellFormat(valueW, lineH, "Open judgment PDF", "1", 1, "L", false, 0, *result.JudgmentPDFURL)
		pdf.SetTextColor(0, 0, 0)
	} else {
		pdf.CellFormat(valueW, lineH, notAvailable, "1", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// valueLines counts the lines value wraps to in a column of width w, measured
// in the font the value is drawn with.
func valueLines(pdf *fpdf.Fpdf, value string, w float64) int {
	pdf.SetFont("Helvetica", "", 11)
	return max(len(pdf.SplitLines([]byte(value), w)), 1)
}
