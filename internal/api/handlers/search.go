package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/api/middleware"
	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/services"
)

// ResultPath is where form submissions are redirected after a search
const ResultPath = "/api/v1/result"

// SearchHandler runs searches and serves the per-session result
type SearchHandler struct {
	search   services.SearchServiceInterface
	sessions services.SessionStoreInterface
	reports  services.ReportRendererInterface
	logger   *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search services.SearchServiceInterface, sessions services.SessionStoreInterface, reports services.ReportRendererInterface, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		search:   search,
		sessions: sessions,
		reports:  reports,
		logger:   logger,
	}
}

// PostSearch handles a case search
// @Summary Search a case
// @Description Submit the portal form with a solved CAPTCHA and store the outcome in the session.
// @Description Form posts are redirected to the result page; JSON posts get the outcome directly.
// @Tags Search
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param query body models.SearchQuery true "Search parameters"
// @Success 200 {object} models.ResultResponse
// @Success 303 "Redirect to /api/v1/result"
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /search [post]
func (h *SearchHandler) PostSearch(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")
	sessionID := middleware.SessionID(c)

	var query models.SearchQuery
	if err := c.ShouldBind(&query); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Invalid search request")

		abortWithError(c, http.StatusBadRequest, "Bad Request", "Search parameters could not be read", "INVALID_REQUEST")
		return
	}
	query.Normalize()

	// a search cannot be stopped half way, so a client hanging up must not
	// cut it short or lose its outcome
	ctx := context.WithoutCancel(c.Request.Context())
	outcome := h.search.Execute(ctx, query)

	if err := h.sessions.PutOutcome(ctx, sessionID, outcome); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to store search outcome")

		abortWithError(c, http.StatusInternalServerError, "Internal server error", "Failed to store the search result", "SESSION_ERROR")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"ok":         outcome.OK(),
		"kind":       outcome.Kind(),
		"duration":   time.Since(start),
	}).Info("Search completed")

	if c.ContentType() == binding.MIMEPOSTForm || c.ContentType() == binding.MIMEMultipartPOSTForm {
		c.Redirect(http.StatusSeeOther, ResultPath)
		return
	}

	c.JSON(http.StatusOK, models.ResultResponse{
		ResultData: outcome.Result(),
		ErrorData:  outcome.Reason(),
	})
}

// GetResult handles reading the last outcome of the session
// @Summary Get the last result
// @Description Return the result and error stored by the session's last search
// @Tags Search
// @Produce json
// @Success 200 {object} models.ResultResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /result [get]
func (h *SearchHandler) GetResult(c *gin.Context) {
	result, errText, ok := h.loadOutcome(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.ResultResponse{
		ResultData: result,
		ErrorData:  errText,
	})
}

// DeleteResult handles clearing the session's stored outcome
// @Summary Clear the last result
// @Description Forget the result and error stored by the session's last search
// @Tags Search
// @Success 204
// @Failure 500 {object} models.ErrorResponse
// @Router /result [delete]
func (h *SearchHandler) DeleteResult(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.SessionID(c)

	for _, key := range []string{services.KeyResultData, services.KeyErrorData} {
		if err := h.sessions.Delete(ctx, sessionID, key); err != nil {
			h.logger.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"session_id": sessionID,
				"key":        key,
				"error":      err.Error(),
			}).Error("Failed to clear session result")

			abortWithError(c, http.StatusInternalServerError, "Internal server error", "Failed to clear the search result", "SESSION_ERROR")
			return
		}
	}

	c.Status(http.StatusNoContent)
}

// GetResultPDF handles exporting the session's result as a PDF
// @Summary Export the last result as PDF
// @Description Render the session's stored result as a downloadable PDF
// @Tags Search
// @Produce application/pdf
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /result/pdf [get]
func (h *SearchHandler) GetResultPDF(c *gin.Context) {
	result, _, ok := h.loadOutcome(c)
	if !ok {
		return
	}

	pdf, err := h.reports.Render(result)
	if err != nil {
		if errors.Is(err, services.ErrNoResult) {
			abortWithError(c, http.StatusBadRequest, "Bad Request", services.ErrNoResult.Error(), "NO_RESULT")
			return
		}

		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to render result PDF")

		abortWithError(c, http.StatusInternalServerError, "Internal server error", services.ErrRenderFailed.Error(), "RENDER_ERROR")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.ReportFilename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *SearchHandler) loadOutcome(c *gin.Context) (*models.CaseResult, string, bool) {
	sessionID := middleware.SessionID(c)

	result, errText, err := h.sessions.GetOutcome(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to read session result")

		abortWithError(c, http.StatusInternalServerError, "Internal server error", "Failed to read the search result", "SESSION_ERROR")
		return nil, "", false
	}

	return result, errText, true
}
