package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/services"
	"github.com/nexconsult/case-fetcher/internal/store"
)

// HistoryHandler lists recorded search attempts
type HistoryHandler struct {
	sink   services.SearchLogSink
	logger *logrus.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(sink services.SearchLogSink, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{
		sink:   sink,
		logger: logger,
	}
}

// GetHistory handles listing recent searches
// @Summary List recent searches
// @Description Return the most recent search attempts, newest first, without page markup
// @Tags History
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Param X-Admin-Token header string false "Admin token when configured"
// @Success 200 {object} models.HistoryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /history [get]
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	limit := store.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, "Bad Request", "limit must be a positive integer", "INVALID_LIMIT")
			return
		}
		limit = n
	}

	entries, err := h.sink.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to read search history")

		abortWithError(c, http.StatusInternalServerError, "Internal server error", "Failed to read search history", "HISTORY_ERROR")
		return
	}
	if entries == nil {
		entries = []models.SearchLogEntry{}
	}

	c.JSON(http.StatusOK, models.HistoryResponse{
		Entries: entries,
		Count:   len(entries),
	})
}
