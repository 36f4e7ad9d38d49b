package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BrowserStatus is what the session manager exposes to operators.
// *browser.Manager implements it.
type BrowserStatus interface {
	GetStats() map[string]interface{}
	Health() map[string]interface{}
}

// BrowserHandler reports on browser session usage
type BrowserHandler struct {
	browser BrowserStatus
	logger  *logrus.Logger
}

// NewBrowserHandler creates a new browser handler
func NewBrowserHandler(browser BrowserStatus, logger *logrus.Logger) *BrowserHandler {
	return &BrowserHandler{
		browser: browser,
		logger:  logger,
	}
}

// GetStats handles browser session statistics request
// @Summary Get browser session statistics
// @Description Live and total browser sessions and launch failures
// @Tags Browser
// @Produce json
// @Param X-Admin-Token header string false "Admin token when configured"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} map[string]interface{}
// @Router /browser/stats [get]
func (h *BrowserHandler) GetStats(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting browser session statistics")

	health := h.browser.Health()

	httpStatus := http.StatusOK
	if statusOf(health) == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"stats":     h.browser.GetStats(),
		"health":    health,
		"timestamp": time.Now(),
	})
}
