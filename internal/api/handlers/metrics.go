package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/services"
)

// StatsProvider exposes a component's counters
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	captcha services.CaptchaServiceInterface
	search  services.SearchServiceInterface
	browser StatsProvider
	limiter StatsProvider
	logger  *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler. limiter may be nil.
func NewMetricsHandler(captcha services.CaptchaServiceInterface, search services.SearchServiceInterface, browser, limiter StatsProvider, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		captcha: captcha,
		search:  search,
		browser: browser,
		limiter: limiter,
		logger:  logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Search and CAPTCHA counters, browser session usage and process stats
// @Tags Metrics
// @Produce json
// @Param X-Admin-Token header string false "Admin token when configured"
// @Success 200 {object} models.MetricsResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting application metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := models.MetricsResponse{
		Searches: h.search.GetStats(),
		Captchas: h.captcha.GetStats(),
		Browser:  h.browser.GetStats(),
		System: models.SystemMetrics{
			MemoryMB:   float64(m.Alloc) / 1024 / 1024,
			Goroutines: runtime.NumGoroutine(),
		},
		Timestamp: time.Now(),
	}
	if h.limiter != nil {
		response.RateLimit = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, response)
}
