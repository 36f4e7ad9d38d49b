package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/models"
)

// Version is reported by the health endpoints
var Version = "1.0.0"

// HealthChecker reports per-component health. *services.Container implements it.
type HealthChecker interface {
	Health() map[string]interface{}
}

// readinessCritical lists the components a search cannot run without
var readinessCritical = []string{"browser", "search_log"}

// HealthHandler handles health check requests
type HealthHandler struct {
	checker   HealthChecker
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		checker:   checker,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth handles general health check
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	start := time.Now()
	componentsHealth := h.checker.Health()
	elapsed := time.Since(start).Milliseconds()

	status := "healthy"
	response := models.HealthResponse{
		Timestamp: time.Now(),
		Version:   Version,
		Services:  make(map[string]models.ServiceInfo, len(componentsHealth)),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	for name, raw := range componentsHealth {
		info := models.ServiceInfo{
			Status:         statusOf(raw),
			LastCheck:      time.Now(),
			ResponseTimeMs: elapsed,
			Error:          errorOf(raw),
		}
		response.Services[name] = info

		switch info.Status {
		case "unhealthy":
			status = "unhealthy"
		case "degraded":
			if status == "healthy" {
				status = "degraded"
			}
		}
	}
	response.Status = status

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		h.logger.WithField("services", componentsHealth).Warn("Health check failed")
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetReadiness handles readiness probe
// @Summary Readiness check
// @Description Check if the API is ready to run searches
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	componentsHealth := h.checker.Health()

	issues := make([]string, 0)
	for _, name := range readinessCritical {
		raw, exists := componentsHealth[name]
		if !exists {
			issues = append(issues, name+" is not configured")
			continue
		}
		if statusOf(raw) == "unhealthy" {
			issues = append(issues, name+" is unhealthy")
		}
	}

	response := gin.H{
		"ready":     len(issues) == 0,
		"timestamp": time.Now(),
		"services":  componentsHealth,
	}

	httpStatus := http.StatusOK
	if len(issues) > 0 {
		response["issues"] = issues
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetLiveness handles liveness probe
// @Summary Liveness check
// @Description Check if the API is alive and responding
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"version":   Version,
	})
}

func statusOf(raw interface{}) string {
	if m, ok := raw.(map[string]interface{}); ok {
		if s, ok := m["status"].(string); ok {
			return s
		}
	}
	return "unknown"
}

func errorOf(raw interface{}) string {
	if m, ok := raw.(map[string]interface{}); ok {
		if s, ok := m["error"].(string); ok {
			return s
		}
	}
	return ""
}
