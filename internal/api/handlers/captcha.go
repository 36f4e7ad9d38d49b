package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/services"
)

// CaptchaHandler serves the portal's current CAPTCHA image
type CaptchaHandler struct {
	captcha services.CaptchaServiceInterface
	logger  *logrus.Logger
}

// NewCaptchaHandler creates a new CAPTCHA handler
func NewCaptchaHandler(captcha services.CaptchaServiceInterface, logger *logrus.Logger) *CaptchaHandler {
	return &CaptchaHandler{
		captcha: captcha,
		logger:  logger,
	}
}

// GetCaptcha handles CAPTCHA acquisition
// @Summary Get a CAPTCHA
// @Description Load the portal in a fresh browser and return its CAPTCHA image as base64
// @Tags Search
// @Produce json
// @Success 200 {object} models.CaptchaResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.CaptchaResponse
// @Failure 504 {object} models.CaptchaResponse
// @Router /captcha [get]
func (h *CaptchaHandler) GetCaptcha(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")

	challenge, err := h.captcha.Acquire(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		var captchaErr *services.CaptchaError
		if errors.As(err, &captchaErr) && captchaErr.Kind == models.FailureTimeout {
			status = http.StatusGatewayTimeout
		}

		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"duration":   time.Since(start),
		}).Warn("CAPTCHA acquisition failed")

		message := err.Error()
		c.JSON(status, models.CaptchaResponse{Error: &message})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"mime_type":  challenge.MIMEType,
		"duration":   time.Since(start),
	}).Info("CAPTCHA acquired")

	c.JSON(http.StatusOK, models.CaptchaResponse{
		ImageBytesBase64: challenge.Data,
		MIMEType:         challenge.MIMEType,
	})
}
