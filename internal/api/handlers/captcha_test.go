package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/services"
)

func TestGetCaptcha_Success(t *testing.T) {
	f := newFixture()
	f.captcha.challenge = &models.CaptchaChallenge{Data: "AAAA", Encoding: models.EncodingBase64, MIMEType: "image/png"}

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/captcha", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "AAAA", body["image_bytes_base64"])
	assert.Equal(t, "image/png", body["mime_type"])
	assert.Contains(t, body, "error")
	assert.Nil(t, body["error"])
}

func TestGetCaptcha_Failures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "timeout",
			err:    &services.CaptchaError{Kind: models.FailureTimeout, Message: services.MsgCaptchaTimeout},
			status: http.StatusGatewayTimeout,
		},
		{
			name:   "remote fetch",
			err:    &services.CaptchaError{Kind: models.FailureRemoteFetch, Message: "Failed to download captcha image. HTTP status: 404", StatusCode: 404},
			status: http.StatusBadGateway,
		},
		{
			name:   "other",
			err:    errBoom,
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.captcha.err = tt.err

			w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/captcha", nil), nil)

			assert.Equal(t, tt.status, w.Code)
			var body models.CaptchaResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Empty(t, body.ImageBytesBase64)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.err.Error(), *body.Error)
		})
	}
}
