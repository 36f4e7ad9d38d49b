package models

import (
	"time"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Bad Request"`
	Message   string    `json:"message" example:"No result found to export"`
	Code      string    `json:"code,omitempty" example:"NO_RESULT"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/result/pdf"`
}

// CaptchaResponse is handed to the presentation layer after a CAPTCHA acquisition
type CaptchaResponse struct {
	ImageBytesBase64 string  `json:"image_bytes_base64" example:"iVBORw0KGgo..."`
	MIMEType         string  `json:"mime_type,omitempty" example:"image/png"`
	Error            *string `json:"error"`
}

// ResultResponse is the stored outcome of the last search in a session
type ResultResponse struct {
	ResultData *CaseResult `json:"result_data"`
	ErrorData  string      `json:"error_data"`
}

// HistoryResponse lists recent search attempts
type HistoryResponse struct {
	Entries []SearchLogEntry `json:"entries"`
	Count   int              `json:"count" example:"10"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health
type ServiceInfo struct {
	Status         string    `json:"status" example:"healthy"`
	LastCheck      time.Time `json:"last_check" example:"2024-01-15T10:30:00Z"`
	ResponseTimeMs int64     `json:"response_time_ms" example:"150"`
	Error          string    `json:"error,omitempty"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Searches  SearchMetrics          `json:"searches"`
	Captchas  CaptchaMetrics         `json:"captchas"`
	Browser   map[string]interface{} `json:"browser"`
	RateLimit map[string]interface{} `json:"rate_limit,omitempty"`
	System    SystemMetrics          `json:"system"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// SystemMetrics represents process metrics
type SystemMetrics struct {
	MemoryMB   float64 `json:"memory_mb" example:"42.5"`
	Goroutines int     `json:"goroutines" example:"25"`
}

// SearchMetrics counts search attempts by outcome
type SearchMetrics struct {
	Total     int64            `json:"total" example:"150"`
	Succeeded int64            `json:"succeeded" example:"120"`
	Failed    map[string]int64 `json:"failed"`
}

// CaptchaMetrics counts CAPTCHA acquisitions
type CaptchaMetrics struct {
	Total  int64 `json:"total" example:"200"`
	Failed int64 `json:"failed" example:"4"`
}
