package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/store"
)

func TestGetHistory_DefaultLimit(t *testing.T) {
	f := newFixture()
	f.sink.entries = []models.SearchLogEntry{
		{ID: 2, CaseType: "CRL.A.", CaseNumber: "1234", FilingYear: "2023", SearchedAt: time.Now()},
		{ID: 1, CaseType: "W.P.(C)", CaseNumber: "77", FilingYear: "2021", SearchedAt: time.Now().Add(-time.Hour)},
	}

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/history", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body models.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, int64(2), body.Entries[0].ID)
	assert.Equal(t, store.DefaultRecentLimit, f.sink.limit)
}

func TestGetHistory_ExplicitLimit(t *testing.T) {
	f := newFixture()

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=5", nil), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, f.sink.limit)
	assert.JSONEq(t, `{"entries":[],"count":0}`, w.Body.String())
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	for _, raw := range []string{"0", "-3", "ten"} {
		f := newFixture()
		w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/history?limit="+raw, nil), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestGetHistory_SinkError(t *testing.T) {
	f := newFixture()
	f.sink.err = errBoom

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/history", nil), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}
