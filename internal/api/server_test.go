package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/case-fetcher/internal/browser/browsertest"
	"github.com/nexconsult/case-fetcher/internal/config"
	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const resultMarkup = `<html><body><table class="case_details_table">
<tr><td>Petitioner</td><td>Jane Doe</td></tr>
<tr><td>Respondent</td><td>State of Delhi</td></tr>
</table></body></html>`

func portalDriver() *browsertest.Driver {
	p := services.DefaultPortal()
	d := browsertest.NewDriver(map[string]*browsertest.Element{
		p.CaptchaImage:    {Attrs: map[string]string{"src": "data:image/png;base64,AAAA"}},
		p.FormAnchor:      {},
		p.CaseTypeField:   {},
		p.CaseNumberField: {},
		p.FilingYearField: {},
		p.CaptchaField:    {},
		p.SubmitButton:    {},
	})
	d.OnClick = func(d *browsertest.Driver, _ string) {
		d.Markup = resultMarkup
		d.SetElement(p.ResultContainer, &browsertest.Element{})
	}
	return d
}

func newTestServer(t *testing.T, adminToken string) *Server {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Browser.PollInterval = 5 * time.Millisecond
	cfg.LogSink = config.LogSinkConfig{Driver: config.SinkSQLite, DSN: filepath.Join(t.TempDir(), "search.db")}
	cfg.Security.AdminToken = adminToken

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	container, err := services.NewContainer(cfg, logger,
		services.WithoutRedis(),
		services.WithLauncher(browsertest.NewLauncher(portalDriver())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return NewServer(cfg, logger, container)
}

func (s *Server) serve(req *http.Request, prev *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	if prev != nil {
		for _, c := range prev.Result().Cookies() {
			req.AddCookie(c)
		}
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestServer_CaptchaSearchExportAndHistory(t *testing.T) {
	s := newTestServer(t, "")

	captcha := s.serve(httptest.NewRequest(http.MethodGet, "/api/v1/captcha", nil), nil)
	require.Equal(t, http.StatusOK, captcha.Code, captcha.Body.String())
	var challenge models.CaptchaResponse
	require.NoError(t, json.Unmarshal(captcha.Body.Bytes(), &challenge))
	assert.Equal(t, "AAAA", challenge.ImageBytesBase64)
	assert.Nil(t, challenge.Error)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search",
		strings.NewReader(`{"case_type":"CRL.A.","case_number":"1234","filing_year":"2023","captcha":"x7k2p"}`))
	req.Header.Set("Content-Type", "application/json")
	search := s.serve(req, captcha)
	require.Equal(t, http.StatusOK, search.Code, search.Body.String())
	var outcome models.ResultResponse
	require.NoError(t, json.Unmarshal(search.Body.Bytes(), &outcome))
	require.NotNil(t, outcome.ResultData)
	assert.Equal(t, "Jane Doe", *outcome.ResultData.Petitioner)
	assert.Equal(t, "State of Delhi", *outcome.ResultData.Respondent)
	assert.Empty(t, outcome.ErrorData)

	pdf := s.serve(httptest.NewRequest(http.MethodGet, "/api/v1/result/pdf", nil), captcha)
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.True(t, bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF-")))

	history := s.serve(httptest.NewRequest(http.MethodGet, "/api/v1/history", nil), nil)
	require.Equal(t, http.StatusOK, history.Code)
	var entries models.HistoryResponse
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &entries))
	require.Equal(t, 1, entries.Count)
	assert.Equal(t, "1234", entries.Entries[0].CaseNumber)
	assert.Empty(t, entries.Entries[0].RawPageMarkup)
}

func TestServer_AdminRoutesNeedToken(t *testing.T) {
	s := newTestServer(t, "s3cret")

	for _, path := range []string{"/metrics", "/api/v1/history", "/api/v1/browser/stats"} {
		w := s.serve(httptest.NewRequest(http.MethodGet, path, nil), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Admin-Token", "s3cret")
		assert.Equal(t, http.StatusOK, s.serve(req, nil).Code, path)
	}
}

func TestServer_HealthAndFallbacks(t *testing.T) {
	s := newTestServer(t, "")

	assert.Equal(t, http.StatusOK, s.serve(httptest.NewRequest(http.MethodGet, "/health/live", nil), nil).Code)
	assert.Equal(t, http.StatusOK, s.serve(httptest.NewRequest(http.MethodGet, "/health/ready", nil), nil).Code)

	health := s.serve(httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	require.Equal(t, http.StatusOK, health.Code)
	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(health.Body.Bytes(), &body))
	assert.Contains(t, body.Services, "browser")
	assert.Contains(t, body.Services, "search_log")
	assert.Contains(t, body.Services, "sessions")

	notFound := s.serve(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil), nil)
	assert.Equal(t, http.StatusNotFound, notFound.Code)

	wrongMethod := s.serve(httptest.NewRequest(http.MethodPut, "/api/v1/captcha", nil), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.Code)

	root := s.serve(httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusMovedPermanently, root.Code)
	assert.Equal(t, "/swagger/index.html", root.Header().Get("Location"))

	assert.NotEmpty(t, health.Header().Get("X-Request-ID"))
}
