package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/api/middleware"
	"github.com/nexconsult/case-fetcher/internal/models"
	"github.com/nexconsult/case-fetcher/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeCaptcha struct {
	challenge *models.CaptchaChallenge
	err       error
}

func (f *fakeCaptcha) Acquire(context.Context) (*models.CaptchaChallenge, error) {
	return f.challenge, f.err
}

func (f *fakeCaptcha) GetStats() models.CaptchaMetrics {
	return models.CaptchaMetrics{Total: 3, Failed: 1}
}

type fakeSearch struct {
	mu      sync.Mutex
	outcome models.SearchOutcome
	queries []models.SearchQuery
	ctxErrs []error
}

func (f *fakeSearch) Execute(ctx context.Context, q models.SearchQuery) models.SearchOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.outcome
}

func (f *fakeSearch) GetStats() models.SearchMetrics {
	return models.SearchMetrics{Total: 2, Succeeded: 1, Failed: map[string]int64{"timeout": 1}}
}

type fakeSink struct {
	entries []models.SearchLogEntry
	err     error
	limit   int
}

func (f *fakeSink) Append(_ context.Context, e models.SearchLogEntry) error {
	f.entries = append(f.entries, e)
	return f.err
}

func (f *fakeSink) Recent(_ context.Context, limit int) ([]models.SearchLogEntry, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeSink) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy"}
}

func (f *fakeSink) Close() error { return nil }

type fixture struct {
	router   *gin.Engine
	captcha  *fakeCaptcha
	search   *fakeSearch
	sink     *fakeSink
	sessions *services.SessionStore
}

func newFixture() *fixture {
	f := &fixture{
		captcha:  &fakeCaptcha{},
		search:   &fakeSearch{},
		sink:     &fakeSink{},
		sessions: services.NewSessionStore(nil, time.Minute, quietLogger()),
	}

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Session(time.Minute, false))

	captcha := NewCaptchaHandler(f.captcha, quietLogger())
	v1.GET("/captcha", captcha.GetCaptcha)

	search := NewSearchHandler(f.search, f.sessions, services.NewReportRenderer(quietLogger()), quietLogger())
	v1.POST("/search", search.PostSearch)
	v1.GET("/result", search.GetResult)
	v1.DELETE("/result", search.DeleteResult)
	v1.GET("/result/pdf", search.GetResultPDF)

	history := NewHistoryHandler(f.sink, quietLogger())
	v1.GET("/history", history.GetHistory)

	f.router = r
	return f
}

// do sends a request, carrying over the session cookie from a previous response when given
func (f *fixture) do(req *http.Request, prev *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	if prev != nil {
		for _, c := range prev.Result().Cookies() {
			req.AddCookie(c)
		}
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var errBoom = errors.New("boom")
