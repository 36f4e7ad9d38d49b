package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/case-fetcher/internal/browser"
	"github.com/nexconsult/case-fetcher/internal/browser/browsertest"
	"github.com/nexconsult/case-fetcher/internal/config"
)

func testAppConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Portal.PresenceTimeout = 100 * time.Millisecond
	return cfg
}

func TestNewContainer_WiresServices(t *testing.T) {
	cfg := testAppConfig(t)
	c, err := NewContainer(cfg, quietLogger(),
		WithoutRedis(),
		WithLogSink(&memorySink{}),
		WithLauncher(browsertest.NewLauncher(browsertest.NewDriver(nil))),
	)
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck

	assert.NotNil(t, c.Captcha)
	assert.NotNil(t, c.Search)
	assert.NotNil(t, c.Reports)
	assert.NotNil(t, c.Sessions)
	assert.Nil(t, c.GetRedisClient())

	health := c.Health()
	assert.Contains(t, health, "sessions")
	assert.Contains(t, health, "browser")
	assert.Contains(t, health, "search_log")
}

func TestBrowserConfigFrom_KeepsFingerprint(t *testing.T) {
	cfg := testAppConfig(t)
	cfg.Browser.MaxSessions = 7
	cfg.Browser.Headless = false

	bc := BrowserConfigFrom(cfg)

	def := browser.DefaultConfig()
	assert.Equal(t, 7, bc.MaxSessions)
	assert.False(t, bc.Headless)
	assert.Equal(t, def.UserAgent, bc.UserAgent)
	assert.Equal(t, def.WindowWidth, bc.WindowWidth)
	assert.True(t, bc.NoSandbox)
	assert.Equal(t, cfg.Portal.PageLoadTimeout, bc.PageLoadTimeout)
}
