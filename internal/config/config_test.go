package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DefaultPortalURL, cfg.Portal.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Portal.PresenceTimeout)
	assert.Equal(t, 15*time.Second, cfg.Portal.AttributeTimeout)
	assert.Equal(t, SinkSQLite, cfg.LogSink.Driver)
	assert.Equal(t, 3, cfg.Browser.MaxSessions)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORTAL_PRESENCE_TIMEOUT", "3s")
	t.Setenv("PORTAL_SETTLE_TIMEOUT", "7")
	t.Setenv("LOG_SINK_DRIVER", "POSTGRES")
	t.Setenv("LOG_SINK_DSN", "postgres://casefetch@localhost/casefetch")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3*time.Second, cfg.Portal.PresenceTimeout)
	assert.Equal(t, 7*time.Second, cfg.Portal.SettleTimeout)
	assert.Equal(t, SinkPostgres, cfg.LogSink.Driver)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORS.AllowedOrigins)
}

func TestLoad_RejectsUnknownSink(t *testing.T) {
	t.Setenv("LOG_SINK_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_SINK_DRIVER")
}

func TestValidate_RejectsNonPositiveTimeout(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Portal.AttributeTimeout = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORTAL_ATTRIBUTE_TIMEOUT")
}

func TestValidate_RejectsRelativePortalURL(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "/ecourtindia_v6/")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORTAL_BASE_URL")
}

func TestGetEnvAsDuration_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, 4*time.Second, getEnvAsDuration("SOME_TIMEOUT", 4*time.Second))
}
