package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Portal   PortalConfig   `json:"portal"`
	Browser  BrowserConfig  `json:"browser"`
	LogSink  LogSinkConfig  `json:"log_sink"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	SessionTTL   time.Duration `json:"session_ttl"`
}

// PortalConfig holds the remote case portal settings and wait bounds
type PortalConfig struct {
	BaseURL             string        `json:"base_url"`
	PageLoadTimeout     time.Duration `json:"page_load_timeout"`
	PresenceTimeout     time.Duration `json:"presence_timeout"`
	AttributeTimeout    time.Duration `json:"attribute_timeout"`
	SettleTimeout       time.Duration `json:"settle_timeout"`
	CaptchaFetchTimeout time.Duration `json:"captcha_fetch_timeout"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	MaxSessions   int           `json:"max_sessions"`
	Headless      bool          `json:"headless"`
	ExecPath      string        `json:"exec_path"`
	PollInterval  time.Duration `json:"poll_interval"`
	LaunchTimeout time.Duration `json:"launch_timeout"`
}

// LogSinkConfig selects where search attempts are recorded
type LogSinkConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"-"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit    RateLimitConfig `json:"rate_limit"`
	CORS         CORSConfig      `json:"cors"`
	AdminToken   string          `json:"-"`
	CookieSecure bool            `json:"cookie_secure"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Supported search log drivers
const (
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
)

// DefaultPortalURL is the eCourts services entry page
const DefaultPortalURL = "https://services.ecourts.gov.in/ecourtindia_v6/"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 120),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
			SessionTTL:   getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		},
		Portal: PortalConfig{
			BaseURL:             getEnv("PORTAL_BASE_URL", DefaultPortalURL),
			PageLoadTimeout:     getEnvAsDuration("PORTAL_PAGE_LOAD_TIMEOUT", 30*time.Second),
			PresenceTimeout:     getEnvAsDuration("PORTAL_PRESENCE_TIMEOUT", 10*time.Second),
			AttributeTimeout:    getEnvAsDuration("PORTAL_ATTRIBUTE_TIMEOUT", 15*time.Second),
			SettleTimeout:       getEnvAsDuration("PORTAL_SETTLE_TIMEOUT", 15*time.Second),
			CaptchaFetchTimeout: getEnvAsDuration("CAPTCHA_FETCH_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			MaxSessions:   getEnvAsInt("BROWSER_MAX", 3),
			Headless:      getEnvAsBool("BROWSER_HEADLESS", true),
			ExecPath:      getEnv("BROWSER_EXEC_PATH", ""),
			PollInterval:  getEnvAsDuration("BROWSER_POLL_INTERVAL", 250*time.Millisecond),
			LaunchTimeout: getEnvAsDuration("BROWSER_LAUNCH_TIMEOUT", 30*time.Second),
		},
		LogSink: LogSinkConfig{
			Driver: strings.ToLower(getEnv("LOG_SINK_DRIVER", SinkSQLite)),
			DSN:    getEnv("LOG_SINK_DSN", "casefetch.db"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 30),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 5),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			},
			AdminToken:   getEnv("ADMIN_TOKEN", ""),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail late at request time
func (c *Config) Validate() error {
	switch c.LogSink.Driver {
	case SinkSQLite, SinkPostgres:
	default:
		return fmt.Errorf("LOG_SINK_DRIVER must be %q or %q, got %q", SinkSQLite, SinkPostgres, c.LogSink.Driver)
	}
	if c.LogSink.DSN == "" {
		return fmt.Errorf("LOG_SINK_DSN is required")
	}

	u, err := url.Parse(c.Portal.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PORTAL_BASE_URL must be an absolute URL, got %q", c.Portal.BaseURL)
	}

	timeouts := map[string]time.Duration{
		"PORTAL_PAGE_LOAD_TIMEOUT": c.Portal.PageLoadTimeout,
		"PORTAL_PRESENCE_TIMEOUT":  c.Portal.PresenceTimeout,
		"PORTAL_ATTRIBUTE_TIMEOUT": c.Portal.AttributeTimeout,
		"PORTAL_SETTLE_TIMEOUT":    c.Portal.SettleTimeout,
		"CAPTCHA_FETCH_TIMEOUT":    c.Portal.CaptchaFetchTimeout,
		"BROWSER_POLL_INTERVAL":    c.Browser.PollInterval,
		"BROWSER_LAUNCH_TIMEOUT":   c.Browser.LaunchTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if c.Browser.MaxSessions < 1 {
		return fmt.Errorf("BROWSER_MAX must be at least 1, got %d", c.Browser.MaxSessions)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("15s") or bare seconds ("15")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
