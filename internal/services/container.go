package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/case-fetcher/internal/browser"
	"github.com/nexconsult/case-fetcher/internal/config"
	"github.com/nexconsult/case-fetcher/internal/store"
)

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	cancel      context.CancelFunc

	Browser  *browser.Manager
	LogSink  SearchLogSink
	Sessions SessionStoreInterface
	Captcha  CaptchaServiceInterface
	Search   SearchServiceInterface
	Reports  ReportRendererInterface
}

// Option customises a Container before its services are built
type Option func(*containerOptions)

type containerOptions struct {
	launcher browser.Launcher
	sink     SearchLogSink
	noRedis  bool
}

// WithLauncher replaces the Chrome launcher, e.g. with a scripted fake
func WithLauncher(l browser.Launcher) Option {
	return func(o *containerOptions) { o.launcher = l }
}

// WithLogSink uses sink instead of opening the configured one
func WithLogSink(sink SearchLogSink) Option {
	return func(o *containerOptions) { o.sink = sink }
}

// WithoutRedis skips Redis and keeps sessions in memory
func WithoutRedis() Option {
	return func(o *containerOptions) { o.noRedis = true }
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger, opts ...Option) (*Container, error) {
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	container := &Container{
		config: cfg,
		logger: logger,
		cancel: cancel,
	}

	if !o.noRedis {
		container.initRedis(ctx)
	}

	if err := container.initServices(ctx, o); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}

// initRedis initializes the Redis client; without Redis sessions live in memory
func (c *Container) initRedis(ctx context.Context) {
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, c.config.Redis.DialTimeout+time.Second)
	defer cancel()
	if err := c.redisClient.Ping(pingCtx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, keeping sessions in memory")
		c.redisClient.Close() //nolint:errcheck
		c.redisClient = nil
		return
	}
	c.logger.Info("Redis connection established")
}

// initServices initializes all services
func (c *Container) initServices(ctx context.Context, o containerOptions) error {
	sessionStore := NewSessionStore(c.redisClient, c.config.Redis.SessionTTL, c.logger)
	if c.redisClient == nil {
		sessionStore.StartCleanupRoutine(ctx, 5*time.Minute)
	}
	c.Sessions = sessionStore

	c.LogSink = o.sink
	if c.LogSink == nil {
		sink, err := store.Open(ctx, c.config.LogSink)
		if err != nil {
			return fmt.Errorf("failed to open search log: %w", err)
		}
		c.LogSink = sink
		c.logger.WithField("driver", c.config.LogSink.Driver).Info("Search log opened")
	}

	browserCfg := BrowserConfigFrom(c.config)
	c.Browser = browser.NewManager(browserCfg, o.launcher, c.logger)

	portal := PortalFromConfig(c.config.Portal)
	c.Captcha = NewCaptchaAcquirer(c.Browser, portal, browserCfg.UserAgent, c.logger)
	c.Search = NewCaseSearchExecutor(c.Browser, portal, NewResultScraper(portal, nil, c.logger), c.LogSink, c.logger)
	c.Reports = NewReportRenderer(c.logger)

	return nil
}

// BrowserConfigFrom maps application settings onto the browser session config
func BrowserConfigFrom(cfg *config.Config) browser.Config {
	bc := browser.DefaultConfig()
	bc.Headless = cfg.Browser.Headless
	bc.ExecPath = cfg.Browser.ExecPath
	bc.MaxSessions = cfg.Browser.MaxSessions
	bc.PollInterval = cfg.Browser.PollInterval
	bc.LaunchTimeout = cfg.Browser.LaunchTimeout
	bc.PageLoadTimeout = cfg.Portal.PageLoadTimeout
	return bc
}

// Close closes all service connections
func (c *Container) Close() error {
	var errs []error

	c.cancel()

	if c.Browser != nil {
		if err := c.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser manager: %w", err))
		}
	}

	if c.LogSink != nil {
		if err := c.LogSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close search log: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.Sessions != nil {
		health["sessions"] = c.Sessions.Health()
	}
	if c.Browser != nil {
		health["browser"] = c.Browser.Health()
	}
	if c.LogSink != nil {
		health["search_log"] = c.LogSink.Health()
	}

	return health
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.redisClient
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
