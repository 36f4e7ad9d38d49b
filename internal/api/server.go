package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nexconsult/case-fetcher/internal/api/handlers"
	"github.com/nexconsult/case-fetcher/internal/api/middleware"
	"github.com/nexconsult/case-fetcher/internal/config"
	"github.com/nexconsult/case-fetcher/internal/services"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	RateLimiter *middleware.RateLimiter
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:      cfg,
		logger:      logger,
		services:    services,
		RateLimiter: middleware.NewRateLimiter(cfg.Security.RateLimit),
	}

	server.setupRouter()
	return server
}

// shutdownTimeout bounds how long in-flight searches get to finish
const shutdownTimeout = 30 * time.Second

// Run serves HTTP until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.RateLimiter.StartCleanup(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.Router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"port":        s.config.Server.Port,
			"environment": s.config.Server.Environment,
			"portal":      s.config.Portal.BaseURL,
		}).Info("Server starting...")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}

func (s *Server) setupRouter() {
	s.Router = gin.New()
	s.Router.HandleMethodNotAllowed = true

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	admin := middleware.AdminAuth(s.config.Security.AdminToken)
	limited := s.RateLimiter.Middleware()

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	metricsHandler := handlers.NewMetricsHandler(s.services.Captcha, s.services.Search, s.services.Browser, s.RateLimiter, s.logger)
	s.Router.GET("/metrics", admin, metricsHandler.GetMetrics)

	if !s.config.IsProduction() {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	v1 := s.Router.Group("/api/v1")
	v1.Use(middleware.Session(s.config.Redis.SessionTTL, s.config.Security.CookieSecure))
	{
		captchaHandler := handlers.NewCaptchaHandler(s.services.Captcha, s.logger)
		v1.GET("/captcha", limited, captchaHandler.GetCaptcha)

		searchHandler := handlers.NewSearchHandler(s.services.Search, s.services.Sessions, s.services.Reports, s.logger)
		v1.POST("/search", limited, searchHandler.PostSearch)
		v1.GET("/result", searchHandler.GetResult)
		v1.DELETE("/result", searchHandler.DeleteResult)
		v1.GET("/result/pdf", searchHandler.GetResultPDF)

		historyHandler := handlers.NewHistoryHandler(s.services.LogSink, s.logger)
		v1.GET("/history", admin, historyHandler.GetHistory)

		browserHandler := handlers.NewBrowserHandler(s.services.Browser, s.logger)
		v1.GET("/browser/stats", admin, browserHandler.GetStats)
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}
