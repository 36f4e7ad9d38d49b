package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/nexconsult/case-fetcher/internal/api"
	"github.com/nexconsult/case-fetcher/internal/config"
	"github.com/nexconsult/case-fetcher/internal/logger"
	"github.com/nexconsult/case-fetcher/internal/services"

	// Import docs for Swagger
	_ "github.com/nexconsult/case-fetcher/docs"
)

// @title Case Fetcher API
// @version 1.0
// @description Looks up court case details on the eCourts portal with a human-solved CAPTCHA

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting case fetcher API server...")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceContainer, err := services.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}
	defer serviceContainer.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := api.NewServer(cfg, logger, serviceContainer).Run(ctx); err != nil {
		logger.Errorf("Server stopped: %v", err)
	}
}
