package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/case-fetcher/internal/config"
	"github.com/nexconsult/case-fetcher/internal/logger"
	"github.com/nexconsult/case-fetcher/internal/services"
)

var rootCmd = &cobra.Command{
	Use:           "casefetch",
	Short:         "casefetch looks up court case details on the eCourts portal.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var logLevel *string

func init() {
	logLevel = rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	return cfg, nil
}

// setup loads configuration and builds the service container. Interactive
// commands log as text to stderr so stdout stays machine readable.
func setup(interactive bool) (*config.Config, *logrus.Logger, *services.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	format := cfg.Log.Format
	if interactive {
		format = "text"
	}
	log := logger.NewWithOutput(cfg.Log.Level, format, os.Stderr)

	container, err := services.NewContainer(cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init services: %w", err)
	}
	return cfg, log, container, nil
}
