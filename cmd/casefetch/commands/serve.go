package commands

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/nexconsult/case-fetcher/internal/api"

	_ "github.com/nexconsult/case-fetcher/docs"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, container, err := setup(false)
		if err != nil {
			return err
		}
		defer container.Close() //nolint:errcheck

		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		return api.NewServer(cfg, log, container).Run(cmd.Context())
	},
}
