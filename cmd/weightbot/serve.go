package main

import (
	"log/slog"

	"github.com/Veraticus/weightbot/internal/api"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the estimation HTTP API",
		Long: `Serve the HTTP API:

  GET  /health
  POST /api/v1/estimate
  POST /api/v1/classify
  POST /api/v1/feedback
  GET  /api/v1/feedback
  GET  /api/v1/feedback/deltas`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	cmd.Flags().Bool("debug", false, "run gin in debug mode")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := openEstimationStore(ctx, cfg)
	defer func() { _ = store.Close() }()

	server := api.NewServer(newPipeline(cfg), store, slog.Default(), api.Options{
		Version:        version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		Burst:          cfg.Server.Burst,
	})

	return server.Run(ctx, cfg.Server.Addr())
}
