package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/jobflow/internal/server"
	"github.com/jonathan/jobflow/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes resume matching, job scraping and company research endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", server.DefaultPort, "Port to listen on")
	_ = settings.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), appConfig, appLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	var limiter server.RateLimiter
	if appConfig.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(appConfig.RateLimitConfig())
	} else {
		appLogger.Warn("rate limiting disabled")
	}

	appLogger.Info("starting jobflow",
		zap.Int("port", appConfig.Server.Port),
		zap.Bool("research", appConfig.ResearchEnabled()),
		zap.Bool("browser_fallback", appConfig.Fetch.UseBrowser))

	srv := server.New(appConfig.ServerConfig(), a.service, limiter, appLogger)
	return srv.Start()
}
