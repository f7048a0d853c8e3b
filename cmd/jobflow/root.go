package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/jobflow/internal/config"
	"github.com/jonathan/jobflow/internal/logger"
)

var (
	// Used for flags.
	cfgFile string

	settings = config.New()

	appConfig *config.Config
	appLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jobflow",
	Short: "Resume and job description matching backend",
	Long: `jobflow scores resumes against job descriptions and profiles the hiring
company with a language model. Run "jobflow serve" for the HTTP API or use the
one-shot commands from a shell.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, yaml or json (default is jobflow.yaml in the current directory when present)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json-logs", "j", false, "json format for logging")

	_ = settings.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = settings.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("json-logs"))
}

// setup loads the configuration and builds the logger before any command runs.
// The server logs to stdout; one-shot commands keep stdout for their results.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(settings, cfgFile)
	if err != nil {
		return err
	}

	output := "stderr"
	if cmd == serveCmd {
		output = "stdout"
	}
	log, err := logger.NewWithOutput(cfg.Log.JSON, cfg.Log.Debug, output)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}

	appConfig = cfg
	appLogger = log
	return nil
}
