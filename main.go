package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bonus-distribution/backend/internal/config"
	"github.com/bonus-distribution/backend/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const programName = "bonusd"

func main() {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Confidential bonus distribution ledger",
		Version: router.Version(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, args)
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(managersCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up gin and the logger
// according to it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	// gin uses debug as the default mode, we use release for
	// security reasons
	gin.SetMode(cfg.GinMode)

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	output := io.Writer(os.Stdout)
	if (cfg.LogFormat == "" && gin.IsDebugging()) || cfg.LogFormat == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Str("component", programName).Logger()

	return cfg, nil
}
