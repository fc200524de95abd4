package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/exercise-tracker/video-ingest/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after applying the profile defaults, the local
config file (ingest.yaml or INGEST_CONFIG_FILE), and environment variable
overrides, in that order.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		fmt.Print(cfg.Summary())
	},
}
