package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/exercise-tracker/video-ingest/internal/batch"
	"github.com/exercise-tracker/video-ingest/internal/config"
)

var (
	batchDirFlag     string
	batchWorkersFlag int
	batchOutputFlag  string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Validate every video in a directory",
	Long: `Walks the directory recursively, picks up files with an accepted video
extension, and validates them concurrently. A file that fails to validate
never stops the rest of the run; its error is reported alongside the
results.`,
	Run: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchDirFlag, "directory", "d", ".", "Directory to scan for videos")
	batchCmd.Flags().IntVarP(&batchWorkersFlag, "workers", "w", 0, "Concurrent workers (0 = configured default)")
	batchCmd.Flags().StringVarP(&batchOutputFlag, "output", "o", "", "Write a JSON report to this path")
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	workers := batchWorkersFlag
	if workers <= 0 {
		workers = cfg.BatchWorkers
	}

	paths, err := batch.DiscoverVideos(batchDirFlag, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("directory", batchDirFlag).Msg("Failed to scan directory")
	}
	if len(paths) == 0 {
		log.Warn().Str("directory", batchDirFlag).Msg("No videos found")
		return
	}
	log.Info().Int("files", len(paths)).Int("workers", workers).Msg("Starting batch validation")

	runner := batch.NewRunner(newExtractor(), workers)
	summary := runner.Run(context.Background(), paths)

	for _, res := range summary.Results {
		switch {
		case res.Err != nil:
			fmt.Printf("ERROR    %s: %v\n", res.Path, res.Err)
		case res.Metadata.Valid:
			fmt.Printf("VALID    %s (%.1fs, %s, %s)\n",
				res.Path, res.Metadata.DurationSeconds, res.Metadata.Resolution, res.Metadata.Codec)
		default:
			fmt.Printf("INVALID  %s (not playable)\n", res.Path)
		}
	}
	fmt.Printf("\n%d total: %d valid, %d invalid, %d failed\n",
		summary.Total, summary.Valid, summary.Invalid, summary.Failed)

	if batchOutputFlag != "" {
		if err := batch.WriteReport(batchOutputFlag, summary); err != nil {
			log.Fatal().Err(err).Str("path", batchOutputFlag).Msg("Failed to write report")
		}
		log.Info().Str("path", batchOutputFlag).Msg("Report written")
	}

	if summary.Failed > 0 || summary.Invalid > 0 {
		os.Exit(1)
	}
}
