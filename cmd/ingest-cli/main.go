// Package main provides a local harness for the video ingestion pipeline.
//
// It runs the same validation logic the Lambda runs, against local files or
// a recorded queue event, without any AWS infrastructure. Useful for
// checking a video before upload and for debugging rejected uploads.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/exercise-tracker/video-ingest/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "ingest-cli",
	Short: "Validate exercise videos locally",
	Long: `ingest-cli runs exercise video validation against local files using the
same rules the ingestion Lambda applies: size and extension gates, duration
bounds, and a playability probe that decodes the first frames.

Requires ffmpeg and ffprobe on PATH.

Examples:
  ingest-cli file workout.mp4
  ingest-cli batch --directory ./uploads --workers 4
  ingest-cli invoke --event testdata/upload-event.json
  ingest-cli config`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
