package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/exercise-tracker/video-ingest/internal/config"
	"github.com/exercise-tracker/video-ingest/internal/videometa"
)

var fileJSONFlag bool

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Validate a single local video file",
	Args:  cobra.ExactArgs(1),
	Run:   runFile,
}

func init() {
	fileCmd.Flags().BoolVar(&fileJSONFlag, "json", false, "Print metadata and quality report as JSON")
}

func runFile(cmd *cobra.Command, args []string) {
	path := args[0]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	extractor := newExtractor()
	meta, err := extractor.Extract(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Metadata extraction failed")
	}

	quality := meta.Quality()

	if fileJSONFlag {
		out := struct {
			Metadata *videometa.Metadata    `json:"metadata"`
			Quality  videometa.QualityReport `json:"quality"`
		}{meta, quality}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode report")
		}
	} else {
		printReport(meta, quality)
	}

	// Apply the same acceptance rules the queue-driven path enforces.
	switch {
	case !cfg.AcceptsExtension(path):
		fmt.Printf("\nREJECT: unsupported extension (accepted: %v)\n", cfg.AcceptedExtensions)
		os.Exit(1)
	case meta.SizeMB > float64(cfg.MaxVideoSizeMB):
		fmt.Printf("\nREJECT: file too large (%.1f MB > %d MB)\n", meta.SizeMB, cfg.MaxVideoSizeMB)
		os.Exit(1)
	case !meta.Valid:
		fmt.Println("\nREJECT: video is not playable")
		os.Exit(1)
	case meta.DurationSeconds < float64(cfg.MinDurationSeconds):
		fmt.Printf("\nREJECT: too short (%.1fs < %ds)\n", meta.DurationSeconds, cfg.MinDurationSeconds)
		os.Exit(1)
	case meta.DurationSeconds > float64(cfg.MaxDurationSeconds):
		fmt.Printf("\nREJECT: too long (%.1fs > %ds)\n", meta.DurationSeconds, cfg.MaxDurationSeconds)
		os.Exit(1)
	}

	fmt.Println("\nACCEPT: video passes all validation rules")
}

func printReport(meta *videometa.Metadata, quality videometa.QualityReport) {
	fmt.Printf("File:        %s\n", meta.Filename)
	fmt.Printf("Duration:    %.2fs (%d frames @ %.2f fps, %s)\n",
		meta.DurationSeconds, meta.FrameCount, meta.FPS, quality.FPSCategory)
	fmt.Printf("Resolution:  %s (%s, aspect %.2f)\n",
		meta.Resolution, quality.ResolutionCategory, meta.AspectRatio)
	fmt.Printf("Codec:       %s\n", meta.Codec)
	fmt.Printf("Size:        %.2f MB (%.1f MB/min, ~%d kbps)\n",
		meta.SizeMB, quality.FileEfficiencyMBPerMinute, quality.EstimatedBitrateKbps)
	fmt.Printf("Playable:    %t\n", meta.Valid)
}

// newExtractor builds the ffmpeg-backed extractor or exits if the tools are
// missing.
func newExtractor() *videometa.Extractor {
	opener, err := videometa.NewFFmpegOpener()
	if err != nil {
		log.Fatal().Err(err).Msg("ffmpeg and ffprobe must be installed and on PATH")
	}
	return videometa.NewExtractor(opener)
}
