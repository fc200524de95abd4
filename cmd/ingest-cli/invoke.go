package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/exercise-tracker/video-ingest/internal/config"
	"github.com/exercise-tracker/video-ingest/internal/ingest"
	"github.com/exercise-tracker/video-ingest/internal/lambdaboot"
	"github.com/exercise-tracker/video-ingest/internal/store"
)

var invokeEventFlag string

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Replay a recorded queue event against the full pipeline",
	Long: `Reads an SQS event fixture (the JSON the Lambda would receive) and runs
it through the complete notification → gate → download → validate sequence
using real AWS credentials from the environment. Useful for debugging a
rejected upload: copy the event from the DLQ and replay it locally.`,
	Run: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeEventFlag, "event", "e", "", "Path to an SQS event JSON file (required)")
	invokeCmd.MarkFlagRequired("event")
}

func runInvoke(cmd *cobra.Command, args []string) {
	raw, err := os.ReadFile(invokeEventFlag)
	if err != nil {
		log.Fatal().Err(err).Str("path", invokeEventFlag).Msg("Failed to read event file")
	}
	var event events.SQSEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Fatal().Err(err).Str("path", invokeEventFlag).Msg("Event file is not a valid SQS event")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	awsClients := lambdaboot.InitAWS()
	lambdaboot.LoadLimitsFromSSM(awsClients.SSM, &cfg)
	downloader := lambdaboot.InitDownloader(awsClients.Config)

	var records store.ValidationStore
	if ds := lambdaboot.InitRecordStoreOptional(awsClients.Config, "VALIDATION_TABLE_NAME"); ds != nil {
		records = ds
	}

	handler := ingest.New(cfg, downloader, newExtractor(), records)

	correlationID := "local-" + uuid.NewString()
	log.Info().
		Str("correlationId", correlationID).
		Int("records", len(event.Records)).
		Msg("Replaying queue event")

	resp, err := handler.HandleEvent(context.Background(), event, correlationID)
	if err != nil {
		log.Error().Err(err).Msg("Invocation failed — the message would return to the queue")
		os.Exit(1)
	}
	fmt.Printf("Status %d: %s\n", resp.StatusCode, resp.Body)
}
