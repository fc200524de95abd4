// Package main provides the Lambda entry point for the video ingestion
// trigger.
//
// The Lambda is driven by an SQS queue subscribed to the upload bucket's
// SNS topic. For each queue record, it:
//
//  1. Unwraps the SNS envelope and the S3 event list inside it
//  2. Rejects oversized or wrongly-typed uploads before any download
//  3. Downloads the video to /tmp under a correlation-scoped name
//  4. Extracts metadata (duration, fps, resolution, codec) via ffprobe
//     and checks playability by decoding the first frames
//  5. Enforces the duration bounds and writes the outcome to DynamoDB
//
// Container: ffmpeg image (ffprobe + ffmpeg required for metadata)
// Memory: 1 GB
// Timeout: 5 minutes
package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/exercise-tracker/video-ingest/internal/config"
	"github.com/exercise-tracker/video-ingest/internal/ingest"
	"github.com/exercise-tracker/video-ingest/internal/lambdaboot"
	"github.com/exercise-tracker/video-ingest/internal/logging"
	"github.com/exercise-tracker/video-ingest/internal/store"
	"github.com/exercise-tracker/video-ingest/internal/videometa"
)

var coldStart = true

// Handler assembled at cold start.
var handlerInstance *ingest.Handler

func init() {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	awsClients := lambdaboot.InitAWS()
	lambdaboot.LoadLimitsFromSSM(awsClients.SSM, &cfg)

	downloader := lambdaboot.InitDownloader(awsClients.Config)
	records := lambdaboot.InitRecordStoreOptional(awsClients.Config, "VALIDATION_TABLE_NAME")

	opener, err := videometa.NewFFmpegOpener()
	if err != nil {
		log.Fatal().Err(err).Msg("ffmpeg tooling not available")
	}
	extractor := videometa.NewExtractor(opener)

	// A typed-nil *DynamoStore must not reach the interface field.
	var recordStore store.ValidationStore
	if records != nil {
		recordStore = records
	}
	handlerInstance = ingest.New(cfg, downloader, extractor, recordStore)

	startup := lambdaboot.StartupLog("ingest-lambda", initStart).
		Feature("recordStore", records != nil).
		SSMParam("limits", logging.EnvOrDefault("INGEST_LIMITS_SSM_PARAM", "(unset)")).
		Config("maxVideoSizeMb", strconv.Itoa(cfg.MaxVideoSizeMB)).
		Config("minDurationSeconds", strconv.Itoa(cfg.MinDurationSeconds)).
		Config("maxDurationSeconds", strconv.Itoa(cfg.MaxDurationSeconds)).
		Config("acceptedExtensions", strings.Join(cfg.AcceptedExtensions, ",")).
		Config("tempDir", cfg.TempDir)
	if records != nil {
		startup.DynamoTable("validations", logging.EnvOrDefault("VALIDATION_TABLE_NAME", ""))
	}
	startup.Log()
}

func main() {
	lambda.Start(handler)
}

func handler(ctx context.Context, event events.SQSEvent) (ingest.Response, error) {
	if coldStart {
		coldStart = false
		log.Info().Str("function", "ingest-lambda").Msg("Cold start — first invocation")
	}

	correlationID := requestID(ctx)
	return handlerInstance.HandleEvent(ctx, event, correlationID)
}

// requestID returns the Lambda request id for correlation, or a fresh UUID
// when the context carries none (local harness runs).
func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
