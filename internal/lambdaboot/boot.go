// Package lambdaboot holds the Lambda cold-start bootstrap helpers: AWS
// config loading, client construction, and the optional SSM limits
// override. Keeping these here leaves cmd/ingest-lambda's init() as a short
// composition.
package lambdaboot

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/exercise-tracker/video-ingest/internal/config"
	"github.com/exercise-tracker/video-ingest/internal/logging"
	"github.com/exercise-tracker/video-ingest/internal/s3util"
	"github.com/exercise-tracker/video-ingest/internal/store"
)

// StartupLog starts a cold-start summary for the named function, stamping
// the elapsed init duration.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}

// AWSClients holds the core SDK clients shared across the process.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config. Fatals on failure; without
// credentials there is nothing useful the function can do.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitDownloader creates the S3-backed downloader.
func InitDownloader(cfg aws.Config) *s3util.Downloader {
	return s3util.NewDownloader(s3.NewFromConfig(cfg))
}

// InitRecordStoreOptional creates the validation record store if the table
// env var is set. Returns nil (with a warning) when not configured; the
// handler treats a nil store as persistence disabled.
func InitRecordStoreOptional(cfg aws.Config, tableEnvVar string) *store.DynamoStore {
	tableName := os.Getenv(tableEnvVar)
	if tableName == "" {
		log.Warn().Str("envVar", tableEnvVar).Msg("Validation record table not set — persistence disabled")
		return nil
	}
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName)
}

// ssmLimits mirrors the JSON document stored under the limits parameter.
// Zero fields leave the corresponding configuration value unchanged.
type ssmLimits struct {
	MaxVideoSizeMB     int `json:"maxVideoSizeMb"`
	MinDurationSeconds int `json:"minDurationSeconds"`
	MaxDurationSeconds int `json:"maxDurationSeconds"`
}

// LoadLimitsFromSSM overlays validation limits from an SSM parameter named
// by INGEST_LIMITS_SSM_PARAM. Non-fatal: any failure keeps the existing
// configuration, so a bad parameter cannot take the pipeline down.
func LoadLimitsFromSSM(ssmClient *ssm.Client, cfg *config.Config) {
	paramName := os.Getenv("INGEST_LIMITS_SSM_PARAM")
	if paramName == "" {
		return
	}

	start := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name: &paramName,
	})
	if err != nil {
		log.Warn().Err(err).Str("param", paramName).Msg("Failed to read limits from SSM, using configured values")
		return
	}

	var limits ssmLimits
	if err := json.Unmarshal([]byte(*result.Parameter.Value), &limits); err != nil {
		log.Warn().Err(err).Str("param", paramName).Msg("Malformed limits parameter, using configured values")
		return
	}

	if limits.MaxVideoSizeMB > 0 {
		cfg.MaxVideoSizeMB = limits.MaxVideoSizeMB
	}
	if limits.MinDurationSeconds > 0 {
		cfg.MinDurationSeconds = limits.MinDurationSeconds
	}
	if limits.MaxDurationSeconds > 0 {
		cfg.MaxDurationSeconds = limits.MaxDurationSeconds
	}
	log.Debug().
		Str("param", paramName).
		Dur("elapsed", time.Since(start)).
		Int("maxVideoSizeMb", cfg.MaxVideoSizeMB).
		Int("minDurationSeconds", cfg.MinDurationSeconds).
		Int("maxDurationSeconds", cfg.MaxDurationSeconds).
		Msg("Validation limits loaded from SSM")
}
