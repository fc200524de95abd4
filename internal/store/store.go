// Package store persists validation outcomes so later pipeline steps (pose
// analysis, coaching feedback) can pick them up without re-probing the
// video. The store is optional: the ingestion step runs fine without a
// table configured.
package store

import (
	"context"
	"time"
)

// RecordTTL is how long validation records are retained before DynamoDB
// expires them. Downstream steps consume records within minutes; the TTL is
// a safety net against abandoned uploads.
const RecordTTL = 30 * 24 * time.Hour

// Validation statuses.
const (
	StatusValidated = "validated"
	StatusRejected  = "rejected"
)

// ValidationRecord is the persisted outcome of one storage event.
type ValidationRecord struct {
	Bucket        string `dynamodbav:"bucket"`
	Key           string `dynamodbav:"key"`
	CorrelationID string `dynamodbav:"correlationId"`

	// Status is StatusValidated or StatusRejected; Reason carries the
	// rejection classification when rejected.
	Status string `dynamodbav:"status"`
	Reason string `dynamodbav:"reason,omitempty"`
	Detail string `dynamodbav:"detail,omitempty"`

	// Extracted metadata, present when extraction got far enough.
	DurationSeconds float64 `dynamodbav:"durationSeconds,omitempty"`
	FPS             float64 `dynamodbav:"fps,omitempty"`
	Resolution      string  `dynamodbav:"resolution,omitempty"`
	SizeBytes       int64   `dynamodbav:"sizeBytes,omitempty"`
	Codec           string  `dynamodbav:"codec,omitempty"`

	ProcessedAt string `dynamodbav:"processedAt"`
}

// ValidationStore persists validation records.
type ValidationStore interface {
	PutValidation(ctx context.Context, rec *ValidationRecord) error
}
