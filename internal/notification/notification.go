// Package notification unwraps the nested event envelope delivered to the
// ingestion Lambda.
//
// Upload notifications travel S3 → SNS → SQS, so each SQS record body is an
// SNS envelope whose Message field is itself a JSON-encoded S3 event. Parse
// failures are classified by layer so a malformed outer envelope is
// distinguishable from a malformed inner S3 payload.
package notification

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
)

// Parse layers, reported by ParseError.
const (
	LayerEnvelope  = "sns_envelope"
	LayerEventList = "s3_event_list"
)

// ParseError describes a failure to unwrap one layer of the notification.
type ParseError struct {
	// Layer is LayerEnvelope or LayerEventList.
	Layer string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Layer, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageEvent is one S3 object notification extracted from the envelope.
type StorageEvent struct {
	Bucket    string
	Key       string
	SizeBytes int64
	EventName string
}

// String renders the event for log and error messages.
func (e StorageEvent) String() string {
	return fmt.Sprintf("%s s3://%s/%s (%d bytes)", e.EventName, e.Bucket, e.Key, e.SizeBytes)
}

// ParseEnvelope parses the SNS envelope out of an SQS record body.
func ParseEnvelope(body string) (*events.SNSEntity, error) {
	var envelope events.SNSEntity
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, &ParseError{Layer: LayerEnvelope, Err: err}
	}
	log.Debug().Str("messageId", envelope.MessageID).Msg("Parsed SNS envelope")
	return &envelope, nil
}

// ParseStorageEvents extracts the S3 event records embedded in an SNS
// envelope's Message field.
func ParseStorageEvents(envelope *events.SNSEntity) ([]StorageEvent, error) {
	var s3Event events.S3Event
	if err := json.Unmarshal([]byte(envelope.Message), &s3Event); err != nil {
		return nil, &ParseError{Layer: LayerEventList, Err: err}
	}

	storageEvents := make([]StorageEvent, 0, len(s3Event.Records))
	for _, rec := range s3Event.Records {
		// Keys arrive URL-encoded in S3 events; "video file.mp4" comes
		// through as "video+file.mp4".
		key := rec.S3.Object.Key
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		storageEvents = append(storageEvents, StorageEvent{
			Bucket:    rec.S3.Bucket.Name,
			Key:       key,
			SizeBytes: rec.S3.Object.Size,
			EventName: rec.EventName,
		})
	}

	log.Debug().Int("eventCount", len(storageEvents)).Msg("Parsed S3 events from SNS message")
	return storageEvents, nil
}

// FromSQSMessage unwraps both layers of one SQS record and returns the
// storage events it carries. Typically one event per message.
func FromSQSMessage(record events.SQSMessage) ([]StorageEvent, error) {
	envelope, err := ParseEnvelope(record.Body)
	if err != nil {
		return nil, err
	}
	return ParseStorageEvents(envelope)
}
