// Package ingest implements the ingestion trigger handler: it unwraps
// upload notifications, applies pre-download gates, downloads the video,
// and runs metadata validation. Each storage event is processed
// independently and statelessly; the only state is the temp file, which is
// always removed before the handler returns.
package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/exercise-tracker/video-ingest/internal/config"
	"github.com/exercise-tracker/video-ingest/internal/metrics"
	"github.com/exercise-tracker/video-ingest/internal/notification"
	"github.com/exercise-tracker/video-ingest/internal/s3util"
	"github.com/exercise-tracker/video-ingest/internal/store"
	"github.com/exercise-tracker/video-ingest/internal/videometa"
)

// Downloader fetches an object from storage to a local path.
type Downloader interface {
	Download(ctx context.Context, bucket, key, localPath string) error
}

// Extractor produces validated metadata for a local video file.
type Extractor interface {
	Extract(path string) (*videometa.Metadata, error)
}

// Handler processes upload notifications. Construct once per process and
// share across invocations; the handler itself holds no mutable state.
type Handler struct {
	cfg        config.Config
	downloader Downloader
	extractor  Extractor
	records    store.ValidationStore // nil when no table is configured
}

// New creates a Handler. records may be nil to disable result persistence.
func New(cfg config.Config, downloader Downloader, extractor Extractor, records store.ValidationStore) *Handler {
	return &Handler{
		cfg:        cfg,
		downloader: downloader,
		extractor:  extractor,
		records:    records,
	}
}

// HandleEvent processes every record of one SQS invocation. Records are not
// atomic as a batch: the first failure propagates immediately, aborting the
// remaining records, and the message returns to the queue for redelivery
// (and eventually the DLQ).
func (h *Handler) HandleEvent(ctx context.Context, event events.SQSEvent, correlationID string) (Response, error) {
	log.Info().
		Str("correlationId", correlationID).
		Int("recordCount", len(event.Records)).
		Msg("Starting exercise video ingestion")

	processed := 0
	for _, record := range event.Records {
		if err := h.ProcessRecord(ctx, record, correlationID); err != nil {
			log.Error().Err(err).
				Str("correlationId", correlationID).
				Str("messageId", record.MessageId).
				Msg("Record processing failed")
			return Response{}, err
		}
		processed++
	}

	log.Info().
		Str("correlationId", correlationID).
		Int("recordsProcessed", processed).
		Msg("Ingestion completed")
	return successResponse(correlationID, processed), nil
}

// ProcessRecord unwraps one SQS record and processes each storage event it
// carries (typically one).
func (h *Handler) ProcessRecord(ctx context.Context, record events.SQSMessage, correlationID string) error {
	storageEvents, err := notification.FromSQSMessage(record)
	if err != nil {
		var parseErr *notification.ParseError
		reason := ReasonParseEnvelope
		if errors.As(err, &parseErr) && parseErr.Layer == notification.LayerEventList {
			reason = ReasonParseEvents
		}
		return rejectWrap(reason, err, "failed to parse upload notification")
	}

	for _, evt := range storageEvents {
		if _, err := h.ProcessStorageEvent(ctx, evt, correlationID); err != nil {
			return err
		}
	}
	return nil
}

// ProcessStorageEvent runs the full gate → download → validate → cleanup
// sequence for one storage event, emits metrics, and persists the outcome
// when a record store is configured.
func (h *Handler) ProcessStorageEvent(ctx context.Context, evt notification.StorageEvent, correlationID string) (*videometa.Metadata, error) {
	start := time.Now()
	log.Info().
		Str("correlationId", correlationID).
		Str("bucket", evt.Bucket).
		Str("key", evt.Key).
		Int64("sizeBytes", evt.SizeBytes).
		Str("eventName", evt.EventName).
		Msg("Processing storage event")

	meta, err := h.process(ctx, evt, correlationID)

	h.emitMetrics(evt, correlationID, time.Since(start), err)
	h.persistOutcome(ctx, evt, correlationID, meta, err)

	if err != nil {
		return nil, err
	}
	log.Info().
		Str("correlationId", correlationID).
		Str("key", evt.Key).
		Float64("durationSeconds", meta.DurationSeconds).
		Str("resolution", meta.Resolution).
		Dur("elapsed", time.Since(start)).
		Msg("Video validation successful")
	return meta, nil
}

func (h *Handler) process(ctx context.Context, evt notification.StorageEvent, correlationID string) (*videometa.Metadata, error) {
	// Gate 1 — reported size, checked before any transfer so oversized
	// uploads cost no bandwidth.
	sizeMB := float64(evt.SizeBytes) / 1024 / 1024
	if sizeMB > float64(h.cfg.MaxVideoSizeMB) {
		return nil, reject(ReasonTooLarge, "video file too large: %.2fMB > %dMB limit", sizeMB, h.cfg.MaxVideoSizeMB)
	}
	log.Debug().Str("correlationId", correlationID).Float64("sizeMb", sizeMB).Msg("File size gate passed")

	// Gate 2 — extension allow-list.
	if !h.cfg.AcceptsExtension(evt.Key) {
		return nil, reject(ReasonUnsupportedFormat, "unsupported video format: %s (accepted: %v)", evt.Key, h.cfg.AcceptedExtensions)
	}

	localPath, err := h.download(ctx, evt, correlationID)
	if err != nil {
		return nil, err
	}
	defer h.cleanup(localPath, correlationID)

	return h.validate(localPath)
}

// download transfers the object to the temp directory. The local name is
// namespaced by correlation id so concurrent invocations sharing one temp
// directory cannot collide.
func (h *Handler) download(ctx context.Context, evt notification.StorageEvent, correlationID string) (string, error) {
	if err := os.MkdirAll(h.cfg.TempDir, 0o755); err != nil {
		return "", rejectWrap(ReasonTransferFailed, err, "create temp directory %s", h.cfg.TempDir)
	}
	localPath := filepath.Join(h.cfg.TempDir, correlationID+"_"+filepath.Base(evt.Key))

	if err := h.downloader.Download(ctx, evt.Bucket, evt.Key, localPath); err != nil {
		// The S3 downloader removes its own partial file; this covers
		// alternative Downloader implementations.
		os.Remove(localPath)

		switch {
		case errors.Is(err, s3util.ErrObjectNotFound):
			return "", rejectWrap(ReasonNotFound, err, "object not found: s3://%s/%s", evt.Bucket, evt.Key)
		case errors.Is(err, s3util.ErrAccessDenied):
			return "", rejectWrap(ReasonAccessDenied, err, "access denied: s3://%s/%s", evt.Bucket, evt.Key)
		default:
			return "", rejectWrap(ReasonTransferFailed, err, "download failed: s3://%s/%s", evt.Bucket, evt.Key)
		}
	}

	log.Debug().Str("correlationId", correlationID).Str("localPath", localPath).Msg("Video downloaded")
	return localPath, nil
}

// validate extracts metadata and enforces the duration and readability
// policy.
func (h *Handler) validate(path string) (*videometa.Metadata, error) {
	meta, err := h.extractor.Extract(path)
	if err != nil {
		switch {
		case errors.Is(err, videometa.ErrFileNotFound):
			return nil, rejectWrap(ReasonNotFound, err, "downloaded file missing")
		case errors.Is(err, videometa.ErrCannotOpen):
			return nil, rejectWrap(ReasonUnreadable, err, "cannot open video file")
		default:
			return nil, rejectWrap(ReasonUnreadable, err, "metadata extraction failed")
		}
	}

	if meta.DurationSeconds < float64(h.cfg.MinDurationSeconds) {
		return nil, reject(ReasonTooShort, "video too short: %.2fs < %ds minimum", meta.DurationSeconds, h.cfg.MinDurationSeconds)
	}
	if meta.DurationSeconds > float64(h.cfg.MaxDurationSeconds) {
		return nil, reject(ReasonTooLong, "video too long: %.2fs > %ds maximum", meta.DurationSeconds, h.cfg.MaxDurationSeconds)
	}
	if !meta.Valid {
		return nil, reject(ReasonUnreadable, "invalid or corrupted video file")
	}
	return meta, nil
}

// cleanup removes the downloaded file. Failures are logged and swallowed so
// they can never mask the primary processing outcome.
func (h *Handler) cleanup(path, correlationID string) {
	if h.cfg.KeepTempFiles {
		log.Debug().Str("correlationId", correlationID).Str("path", path).Msg("Keeping temp file per configuration")
		return
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("correlationId", correlationID).Str("path", path).Msg("File not found for cleanup")
			return
		}
		log.Error().Err(err).Str("correlationId", correlationID).Str("path", path).Msg("Failed to clean up temp file")
		return
	}
	log.Debug().Str("correlationId", correlationID).Str("path", path).Msg("Temp file removed")
}

func (h *Handler) emitMetrics(evt notification.StorageEvent, correlationID string, elapsed time.Duration, err error) {
	rec := metrics.New("ExerciseTracker").
		Dimension("Step", "ingest-validate").
		Metric("ProcessDurationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Metric("ReportedSizeBytes", float64(evt.SizeBytes), metrics.UnitBytes).
		Property("correlationId", correlationID).
		Property("bucket", evt.Bucket).
		Property("key", evt.Key)

	if err != nil {
		rec.Count("ValidationReject").Property("reason", string(ReasonOf(err)))
	} else {
		rec.Count("ValidationSuccess")
	}
	rec.Flush()
}

// persistOutcome writes a validation record when a store is configured.
// Best-effort: a store failure is logged, never propagated.
func (h *Handler) persistOutcome(ctx context.Context, evt notification.StorageEvent, correlationID string, meta *videometa.Metadata, procErr error) {
	if h.records == nil {
		return
	}

	rec := &store.ValidationRecord{
		Bucket:        evt.Bucket,
		Key:           evt.Key,
		CorrelationID: correlationID,
		Status:        store.StatusValidated,
	}
	if procErr != nil {
		rec.Status = store.StatusRejected
		rec.Reason = string(ReasonOf(procErr))
		rec.Detail = procErr.Error()
	}
	if meta != nil {
		rec.DurationSeconds = meta.DurationSeconds
		rec.FPS = meta.FPS
		rec.Resolution = meta.Resolution
		rec.SizeBytes = meta.SizeBytes
		rec.Codec = meta.Codec
	}

	if err := h.records.PutValidation(ctx, rec); err != nil {
		log.Warn().Err(err).
			Str("correlationId", correlationID).
			Str("key", evt.Key).
			Msg("Failed to persist validation record")
	}
}
