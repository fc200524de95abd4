package ingest

import (
	"errors"
	"fmt"
)

// Reason classifies why a video was rejected. Values are stable identifiers
// used in metrics, validation records, and log output.
type Reason string

const (
	// Input-shape failures.
	ReasonParseEnvelope Reason = "malformed_envelope"
	ReasonParseEvents   Reason = "malformed_event_payload"

	// Pre-flight rejects, raised before any download.
	ReasonTooLarge          Reason = "file_too_large"
	ReasonUnsupportedFormat Reason = "unsupported_format"

	// Transfer failures.
	ReasonNotFound       Reason = "object_not_found"
	ReasonAccessDenied   Reason = "access_denied"
	ReasonTransferFailed Reason = "transfer_failed"

	// Post-download validation rejects.
	ReasonTooShort   Reason = "video_too_short"
	ReasonTooLong    Reason = "video_too_long"
	ReasonUnreadable Reason = "unreadable_video"

	// ReasonInternal covers anything outside the taxonomy above.
	ReasonInternal Reason = "internal_error"
)

// RejectError is a classified processing failure. Exactly one is produced
// per failed storage event; the handler never retries internally.
type RejectError struct {
	Reason Reason
	Detail string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *RejectError) Unwrap() error { return e.Err }

// reject builds a RejectError with a formatted detail message.
func reject(reason Reason, format string, args ...any) *RejectError {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// rejectWrap builds a RejectError wrapping an underlying cause.
func rejectWrap(reason Reason, err error, format string, args ...any) *RejectError {
	return &RejectError{Reason: reason, Detail: fmt.Sprintf(format, args...), Err: err}
}

// ReasonOf extracts the classification from an error, or ReasonInternal for
// errors outside the taxonomy.
func ReasonOf(err error) Reason {
	var rej *RejectError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ReasonInternal
}
