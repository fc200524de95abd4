// Package s3util wraps the S3 download capability used by the ingestion
// handler. Transfer failures are classified into the sentinel errors below
// so the handler can map them onto its rejection taxonomy without importing
// AWS SDK error types.
package s3util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
)

// Classified transfer failures.
var (
	// ErrObjectNotFound means the object or bucket does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied means the caller is not allowed to read the object.
	ErrAccessDenied = errors.New("access denied")
)

// Downloader fetches an object to a local path.
type Downloader struct {
	client *s3.Client
}

// NewDownloader wraps an S3 client.
func NewDownloader(client *s3.Client) *Downloader {
	return &Downloader{client: client}
}

// Download transfers s3://bucket/key to localPath. On any failure the
// partially written local file is removed before the error is returned, so
// callers never see a half-written video.
func (d *Downloader) Download(ctx context.Context, bucket, key, localPath string) error {
	log.Debug().Str("bucket", bucket).Str("key", key).Str("localPath", localPath).Msg("Downloading from S3")

	result, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return classify(fmt.Errorf("S3 GetObject s3://%s/%s: %w", bucket, key, err))
	}
	defer result.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(f, result.Body)
	if err != nil {
		f.Close()
		os.Remove(localPath)
		return fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(localPath)
		return fmt.Errorf("close file: %w", err)
	}

	log.Debug().Int64("bytes", written).Str("key", key).Msg("Download complete")
	return nil
}

// classify maps S3 API error codes onto the package sentinels, preserving
// the original error chain.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	case "AccessDenied", "Forbidden":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	default:
		return err
	}
}
