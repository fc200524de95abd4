package videometa

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Classified extraction failures, tested with errors.Is.
var (
	// ErrFileNotFound means the local file does not exist.
	ErrFileNotFound = errors.New("video file not found")

	// ErrCannotOpen means the file exists but no decode session could be
	// opened on it (truncated header, wrong format, not a video).
	ErrCannotOpen = errors.New("cannot open video file")
)

// readProbeFrames is how many consecutive frames the readability probe
// attempts to decode. A handful is enough to catch gross corruption without
// paying for a full decode.
const readProbeFrames = 5

// Metadata describes one validated video file. Built once per extraction and
// never mutated afterwards.
type Metadata struct {
	Filename        string  `json:"filename"`
	DurationSeconds float64 `json:"duration_seconds"`
	FPS             float64 `json:"fps"`
	FrameCount      int     `json:"frame_count"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Resolution      string  `json:"resolution"`
	SizeBytes       int64   `json:"file_size_bytes"`
	SizeMB          float64 `json:"file_size_mb"`
	Codec           string  `json:"codec"`
	AspectRatio     float64 `json:"aspect_ratio"`
	TotalPixels     int     `json:"total_pixels"`

	// Valid reports the readability probe outcome: at least one frame
	// decoded. A valid header with corrupt middle content still passes.
	Valid bool `json:"is_valid_video"`
}

// Extractor extracts Metadata from local video files through an Opener.
type Extractor struct {
	opener Opener
}

// NewExtractor creates an Extractor on the given decode capability.
func NewExtractor(opener Opener) *Extractor {
	return &Extractor{opener: opener}
}

// Extract opens a decode session on path, reads container properties, runs
// the readability probe, and returns the assembled Metadata. The session is
// released on every exit path. Duration bounds are NOT checked here; that is
// the caller's validation policy.
func (e *Extractor) Extract(path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	sess, err := e.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCannotOpen, path, err)
	}
	defer sess.Close()

	fps := sess.Property(PropFrameRate)
	frameCount := int(sess.Property(PropFrameCount))
	width := int(sess.Property(PropWidth))
	height := int(sess.Property(PropHeight))

	// A zero frame rate yields a zero duration, not a division error; the
	// caller's minimum-duration check then rejects the file.
	var duration float64
	if fps > 0 {
		duration = float64(frameCount) / fps
	}

	var aspectRatio float64
	if height > 0 {
		aspectRatio = round2(float64(width) / float64(height))
	}

	m := &Metadata{
		Filename:        filepath.Base(path),
		DurationSeconds: round2(duration),
		FPS:             round2(fps),
		FrameCount:      frameCount,
		Width:           width,
		Height:          height,
		Resolution:      fmt.Sprintf("%dx%d", width, height),
		SizeBytes:       info.Size(),
		SizeMB:          round2(float64(info.Size()) / (1024 * 1024)),
		Codec:           DecodeFourCC(uint32(sess.Property(PropFourCC))),
		AspectRatio:     aspectRatio,
		TotalPixels:     width * height,
		Valid:           probeReadability(sess),
	}

	log.Info().
		Str("filename", m.Filename).
		Float64("durationSeconds", m.DurationSeconds).
		Float64("fps", m.FPS).
		Int("frameCount", m.FrameCount).
		Str("resolution", m.Resolution).
		Float64("sizeMb", m.SizeMB).
		Str("codec", m.Codec).
		Bool("valid", m.Valid).
		Msg("Video metadata extracted")
	return m, nil
}

// probeReadability decodes up to readProbeFrames consecutive frames from the
// start of the video and leaves the session back at frame 0. The video is
// considered readable if at least one frame decodes.
func probeReadability(sess Session) bool {
	sess.Seek(0)
	framesRead := 0
	for i := 0; i < readProbeFrames; i++ {
		if !sess.ReadNextFrame() {
			break
		}
		framesRead++
	}
	sess.Seek(0)

	log.Debug().
		Int("framesRead", framesRead).
		Int("framesAttempted", readProbeFrames).
		Msg("Readability probe complete")
	return framesRead > 0
}

// DecodeFourCC renders a container's numeric FourCC codec tag as its
// four-character ASCII form (little-endian byte order, null padding
// trimmed). Anything non-printable falls back to "unknown".
func DecodeFourCC(tag uint32) string {
	if tag == 0 {
		return "unknown"
	}

	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], tag)

	var b []byte
	for _, c := range raw {
		if c == 0 {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return "unknown"
		}
		b = append(b, c)
	}
	if len(b) == 0 {
		return "unknown"
	}
	return string(b)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
