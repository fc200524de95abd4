package videometa

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession simulates a decode session with a configurable number of
// decodable frames from the start of the stream.
type fakeSession struct {
	props           map[string]float64
	decodableFrames int

	pos    int
	seeks  []int
	closed int
}

func (s *fakeSession) Property(name string) float64 { return s.props[name] }

func (s *fakeSession) ReadNextFrame() bool {
	if s.pos < s.decodableFrames {
		s.pos++
		return true
	}
	return false
}

func (s *fakeSession) Seek(frame int) {
	s.pos = frame
	s.seeks = append(s.seeks, frame)
}

func (s *fakeSession) Close() { s.closed++ }

type fakeOpener struct {
	sess *fakeSession
	err  error
}

func (o *fakeOpener) Open(path string) (Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.sess, nil
}

// writeTempVideo creates a placeholder file of the given size so Extract has
// something to stat.
func writeTempVideo(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workout.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestExtract(t *testing.T) {
	path := writeTempVideo(t, 512*1024)
	sess := &fakeSession{
		props: map[string]float64{
			PropFrameRate:  30,
			PropFrameCount: 360,
			PropWidth:      640,
			PropHeight:     480,
			PropFourCC:     0x31637661, // "avc1"
		},
		decodableFrames: 10,
	}

	m, err := NewExtractor(&fakeOpener{sess: sess}).Extract(path)
	require.NoError(t, err)

	assert.Equal(t, "workout.mp4", m.Filename)
	assert.InDelta(t, 12.0, m.DurationSeconds, 0.001)
	assert.Equal(t, 30.0, m.FPS)
	assert.Equal(t, 360, m.FrameCount)
	assert.Equal(t, "640x480", m.Resolution)
	assert.Equal(t, int64(512*1024), m.SizeBytes)
	assert.Equal(t, 0.5, m.SizeMB)
	assert.Equal(t, "avc1", m.Codec)
	assert.Equal(t, 1.33, m.AspectRatio)
	assert.Equal(t, 640*480, m.TotalPixels)
	assert.True(t, m.Valid)

	q := m.Quality()
	assert.Equal(t, "480p", q.ResolutionCategory)
	assert.False(t, q.IsHD)
	assert.Equal(t, "standard_fps", q.FPSCategory)
}

func TestExtractZeroFrameRateYieldsZeroDuration(t *testing.T) {
	path := writeTempVideo(t, 1024)
	sess := &fakeSession{
		props: map[string]float64{
			PropFrameRate:  0,
			PropFrameCount: 360,
			PropWidth:      640,
			PropHeight:     480,
		},
		decodableFrames: 5,
	}

	m, err := NewExtractor(&fakeOpener{sess: sess}).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.DurationSeconds)
	assert.True(t, m.Valid)
}

func TestExtractZeroHeightAspectRatio(t *testing.T) {
	path := writeTempVideo(t, 1024)
	sess := &fakeSession{
		props:           map[string]float64{PropWidth: 640},
		decodableFrames: 1,
	}

	m, err := NewExtractor(&fakeOpener{sess: sess}).Extract(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.AspectRatio)
}

func TestExtractFileNotFound(t *testing.T) {
	opener := &fakeOpener{err: errors.New("should not be called")}

	_, err := NewExtractor(opener).Extract(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestExtractCannotOpen(t *testing.T) {
	path := writeTempVideo(t, 1024)
	opener := &fakeOpener{err: errors.New("moov atom not found")}

	m, err := NewExtractor(opener).Extract(path)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrCannotOpen)
}

func TestExtractUnreadableFramesInvalidDespiteProperties(t *testing.T) {
	path := writeTempVideo(t, 1024)
	sess := &fakeSession{
		props: map[string]float64{
			PropFrameRate:  30,
			PropFrameCount: 900,
			PropWidth:      1920,
			PropHeight:     1080,
		},
		decodableFrames: 0,
	}

	m, err := NewExtractor(&fakeOpener{sess: sess}).Extract(path)
	require.NoError(t, err)

	// Container properties were readable but no frame decoded.
	assert.InDelta(t, 30.0, m.DurationSeconds, 0.001)
	assert.False(t, m.Valid)
}

func TestExtractReleasesSessionAndRewinds(t *testing.T) {
	path := writeTempVideo(t, 1024)
	sess := &fakeSession{
		props:           map[string]float64{PropFrameRate: 30, PropFrameCount: 60, PropWidth: 64, PropHeight: 48},
		decodableFrames: 3,
	}

	_, err := NewExtractor(&fakeOpener{sess: sess}).Extract(path)
	require.NoError(t, err)

	assert.Equal(t, 1, sess.closed)
	// Probe seeks to 0 before reading and back to 0 after.
	assert.Equal(t, []int{0, 0}, sess.seeks)
	assert.Equal(t, 0, sess.pos)
}

func TestProbeReadsAtMostFiveFrames(t *testing.T) {
	sess := &fakeSession{decodableFrames: 100}
	assert.True(t, probeReadability(sess))
	// Last Seek(0) resets pos, so inspect the frame reads via seeks count:
	// two seeks and no more than readProbeFrames reads in between.
	assert.Equal(t, []int{0, 0}, sess.seeks)
}

func TestDecodeFourCC(t *testing.T) {
	tests := []struct {
		name     string
		tag      uint32
		expected string
	}{
		{"avc1", 0x31637661, "avc1"},
		{"h264", 0x34363268, "h264"},
		{"null padded", 0x00317661, "av1"},
		{"zero tag", 0, "unknown"},
		{"non printable", 0x01020304, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeFourCC(tt.tag))
		})
	}
}
