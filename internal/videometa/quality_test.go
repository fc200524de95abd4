package videometa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolutionCategory(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		expected string
	}{
		{"4K UHD", 3840, 2160, "4K"},
		{"1440p", 2560, 1440, "1440p"},
		{"1080p", 1920, 1080, "1080p"},
		{"720p", 1280, 720, "720p"},
		{"480p", 640, 480, "480p"},
		{"low res", 320, 240, "low_res"},
		{"zero", 0, 0, "low_res"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolutionCategory(tt.width, tt.height))
		})
	}
}

func TestFPSCategory(t *testing.T) {
	tests := []struct {
		name     string
		fps      float64
		expected string
	}{
		{"high", 60, "high_fps"},
		{"standard", 30, "standard_fps"},
		{"NTSC", 29.97, "cinematic_fps"},
		{"cinematic", 24, "cinematic_fps"},
		{"low", 15, "low_fps"},
		{"zero", 0, "low_fps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FPSCategory(tt.fps))
		})
	}
}

func TestFileEfficiency(t *testing.T) {
	m := &Metadata{SizeMB: 60, DurationSeconds: 120}
	assert.Equal(t, 30.0, m.FileEfficiency())

	zero := &Metadata{SizeMB: 60, DurationSeconds: 0}
	assert.Equal(t, 0.0, zero.FileEfficiency())
}

func TestEstimatedBitrateKbps(t *testing.T) {
	// 12 MB over 12 seconds: 12*1024*1024*8/12/1000 kbps.
	m := &Metadata{SizeBytes: 12 * 1024 * 1024, DurationSeconds: 12}
	assert.Equal(t, 8388, m.EstimatedBitrateKbps())

	zero := &Metadata{SizeBytes: 12 * 1024 * 1024, DurationSeconds: 0}
	assert.Equal(t, 0, zero.EstimatedBitrateKbps())
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"30/1", 30.0},
		{"60/1", 60.0},
		{"30000/1001", 29.97002997002997},
		{"25", 25.0},
		{"0/0", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.expected, parseFrameRate(tt.input), 0.0001)
		})
	}
}

func TestParseCodecTag(t *testing.T) {
	assert.Equal(t, float64(0x31637661), parseCodecTag("0x31637661"))
	assert.Equal(t, float64(0), parseCodecTag(""))
	assert.Equal(t, float64(0), parseCodecTag("0x"))
	assert.Equal(t, float64(0), parseCodecTag("garbage"))
}
