package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProfile(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected Profile
	}{
		{
			name:     "Lambda runtime",
			env:      map[string]string{"AWS_LAMBDA_FUNCTION_NAME": "ingest-lambda"},
			expected: ProfileLambda,
		},
		{
			name:     "Container",
			env:      map[string]string{"RUNNING_IN_CONTAINER": "true"},
			expected: ProfileContainer,
		},
		{
			name:     "Container flag case-insensitive",
			env:      map[string]string{"RUNNING_IN_CONTAINER": "TRUE"},
			expected: ProfileContainer,
		},
		{
			name:     "Local by default",
			env:      map[string]string{},
			expected: ProfileLocal,
		},
		{
			name: "Lambda wins over container",
			env: map[string]string{
				"AWS_LAMBDA_FUNCTION_NAME": "ingest-lambda",
				"RUNNING_IN_CONTAINER":     "true",
			},
			expected: ProfileLambda,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
			t.Setenv("RUNNING_IN_CONTAINER", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.expected, DetectProfile())
		})
	}
}

func TestDefaultTempDirPerProfile(t *testing.T) {
	assert.Equal(t, "/tmp", Default(ProfileLambda).TempDir)
	assert.Equal(t, "/app/temp", Default(ProfileContainer).TempDir)
	assert.Equal(t, "./temp", Default(ProfileLocal).TempDir)

	assert.False(t, Default(ProfileLambda).KeepTempFiles)
	assert.True(t, Default(ProfileLocal).KeepTempFiles)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "ingest-lambda")
	t.Setenv("INGEST_MAX_VIDEO_SIZE_MB", "250")
	t.Setenv("INGEST_MIN_DURATION_SECONDS", "5")
	t.Setenv("INGEST_MAX_DURATION_SECONDS", "600")
	t.Setenv("INGEST_ACCEPTED_EXTENSIONS", "MP4, webm")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProfileLambda, cfg.Profile)
	assert.Equal(t, 250, cfg.MaxVideoSizeMB)
	assert.Equal(t, 5, cfg.MinDurationSeconds)
	assert.Equal(t, 600, cfg.MaxDurationSeconds)
	assert.Equal(t, []string{".mp4", ".webm"}, cfg.AcceptedExtensions)
}

func TestLoadIgnoresBadIntegerOverride(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "ingest-lambda")
	t.Setenv("INGEST_MAX_VIDEO_SIZE_MB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxVideoSizeMB, cfg.MaxVideoSizeMB)
}

func TestLoadLocalConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ingest.yaml")
	contents := []byte("max_video_size_mb: 100\naccepted_extensions:\n  - mp4\ntemp_dir: /scratch\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	t.Setenv("RUNNING_IN_CONTAINER", "")
	t.Setenv("INGEST_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProfileLocal, cfg.Profile)
	assert.Equal(t, 100, cfg.MaxVideoSizeMB)
	assert.Equal(t, []string{".mp4"}, cfg.AcceptedExtensions)
	assert.Equal(t, "/scratch", cfg.TempDir)
}

func TestLoadMissingExplicitConfigFileFails(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	t.Setenv("RUNNING_IN_CONTAINER", "")
	t.Setenv("INGEST_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestAcceptsExtension(t *testing.T) {
	cfg := Default(ProfileLocal)
	cfg.AcceptedExtensions = []string{".mp4"}

	tests := []struct {
		key      string
		accepted bool
	}{
		{"uploads/workout.mp4", true},
		{"uploads/WORKOUT.MP4", true},
		{"uploads/clip.mov", false},
		{"uploads/clip.mp4.txt", false},
		{"uploads/noextension", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.accepted, cfg.AcceptsExtension(tt.key))
		})
	}
}
