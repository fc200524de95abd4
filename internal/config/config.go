// Package config holds the ingestion pipeline configuration.
//
// The configuration is resolved exactly once at process start and passed by
// value into every component that needs it. There is no lazy global: the
// execution profile (Lambda, container, local) is detected during Load and
// stored on the Config, never re-queried from the environment afterwards.
//
// Resolution order, later layers winning:
//  1. compiled-in defaults
//  2. execution-profile overrides (temp directory, cleanup behavior)
//  3. local YAML config file (local profile only)
//  4. INGEST_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Default video validation limits. Matching limits are enforced by the S3
// bucket policy upstream; these are the authoritative values for this step.
const (
	DefaultMaxVideoSizeMB     = 500
	DefaultMinDurationSeconds = 10
	DefaultMaxDurationSeconds = 300 // 5 minutes
)

// envPrefix is the prefix for all environment variable overrides.
const envPrefix = "INGEST_"

// Config is the resolved configuration for one process.
type Config struct {
	// Profile is the execution profile detected at startup.
	Profile Profile

	// MaxVideoSizeMB is the largest accepted video, checked against the
	// object size reported in the event before any download happens.
	MaxVideoSizeMB int

	// MinDurationSeconds and MaxDurationSeconds bound the accepted video
	// duration, enforced after metadata extraction.
	MinDurationSeconds int
	MaxDurationSeconds int

	// AcceptedExtensions lists the allowed object key suffixes, lowercase
	// with leading dot (".mp4").
	AcceptedExtensions []string

	// TempDir is where downloaded videos are staged. Profile-dependent:
	// /tmp on Lambda, ./temp for local development.
	TempDir string

	// KeepTempFiles disables post-processing cleanup. Only honored on the
	// local profile, for inspecting downloaded files during development.
	KeepTempFiles bool

	// BatchWorkers is the worker count for the local batch runner.
	BatchWorkers int
}

// fileConfig is the YAML shape of the optional local config file.
type fileConfig struct {
	MaxVideoSizeMB     int      `yaml:"max_video_size_mb"`
	MinDurationSeconds int      `yaml:"min_duration_seconds"`
	MaxDurationSeconds int      `yaml:"max_duration_seconds"`
	AcceptedExtensions []string `yaml:"accepted_extensions"`
	TempDir            string   `yaml:"temp_dir"`
	KeepTempFiles      *bool    `yaml:"keep_temp_files"`
	BatchWorkers       int      `yaml:"batch_workers"`
}

// Default returns the compiled-in defaults with the given profile's
// directory conventions applied.
func Default(profile Profile) Config {
	cfg := Config{
		Profile:            profile,
		MaxVideoSizeMB:     DefaultMaxVideoSizeMB,
		MinDurationSeconds: DefaultMinDurationSeconds,
		MaxDurationSeconds: DefaultMaxDurationSeconds,
		AcceptedExtensions: []string{".mp4", ".mov", ".avi"},
		BatchWorkers:       3,
	}

	switch profile {
	case ProfileLambda:
		cfg.TempDir = "/tmp"
	case ProfileContainer:
		cfg.TempDir = "/app/temp"
	default:
		cfg.TempDir = "./temp"
		cfg.KeepTempFiles = true
	}
	return cfg
}

// Load resolves the full configuration for the current process.
func Load() (Config, error) {
	profile := DetectProfile()
	cfg := Default(profile)

	if profile == ProfileLocal {
		if err := cfg.applyFile(); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	cfg.warnOnSuspectValues()

	log.Debug().
		Str("profile", string(profile)).
		Int("maxVideoSizeMb", cfg.MaxVideoSizeMB).
		Int("minDurationSeconds", cfg.MinDurationSeconds).
		Int("maxDurationSeconds", cfg.MaxDurationSeconds).
		Strs("acceptedExtensions", cfg.AcceptedExtensions).
		Str("tempDir", cfg.TempDir).
		Msg("Configuration resolved")
	return cfg, nil
}

// applyFile merges the local YAML config file, if one exists. The path is
// taken from INGEST_CONFIG_FILE, defaulting to ./ingest.yaml. A missing
// default file is not an error; a named-but-unreadable file is.
func (c *Config) applyFile() error {
	path := os.Getenv(envPrefix + "CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = "ingest.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.MaxVideoSizeMB > 0 {
		c.MaxVideoSizeMB = fc.MaxVideoSizeMB
	}
	if fc.MinDurationSeconds > 0 {
		c.MinDurationSeconds = fc.MinDurationSeconds
	}
	if fc.MaxDurationSeconds > 0 {
		c.MaxDurationSeconds = fc.MaxDurationSeconds
	}
	if len(fc.AcceptedExtensions) > 0 {
		c.AcceptedExtensions = fc.AcceptedExtensions
	}
	if fc.TempDir != "" {
		c.TempDir = fc.TempDir
	}
	if fc.KeepTempFiles != nil {
		c.KeepTempFiles = *fc.KeepTempFiles
	}
	if fc.BatchWorkers > 0 {
		c.BatchWorkers = fc.BatchWorkers
	}

	log.Info().Str("path", path).Msg("Applied local config file")
	return nil
}

// applyEnv merges INGEST_* environment variable overrides.
func (c *Config) applyEnv() {
	var applied []string

	if v, ok := envInt("MAX_VIDEO_SIZE_MB"); ok {
		c.MaxVideoSizeMB = v
		applied = append(applied, "maxVideoSizeMb")
	}
	if v, ok := envInt("MIN_DURATION_SECONDS"); ok {
		c.MinDurationSeconds = v
		applied = append(applied, "minDurationSeconds")
	}
	if v, ok := envInt("MAX_DURATION_SECONDS"); ok {
		c.MaxDurationSeconds = v
		applied = append(applied, "maxDurationSeconds")
	}
	if v := os.Getenv(envPrefix + "ACCEPTED_EXTENSIONS"); v != "" {
		c.AcceptedExtensions = strings.Split(v, ",")
		applied = append(applied, "acceptedExtensions")
	}
	if v := os.Getenv(envPrefix + "TEMP_DIR"); v != "" {
		c.TempDir = v
		applied = append(applied, "tempDir")
	}
	if v, ok := envInt("BATCH_WORKERS"); ok {
		c.BatchWorkers = v
		applied = append(applied, "batchWorkers")
	}

	if len(applied) > 0 {
		log.Info().Strs("overrides", applied).Msg("Applied environment variable overrides")
	}
}

// envInt reads an integer override, logging and skipping unparseable values.
func envInt(suffix string) (int, bool) {
	raw := os.Getenv(envPrefix + suffix)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("envVar", envPrefix+suffix).Str("value", raw).Msg("Ignoring non-integer override")
		return 0, false
	}
	return v, true
}

// normalize lowercases extensions and ensures each carries a leading dot.
func (c *Config) normalize() {
	exts := make([]string, 0, len(c.AcceptedExtensions))
	for _, e := range c.AcceptedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	sort.Strings(exts)
	c.AcceptedExtensions = exts
}

// warnOnSuspectValues logs warnings for configurations that are valid but
// probably unintended. Warnings never fail startup.
func (c *Config) warnOnSuspectValues() {
	if c.MaxVideoSizeMB > 1000 {
		log.Warn().Int("maxVideoSizeMb", c.MaxVideoSizeMB).Msg("Max video size is very large")
	}
	if c.MinDurationSeconds >= c.MaxDurationSeconds {
		log.Warn().
			Int("minDurationSeconds", c.MinDurationSeconds).
			Int("maxDurationSeconds", c.MaxDurationSeconds).
			Msg("Min duration is not below max duration; every video will be rejected")
	}
	if len(c.AcceptedExtensions) == 0 {
		log.Warn().Msg("No accepted extensions configured; every video will be rejected")
	}
}

// AcceptsExtension reports whether the object key's suffix is an accepted
// video extension. The comparison is case-insensitive.
func (c Config) AcceptsExtension(key string) bool {
	ext := strings.ToLower(filepath.Ext(key))
	for _, accepted := range c.AcceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// Summary returns a human-readable configuration summary for the CLI.
func (c Config) Summary() string {
	var sb strings.Builder
	sb.WriteString("Exercise Video Ingestion Configuration\n")
	sb.WriteString("======================================\n")
	fmt.Fprintf(&sb, "Profile:          %s\n", c.Profile)
	fmt.Fprintf(&sb, "Max size:         %d MB\n", c.MaxVideoSizeMB)
	fmt.Fprintf(&sb, "Duration:         %ds - %ds\n", c.MinDurationSeconds, c.MaxDurationSeconds)
	fmt.Fprintf(&sb, "Extensions:       %s\n", strings.Join(c.AcceptedExtensions, ", "))
	fmt.Fprintf(&sb, "Temp dir:         %s\n", c.TempDir)
	fmt.Fprintf(&sb, "Keep temp files:  %t\n", c.KeepTempFiles)
	fmt.Fprintf(&sb, "Batch workers:    %d\n", c.BatchWorkers)
	return sb.String()
}
