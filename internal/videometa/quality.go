package videometa

// QualityReport holds derived classification metrics for an extracted video.
// All fields are pure functions of Metadata; a zero duration yields zero
// rates rather than a division error.
type QualityReport struct {
	ResolutionCategory        string  `json:"resolution_category"`
	IsHD                      bool    `json:"is_hd"`
	IsFullHD                  bool    `json:"is_full_hd"`
	FPSCategory               string  `json:"fps_category"`
	FileEfficiencyMBPerMinute float64 `json:"file_efficiency"`
	EstimatedBitrateKbps      int     `json:"estimated_bitrate_kbps"`
}

// Quality derives the classification report for this metadata.
func (m *Metadata) Quality() QualityReport {
	return QualityReport{
		ResolutionCategory:        ResolutionCategory(m.Width, m.Height),
		IsHD:                      m.Height >= 720,
		IsFullHD:                  m.Height >= 1080,
		FPSCategory:               FPSCategory(m.FPS),
		FileEfficiencyMBPerMinute: m.FileEfficiency(),
		EstimatedBitrateKbps:      m.EstimatedBitrateKbps(),
	}
}

// ResolutionCategory buckets a resolution by height.
func ResolutionCategory(width, height int) string {
	switch {
	case height >= 2160:
		return "4K"
	case height >= 1440:
		return "1440p"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	default:
		return "low_res"
	}
}

// FPSCategory buckets a frame rate.
func FPSCategory(fps float64) string {
	switch {
	case fps >= 60:
		return "high_fps"
	case fps >= 30:
		return "standard_fps"
	case fps >= 24:
		return "cinematic_fps"
	default:
		return "low_fps"
	}
}

// FileEfficiency returns the file size in MB per minute of video, or 0 for
// a zero-duration video.
func (m *Metadata) FileEfficiency() float64 {
	if m.DurationSeconds <= 0 {
		return 0
	}
	return round2(m.SizeMB / (m.DurationSeconds / 60))
}

// EstimatedBitrateKbps estimates the overall bitrate from file size and
// duration, or 0 for a zero-duration video.
func (m *Metadata) EstimatedBitrateKbps() int {
	if m.DurationSeconds <= 0 {
		return 0
	}
	bitsPerSecond := float64(m.SizeBytes) * 8 / m.DurationSeconds
	return int(bitsPerSecond / 1000)
}
