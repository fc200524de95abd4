package videometa

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// FFmpegOpener opens decode sessions backed by the ffprobe and ffmpeg
// binaries. Container properties come from one ffprobe invocation at open
// time; frames are decoded on demand by a streaming ffmpeg process writing
// raw RGB frames to a pipe.
type FFmpegOpener struct {
	ffprobePath string
	ffmpegPath  string
}

// NewFFmpegOpener locates ffprobe and ffmpeg in PATH. Returns an error if
// either is missing, so the capability check happens once at startup rather
// than on the first event.
func NewFFmpegOpener() (*FFmpegOpener, error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	log.Debug().Str("ffprobe", ffprobe).Str("ffmpeg", ffmpeg).Msg("Decode tools located")
	return &FFmpegOpener{ffprobePath: ffprobe, ffmpegPath: ffmpeg}, nil
}

// ffprobeOutput is the subset of ffprobe's JSON output we read.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecTag     string `json:"codec_tag"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

// Open probes the file and returns a Session positioned at frame 0.
func (o *FFmpegOpener) Open(path string) (Session, error) {
	cmd := exec.Command(o.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var video *ffprobeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, fmt.Errorf("no video stream in %s", path)
	}

	fps := parseFrameRate(video.RFrameRate)
	if fps == 0 {
		fps = parseFrameRate(video.AvgFrameRate)
	}

	frameCount, _ := strconv.ParseFloat(video.NbFrames, 64)
	if frameCount == 0 && fps > 0 {
		// Some containers omit nb_frames; estimate from the wall duration.
		if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			frameCount = math.Round(dur * fps)
		}
	}

	return &ffmpegSession{
		path:       path,
		ffmpegPath: o.ffmpegPath,
		props: map[string]float64{
			PropFrameRate:  fps,
			PropFrameCount: frameCount,
			PropWidth:      float64(video.Width),
			PropHeight:     float64(video.Height),
			PropFourCC:     parseCodecTag(video.CodecTag),
		},
		frameSize: video.Width * video.Height * 3,
	}, nil
}

// ffmpegSession decodes frames from a streaming ffmpeg process. The process
// is started lazily on the first ReadNextFrame and restarted after a Seek.
type ffmpegSession struct {
	path       string
	ffmpegPath string
	props      map[string]float64

	frameSize int
	frameBuf  []byte
	pending   int // frames to decode and discard after a restart

	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (s *ffmpegSession) Property(name string) float64 {
	return s.props[name]
}

func (s *ffmpegSession) ReadNextFrame() bool {
	if s.frameSize <= 0 {
		return false
	}
	if s.cmd == nil {
		if err := s.startDecoder(); err != nil {
			log.Debug().Err(err).Str("path", s.path).Msg("Failed to start frame decoder")
			return false
		}
		for s.pending > 0 {
			if !s.readFrame() {
				return false
			}
			s.pending--
		}
	}
	return s.readFrame()
}

func (s *ffmpegSession) Seek(frame int) {
	s.stopDecoder()
	s.pending = frame
}

func (s *ffmpegSession) Close() {
	s.stopDecoder()
}

// startDecoder launches ffmpeg decoding the first video stream to raw
// RGB24 frames on stdout.
func (s *ffmpegSession) startDecoder() error {
	cmd := exec.Command(s.ffmpegPath,
		"-v", "error",
		"-i", s.path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	s.cmd = cmd
	s.stdout = stdout
	if len(s.frameBuf) != s.frameSize {
		s.frameBuf = make([]byte, s.frameSize)
	}
	return nil
}

// readFrame reads exactly one frame's worth of raw bytes. A short read means
// the decoder hit end of stream or a decode error.
func (s *ffmpegSession) readFrame() bool {
	if _, err := io.ReadFull(s.stdout, s.frameBuf); err != nil {
		s.stopDecoder()
		return false
	}
	return true
}

func (s *ffmpegSession) stopDecoder() {
	if s.cmd == nil {
		return
	}
	s.stdout.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
}

// parseFrameRate parses ffprobe's rational frame rate (e.g. "30/1" -> 30.0).
func parseFrameRate(value string) float64 {
	parts := strings.Split(value, "/")
	if len(parts) == 2 {
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
		return 0
	}
	rate, _ := strconv.ParseFloat(value, 64)
	return rate
}

// parseCodecTag parses ffprobe's codec_tag hex string (e.g. "0x31637661")
// into the container's numeric FourCC. Returns 0 when absent or malformed.
func parseCodecTag(tag string) float64 {
	tag = strings.TrimPrefix(strings.ToLower(tag), "0x")
	if tag == "" {
		return 0
	}
	v, err := strconv.ParseUint(tag, 16, 32)
	if err != nil {
		return 0
	}
	return float64(v)
}
