// Package videometa validates exercise videos and extracts coarse metadata:
// duration, resolution, frame rate, codec tag, and a shallow readability
// probe that catches grossly corrupt files.
//
// Decoding goes through the Session interface so the extraction and
// validation logic is independent of the decode tool. The production
// implementation shells out to ffprobe/ffmpeg; pure Go demuxers expose raw
// container atoms but not a uniform "decode the next frame" capability.
package videometa

// Property names understood by Session.Property.
const (
	PropFrameRate  = "frame_rate"
	PropFrameCount = "frame_count"
	PropWidth      = "width"
	PropHeight     = "height"
	PropFourCC     = "fourcc"
)

// Session is an open decode session on a single video file.
// Sessions are not safe for concurrent use; each worker owns its own.
type Session interface {
	// Property returns a container-level numeric property, or 0 when the
	// container does not report it.
	Property(name string) float64

	// ReadNextFrame attempts to decode the next frame and reports whether
	// a frame was produced.
	ReadNextFrame() bool

	// Seek positions the session at the given frame index.
	Seek(frame int)

	// Close releases the session. Safe to call more than once.
	Close()
}

// Opener creates decode sessions. A failed Open means the file is not a
// readable video (missing, truncated header, or not a video at all).
type Opener interface {
	Open(path string) (Session, error)
}
