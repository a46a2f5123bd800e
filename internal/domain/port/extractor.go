package port

import "context"

type FrameExtractionResult struct {
	FrameCount    int
	VideoDuration float64
}

// FrameExtractor splits a video into one PNG per 1/frameRate seconds,
// named betmc_img_<n>_frame.png with n starting at 1.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath string, outputDir string, frameRate float64) (*FrameExtractionResult, error)
}

// ImageEncoder re-encodes images with an external tool.
type ImageEncoder interface {
	EncodeJPEG(ctx context.Context, src, dst string, quality int) error
	Resize(ctx context.Context, src, dst string, width, height int) error
}

// AudioTranscoder converts the audio of an audio or video source to an Ogg
// Vorbis file.
type AudioTranscoder interface {
	TranscodeOgg(ctx context.Context, src, dst string) error
}
