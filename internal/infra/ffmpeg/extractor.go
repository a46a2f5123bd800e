package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/framestore"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/toolexec"
	"go.uber.org/zap"
)

// FramePattern is the ffmpeg output template; %d starts at 1.
const FramePattern = "betmc_img_%d_frame.png"

type runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type Config struct {
	FFmpegPath  string
	FFprobePath string
}

func (c Config) withDefaults() Config {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.FFprobePath == "" {
		c.FFprobePath = "ffprobe"
	}
	return c
}

type Extractor struct {
	run    runner
	cfg    Config
	logger *zap.Logger
}

func NewExtractor(run runner, logger *zap.Logger, cfg Config) *Extractor {
	return &Extractor{run: run, cfg: cfg.withDefaults(), logger: logger}
}

func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, outputDir string, frameRate float64) (*port.FrameExtractionResult, error) {
	const op = "extract frames"

	duration, err := e.probeDuration(ctx, videoPath)
	if err != nil {
		e.logger.Warn("could not get video duration", zap.Error(err))
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, entity.NewStageError(entity.ErrExtraction, op, fmt.Errorf("create frame dir: %w", err))
	}

	_, err = e.run.Run(ctx, e.cfg.FFmpegPath,
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%s,scale=-1:-1:flags=lanczos", formatRate(frameRate)),
		"-q:v", "1",
		"-compression_level", "0",
		filepath.Join(outputDir, FramePattern),
	)
	if err != nil {
		se := entity.NewStageError(entity.ErrExtraction, op, err)
		var te *toolexec.ToolError
		if errors.As(err, &te) {
			se.Detail = te.Stderr
		}
		return nil, se
	}

	count, err := countFrames(outputDir)
	if err != nil {
		return nil, entity.NewStageError(entity.ErrExtraction, op, err)
	}
	if count == 0 {
		return nil, entity.NewStageError(entity.ErrExtraction, op, entity.ErrNoFrames)
	}

	e.logger.Info("frames extracted",
		zap.Int("count", count),
		zap.Float64("video_duration", duration),
	)

	return &port.FrameExtractionResult{
		FrameCount:    count,
		VideoDuration: duration,
	}, nil
}

// countFrames returns the highest frame index, requiring 1..n to be present.
func countFrames(dir string) (int, error) {
	frames, err := framestore.NewDisk(dir).List()
	if err != nil {
		return 0, err
	}
	for i, f := range frames {
		if f.Index != i+1 {
			return 0, fmt.Errorf("frame sequence has a gap at %d", i+1)
		}
	}
	return len(frames), nil
}

func (e *Extractor) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	out, err := e.run.Run(ctx, e.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
