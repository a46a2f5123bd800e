package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/toolexec"
	"go.uber.org/zap"
)

type Transcoder struct {
	run    runner
	cfg    Config
	logger *zap.Logger
}

func NewTranscoder(run runner, logger *zap.Logger, cfg Config) *Transcoder {
	return &Transcoder{run: run, cfg: cfg.withDefaults(), logger: logger}
}

// TranscodeOgg encodes the audio of src to Ogg Vorbis at dst. Any video
// stream is dropped.
func (t *Transcoder) TranscodeOgg(ctx context.Context, src, dst string) error {
	const op = "transcode audio"

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return entity.NewStageError(entity.ErrTranscode, op, fmt.Errorf("create audio dir: %w", err))
	}

	if _, err := t.run.Run(ctx, t.cfg.FFmpegPath, "-y", "-i", src, "-vn", "-c:a", "libvorbis", dst); err != nil {
		se := entity.NewStageError(entity.ErrTranscode, op, err)
		var te *toolexec.ToolError
		if errors.As(err, &te) {
			se.Detail = te.Stderr
		}
		return se
	}

	t.logger.Debug("audio transcoded", zap.String("dst", filepath.Base(dst)))
	return nil
}
