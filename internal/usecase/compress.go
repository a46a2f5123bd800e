package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/toolexec"
)

const (
	compressedPrefix = "compressed_"

	// compressStart and compressSpan place the compression stage at 25-50%
	// of overall progress.
	compressStart = 25
	compressSpan  = 25

	// secondsPerFrame is the fixed cost used for the compression ETA.
	secondsPerFrame = 0.5
)

// CompressProgress receives the percent and remaining-time estimate after
// each compressed frame.
type CompressProgress func(done, total, percent, etaSeconds int)

// CompressFrames re-encodes every PNG in store as a JPEG at quality, in frame
// index order, deleting each PNG once its JPEG exists. The first failure
// stops the stage; frames after it are left untouched.
func CompressFrames(ctx context.Context, store port.FrameStore, enc port.ImageEncoder, quality int, report CompressProgress) error {
	const op = "compress frames"

	frames, err := store.List()
	if err != nil {
		return entity.NewStageError(entity.ErrCompression, op, err)
	}
	pngs := make([]port.Frame, 0, len(frames))
	for _, f := range frames {
		if strings.HasSuffix(f.Name, ".png") {
			pngs = append(pngs, f)
		}
	}

	total := len(pngs)
	for i, f := range pngs {
		if err := ctx.Err(); err != nil {
			return entity.NewStageError(entity.ErrCompression, op, err)
		}

		dst := compressedPrefix + strings.TrimSuffix(f.Name, ".png") + ".jpg"
		if err := enc.EncodeJPEG(ctx, store.Path(f.Name), store.Path(dst), quality); err != nil {
			se := entity.NewStageError(entity.ErrCompression, op, fmt.Errorf("frame %d: %w", f.Index, err))
			var te *toolexec.ToolError
			if errors.As(err, &te) {
				se.Detail = te.Stderr
			}
			return se
		}
		if err := store.Delete(f.Name); err != nil {
			return entity.NewStageError(entity.ErrCompression, op, err)
		}

		if report != nil {
			report(i+1, total, CompressPercent(i, total), CompressETA(i, total))
		}
	}
	return nil
}

// CompressPercent is the overall percent after frame i of total.
func CompressPercent(i, total int) int {
	return compressStart + int(math.Floor(float64(i+1)/float64(total)*compressSpan))
}

// CompressETA estimates the seconds left after frame i of total.
func CompressETA(i, total int) int {
	return int(math.Ceil(float64(total-i-1) * secondsPerFrame))
}

// StripCompressedPrefix renames compressed_<name> frames to <name>.
func StripCompressedPrefix(store port.FrameStore) error {
	frames, err := store.List()
	if err != nil {
		return entity.NewStageError(entity.ErrCompression, "rename frames", err)
	}
	for _, f := range frames {
		if !strings.HasPrefix(f.Name, compressedPrefix) {
			continue
		}
		if err := store.Rename(f.Name, strings.TrimPrefix(f.Name, compressedPrefix)); err != nil {
			return entity.NewStageError(entity.ErrCompression, "rename frames", err)
		}
	}
	return nil
}
