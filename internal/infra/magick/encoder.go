// Package magick wraps the ImageMagick command line.
package magick

import (
	"context"
	"fmt"
	"strconv"
)

type runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type Encoder struct {
	run  runner
	path string
}

// NewEncoder uses the magick binary at path, or "magick" from PATH.
func NewEncoder(run runner, path string) *Encoder {
	if path == "" {
		path = "magick"
	}
	return &Encoder{run: run, path: path}
}

// EncodeJPEG re-encodes src as a baseline JPEG without chroma subsampling.
func (e *Encoder) EncodeJPEG(ctx context.Context, src, dst string, quality int) error {
	_, err := e.run.Run(ctx, e.path,
		src,
		"-strip",
		"-quality", strconv.Itoa(quality),
		"-sampling-factor", "1x1",
		"-colorspace", "RGB",
		dst,
	)
	if err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

func (e *Encoder) Resize(ctx context.Context, src, dst string, width, height int) error {
	_, err := e.run.Run(ctx, e.path, src, "-resize", fmt.Sprintf("%dx%d", width, height), dst)
	if err != nil {
		return fmt.Errorf("resize image: %w", err)
	}
	return nil
}
