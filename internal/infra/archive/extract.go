package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsafePath = errors.New("archive entry escapes destination")
	ErrTooLarge   = errors.New("archive expands past size limit")
)

type ExtractorConfig struct {
	// MaxBytes caps the total uncompressed bytes written. Zero means 1 GiB.
	MaxBytes int64
}

type Extractor struct {
	maxBytes int64
}

func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 30
	}
	return &Extractor{maxBytes: cfg.MaxBytes}
}

// Extract unpacks zipPath under destDir. Entries resolving outside destDir
// abort the extraction, as does writing more than the size cap in total.
// Sizes are counted as bytes are written, not taken from the zip headers.
func (e *Extractor) Extract(ctx context.Context, zipPath string, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	remaining := e.maxBytes
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(root, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", f.Name, err)
			}
			continue
		}
		n, err := extractFile(f, target, remaining)
		if err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
		remaining -= n
	}
	return nil
}

func safeJoin(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// extractFile writes f to target, failing with ErrTooLarge if it holds more
// than budget bytes.
func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if err != nil {
		out.Close()
		return n, err
	}
	if n > budget {
		out.Close()
		_ = os.Remove(target)
		return n, ErrTooLarge
	}
	return n, out.Close()
}
