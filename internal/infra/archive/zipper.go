// Package archive packs session output trees into zip files and unpacks
// downloaded bundles.
package archive

import (
	"archive/zip"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

type Zipper struct {
	level int
}

func NewZipper() *Zipper {
	return &Zipper{level: flate.BestCompression}
}

// Archive writes every regular file under srcDir to zipPath, named relative
// to srcDir. The archive only appears at zipPath once it is complete and
// synced; on failure nothing is left behind and srcDir is untouched.
func (z *Zipper) Archive(ctx context.Context, srcDir string, zipPath string) error {
	if err := os.MkdirAll(filepath.Dir(zipPath), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(zipPath, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending archive: %w", err)
	}
	defer pending.Cleanup()

	zw := zip.NewWriter(pending)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, z.level)
	})

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if err := addFileToZip(zw, path, filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("add %s to zip: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("walk %s: %w", srcDir, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, filename, name string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = name
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
