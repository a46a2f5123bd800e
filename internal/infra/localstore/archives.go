// Package localstore serves finished archives from the local zip directory.
package localstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

type Archives struct {
	dir     string
	urlBase string
}

// NewArchives publishes files under dir at urlBase + "/" + name.
func NewArchives(dir, urlBase string) *Archives {
	if urlBase == "" {
		urlBase = "/zips"
	}
	return &Archives{dir: dir, urlBase: urlBase}
}

func (a *Archives) Dir() string {
	return a.dir
}

// PublishArchive moves localPath into the zip directory if needed and
// returns the download URL.
func (a *Archives) PublishArchive(_ context.Context, objectKey string, localPath string) (string, error) {
	if objectKey != filepath.Base(objectKey) || objectKey == "." || objectKey == "" {
		return "", fmt.Errorf("publish archive: invalid key %q", objectKey)
	}
	target := filepath.Join(a.dir, objectKey)
	if filepath.Clean(localPath) != target {
		if err := os.MkdirAll(a.dir, 0o755); err != nil {
			return "", fmt.Errorf("publish archive: %w", err)
		}
		if err := os.Rename(localPath, target); err != nil {
			return "", fmt.Errorf("publish archive: %w", err)
		}
	}
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("publish archive: %w", err)
	}
	return path.Join(a.urlBase, objectKey), nil
}
