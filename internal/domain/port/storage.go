package port

import (
	"context"
	"io"
)

// Frame is one extracted image in a FrameStore.
type Frame struct {
	Index int
	Name  string
}

// FrameStore holds a session's frame images. List returns frames ordered by
// their numeric index, never by listing order.
type FrameStore interface {
	List() ([]Frame, error)
	Path(name string) string
	Get(name string) (io.ReadCloser, error)
	Put(name string, r io.Reader) error
	Delete(name string) error
	Rename(from, to string) error
}

// ArchiveStorage makes a finished archive downloadable and returns its URL.
type ArchiveStorage interface {
	PublishArchive(ctx context.Context, objectKey string, localPath string) (downloadURL string, err error)
}

// Archiver packs a directory tree into a zip file.
type Archiver interface {
	Archive(ctx context.Context, srcDir string, zipPath string) error
}

// BundleExtractor unpacks a zip archive under destDir.
type BundleExtractor interface {
	Extract(ctx context.Context, zipPath string, destDir string) error
}

// RemoteFetcher retrieves remote templates and bundles over HTTP.
type RemoteFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url string, dst io.Writer) (int64, error)
}
