// Package framestore keeps a session's frame images addressable by name and
// ordered by the numeric index embedded in the name.
package framestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
)

// framePattern matches betmc_img_<n>_frame.<ext> with an optional
// compressed_ prefix.
var framePattern = regexp.MustCompile(`^(?:compressed_)?betmc_img_(\d+)_frame\.(?:png|jpg)$`)

// ParseIndex returns the frame index encoded in name.
func ParseIndex(name string) (int, bool) {
	m := framePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortFrames(frames []port.Frame) {
	sort.Slice(frames, func(i, j int) bool {
		if frames[i].Index != frames[j].Index {
			return frames[i].Index < frames[j].Index
		}
		return frames[i].Name < frames[j].Name
	})
}

// Disk stores frames as files in one directory.
type Disk struct {
	dir string
}

func NewDisk(dir string) *Disk {
	return &Disk{dir: dir}
}

func (d *Disk) List() ([]port.Frame, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	frames := make([]port.Frame, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if idx, ok := ParseIndex(e.Name()); ok {
			frames = append(frames, port.Frame{Index: idx, Name: e.Name()})
		}
	}
	sortFrames(frames)
	return frames, nil
}

func (d *Disk) Path(name string) string {
	return filepath.Join(d.dir, name)
}

func (d *Disk) Get(name string) (io.ReadCloser, error) {
	f, err := os.Open(d.Path(name))
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	return f, nil
}

func (d *Disk) Put(name string, r io.Reader) error {
	f, err := os.Create(d.Path(name))
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write frame: %w", err)
	}
	return f.Close()
}

func (d *Disk) Delete(name string) error {
	if err := os.Remove(d.Path(name)); err != nil {
		return fmt.Errorf("delete frame: %w", err)
	}
	return nil
}

func (d *Disk) Rename(from, to string) error {
	if err := os.Rename(d.Path(from), d.Path(to)); err != nil {
		return fmt.Errorf("rename frame: %w", err)
	}
	return nil
}
