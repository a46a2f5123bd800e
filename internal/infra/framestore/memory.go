package framestore

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sync"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
)

// Memory is an in-process FrameStore. Path returns a virtual location under
// Root that is only meaningful to code resolving it back through Base.
type Memory struct {
	Root string

	mu    sync.Mutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{Root: "/mem", files: make(map[string][]byte)}
}

func (m *Memory) List() ([]port.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := make([]port.Frame, 0, len(m.files))
	for name := range m.files {
		if idx, ok := ParseIndex(name); ok {
			frames = append(frames, port.Frame{Index: idx, Name: name})
		}
	}
	sortFrames(frames)
	return frames, nil
}

func (m *Memory) Path(name string) string {
	return path.Join(m.Root, name)
}

// Base maps a Path result back to the frame name.
func (m *Memory) Base(p string) string {
	return path.Base(p)
}

func (m *Memory) Get(name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("open frame %s: %w", name, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Put(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("delete frame %s: %w", name, fs.ErrNotExist)
	}
	delete(m.files, name)
	return nil
}

func (m *Memory) Rename(from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[from]
	if !ok {
		return fmt.Errorf("rename frame %s: %w", from, fs.ErrNotExist)
	}
	delete(m.files, from)
	m.files[to] = data
	return nil
}
