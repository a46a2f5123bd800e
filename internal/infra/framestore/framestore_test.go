package framestore

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndex(t *testing.T) {
	cases := map[string]int{
		"betmc_img_1_frame.png":             1,
		"betmc_img_60_frame.jpg":            60,
		"compressed_betmc_img_12_frame.jpg": 12,
	}
	for name, want := range cases {
		got, ok := ParseIndex(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"betmc_img_x_frame.png", "img_1.png", "betmc_img_1_frame.gif", ""} {
		_, ok := ParseIndex(name)
		assert.False(t, ok, name)
	}
}

func stores(t *testing.T) map[string]port.FrameStore {
	return map[string]port.FrameStore{
		"disk":   NewDisk(t.TempDir()),
		"memory": NewMemory(),
	}
}

func TestListOrdersNumerically(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			// lexical order would be 1, 10, 100, 2, 9
			for _, i := range []int{10, 2, 100, 1, 9} {
				require.NoError(t, store.Put(fmt.Sprintf("betmc_img_%d_frame.png", i), strings.NewReader("x")))
			}
			require.NoError(t, store.Put("notes.txt", strings.NewReader("ignored")))

			frames, err := store.List()
			require.NoError(t, err)

			var got []int
			for _, f := range frames {
				got = append(got, f.Index)
			}
			assert.Equal(t, []int{1, 2, 9, 10, 100}, got)
		})
	}
}

func TestPutGetRenameDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put("compressed_betmc_img_1_frame.jpg", strings.NewReader("jpeg")))
			require.NoError(t, store.Rename("compressed_betmc_img_1_frame.jpg", "betmc_img_1_frame.jpg"))

			rc, err := store.Get("betmc_img_1_frame.jpg")
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, "jpeg", string(data))

			_, err = store.Get("compressed_betmc_img_1_frame.jpg")
			assert.ErrorIs(t, err, fs.ErrNotExist)

			require.NoError(t, store.Delete("betmc_img_1_frame.jpg"))
			frames, err := store.List()
			require.NoError(t, err)
			assert.Empty(t, frames)

			assert.ErrorIs(t, store.Delete("betmc_img_1_frame.jpg"), fs.ErrNotExist)
		})
	}
}

func TestDiskPathIsInsideDir(t *testing.T) {
	dir := t.TempDir()
	store := NewDisk(dir)

	require.NoError(t, store.Put("betmc_img_3_frame.png", strings.NewReader("png")))
	_, err := os.Stat(filepath.Join(dir, "betmc_img_3_frame.png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "betmc_img_3_frame.png"), store.Path("betmc_img_3_frame.png"))
}

func TestMemoryBaseRoundTrip(t *testing.T) {
	store := NewMemory()
	assert.Equal(t, "betmc_img_3_frame.png", store.Base(store.Path("betmc_img_3_frame.png")))
}

func TestListMissingDir(t *testing.T) {
	_, err := NewDisk(filepath.Join(t.TempDir(), "missing")).List()
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
