package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/archive"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/framestore"
	"github.com/heenao9k/betmc-ui-generator/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAssembler(t *testing.T, fetcher *fakeFetcher, transcoder *fakeTranscoder) (*Assembler, *entity.Session) {
	t.Helper()
	gen, err := layout.NewGenerator(layout.DefaultConfig())
	require.NoError(t, err)

	a := NewAssembler(fetcher, archive.NewExtractor(archive.ExtractorConfig{}), transcoder, &fakeEncoder{}, gen, t.TempDir(), zap.NewNop())
	ids := []uuid.UUID{
		uuid.MustParse("11111111-1111-4111-8111-111111111111"),
		uuid.MustParse("22222222-2222-4222-8222-222222222222"),
	}
	a.newUUID = func() uuid.UUID {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	s := &entity.Session{SessionID: "sid", Namespace: "ns0123", OutputDir: filepath.Join(t.TempDir(), "ns0123")}
	return a, s
}

func TestWriteManifestStampsNameAndUUIDs(t *testing.T) {
	a, s := newTestAssembler(t, &fakeFetcher{bodies: map[string][]byte{manifestURL: []byte(manifestTemplate)}}, &fakeTranscoder{})

	require.NoError(t, a.WriteManifest(context.Background(), s, manifestURL, "Sunset"))

	data, err := os.ReadFile(s.Path(entity.ManifestFile))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	header := got["header"].(map[string]any)
	module := got["modules"].([]any)[0].(map[string]any)
	assert.Equal(t, "Sunset", header["name"])
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", header["uuid"])
	assert.Equal(t, "22222222-2222-4222-8222-222222222222", module["uuid"])
	assert.Equal(t, float64(2), got["format_version"], "unrelated fields are preserved")
}

func TestWriteManifestRejectsBadTemplates(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `<html>`,
		"no header":  `{"modules":[{"uuid":"x"}]}`,
		"no modules": `{"header":{"name":"x"},"modules":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			a, s := newTestAssembler(t, &fakeFetcher{bodies: map[string][]byte{manifestURL: []byte(body)}}, &fakeTranscoder{})
			err := a.WriteManifest(context.Background(), s, manifestURL, "x")
			assert.ErrorIs(t, err, entity.ErrManifestFetch)
			assert.NoFileExists(t, s.Path(entity.ManifestFile))
		})
	}
}

func TestStaticPatch(t *testing.T) {
	a, s := newTestAssembler(t, &fakeFetcher{}, &fakeTranscoder{})
	require.NoError(t, os.MkdirAll(s.FrameDir(), 0o755))
	store := framestore.NewDisk(s.FrameDir())

	ok, err := a.StaticPatch(s, store)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, s.Path(entity.StaticPatchPath))

	require.NoError(t, store.Put("betmc_img_60_frame.jpg", strings.NewReader("sixty")))
	ok, err = a.StaticPatch(s, store)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(s.Path(entity.StaticPatchPath))
	require.NoError(t, err)
	assert.Equal(t, "sixty", string(data))
}

func TestInstallSounds(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[string][]byte{soundsURL: soundBundle(t)}}
	a, s := newTestAssembler(t, fetcher, &fakeTranscoder{})

	called := false
	require.NoError(t, a.InstallSounds(context.Background(), s, soundsURL, func() { called = true }))
	assert.True(t, called)
	assert.FileExists(t, s.Path("sounds/random/click.ogg"))
	assert.NoFileExists(t, filepath.Join(a.scratchDir, s.Namespace+"_sounds.zip"))
}

func TestInstallSoundsFailures(t *testing.T) {
	t.Run("download", func(t *testing.T) {
		a, s := newTestAssembler(t, &fakeFetcher{}, &fakeTranscoder{})
		called := false
		err := a.InstallSounds(context.Background(), s, soundsURL, func() { called = true })
		assert.ErrorIs(t, err, entity.ErrSoundBundleFetch)
		assert.False(t, called)
	})

	t.Run("not a zip", func(t *testing.T) {
		a, s := newTestAssembler(t, &fakeFetcher{bodies: map[string][]byte{soundsURL: []byte("nope")}}, &fakeTranscoder{})
		err := a.InstallSounds(context.Background(), s, soundsURL, nil)
		assert.ErrorIs(t, err, entity.ErrSoundBundleFetch)
		assert.NoFileExists(t, filepath.Join(a.scratchDir, s.Namespace+"_sounds.zip"))
	})
}

func TestInstallMusicTranscodeFailure(t *testing.T) {
	a, s := newTestAssembler(t, &fakeFetcher{}, &fakeTranscoder{err: errors.New("ffmpeg exited 1")})

	err := a.InstallMusic(context.Background(), s, "song.mp3")
	assert.ErrorIs(t, err, entity.ErrTranscode)
	assert.Equal(t, "Could not convert the audio track", entity.UserMessage(err))
}

func TestWriteConfigsAndUI(t *testing.T) {
	a, s := newTestAssembler(t, &fakeFetcher{}, &fakeTranscoder{})
	s.FrameCount = 12

	require.NoError(t, a.WriteConfigs(s, 24))
	require.NoError(t, a.WriteUI(s, 24))

	for _, p := range []string{
		s.Path(entity.LowConfigPath),
		s.Path(entity.HighConfigPath),
		s.TimelinePath(),
		s.Path(entity.CommonUIDir + "/" + entity.TileLayoutFile),
		s.Path(entity.UIDefsPath),
	} {
		data, err := os.ReadFile(p)
		require.NoError(t, err, p)
		assert.True(t, json.Valid(data), p)
	}

	timeline, err := os.ReadFile(s.TimelinePath())
	require.NoError(t, err)
	assert.Contains(t, string(timeline), `"namespace": "ns0123"`)
}
