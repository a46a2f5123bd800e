package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/archive"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/localstore"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/memory"
	"github.com/heenao9k/betmc-ui-generator/internal/layout"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	manifestURL = "https://templates.test/manifest.json"
	soundsURL   = "https://templates.test/sounds.zip"
)

const manifestTemplate = `{
  "format_version": 2,
  "header": {"name": "template", "uuid": "old", "version": [1, 0, 0]},
  "modules": [{"type": "resources", "uuid": "old", "version": [1, 0, 0]}]
}`

// --- Fakes ---

type recorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func (r *recorder) Publish(ev entity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []entity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Event(nil), r.events...)
}

func (r *recorder) Last() entity.Event {
	evs := r.Events()
	if len(evs) == 0 {
		return entity.Event{}
	}
	return evs[len(evs)-1]
}

type fakeAcquirer struct {
	dir    string
	audio  bool
	err    error
	source *port.Source
}

func (f *fakeAcquirer) Acquire(_ context.Context, namespace string, origin entity.Origin) (*port.Source, error) {
	if f.err != nil {
		return nil, f.err
	}
	video := origin.VideoPath
	if video == "" {
		video = filepath.Join(f.dir, namespace+"_video.mp4")
	}
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		return nil, err
	}
	f.source = &port.Source{VideoPath: video}
	if f.audio {
		f.source.AudioPath = filepath.Join(f.dir, namespace+"_audio.m4a")
		f.source.Remote = true
		if err := os.WriteFile(f.source.AudioPath, []byte("audio"), 0o644); err != nil {
			return nil, err
		}
	}
	return f.source, nil
}

type fakeExtractor struct {
	frames int
	err    error
	// during runs while the tool would be working.
	during func()
}

func (f *fakeExtractor) ExtractFrames(ctx context.Context, _ string, outputDir string, _ float64) (*port.FrameExtractionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.during != nil {
		f.during()
	}
	if err := ctx.Err(); err != nil {
		return nil, entity.NewStageError(entity.ErrExtraction, "extract frames", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	for i := 1; i <= f.frames; i++ {
		name := filepath.Join(outputDir, fmt.Sprintf("betmc_img_%d_frame.png", i))
		if err := os.WriteFile(name, []byte(fmt.Sprintf("png-%d", i)), 0o644); err != nil {
			return nil, err
		}
	}
	return &port.FrameExtractionResult{FrameCount: f.frames, VideoDuration: float64(f.frames) / 30}, nil
}

type fakeEncoder struct {
	mu        sync.Mutex
	failOn    string
	failWith  error
	encoded   []string
	qualities []int
}

func (f *fakeEncoder) EncodeJPEG(_ context.Context, src, dst string, quality int) error {
	if f.failOn != "" && filepath.Base(src) == f.failOn {
		if f.failWith != nil {
			return f.failWith
		}
		return errors.New("magick: corrupt image")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.encoded = append(f.encoded, filepath.Base(src))
	f.qualities = append(f.qualities, quality)
	f.mu.Unlock()
	return os.WriteFile(dst, append([]byte("jpeg:"), data...), 0o644)
}

func (f *fakeEncoder) Resize(_ context.Context, src, dst string, width, height int) error {
	if _, err := os.Stat(src); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte(fmt.Sprintf("icon %dx%d", width, height)), 0o644)
}

type fakeTranscoder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeTranscoder) TranscodeOgg(_ context.Context, src, dst string) error {
	if f.err != nil {
		return entity.NewStageError(entity.ErrTranscode, "transcode", f.err)
	}
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(dst))
	f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("ogg:"+filepath.Base(src)), 0o644)
}

type fakeFetcher struct {
	bodies map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("GET %s: 404 Not Found", url)
	}
	return body, nil
}

func (f *fakeFetcher) Download(ctx context.Context, url string, dst io.Writer) (int64, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	return io.Copy(dst, bytes.NewReader(body))
}

type failingArchiver struct{}

func (failingArchiver) Archive(context.Context, string, string) error {
	return errors.New("zip: disk full")
}

type fakeDLQ struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeDLQ) PublishToDLQ(_ context.Context, _ []byte, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) NotifyReady(_ context.Context, email, _, downloadURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email+" "+downloadURL)
	return nil
}

// --- Harness ---

type harness struct {
	uc          *GeneratePackUseCase
	events      *recorder
	repo        *memory.JobRepository
	acquirer    *fakeAcquirer
	extractor   *fakeExtractor
	encoder     *fakeEncoder
	transcoder  *fakeTranscoder
	fetcher     *fakeFetcher
	archiver    port.Archiver
	dlq         *fakeDLQ
	notifier    *fakeNotifier
	outputRoot  string
	zipDir      string
	uploadDir   string
	maxSessions int
}

func soundBundle(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"random/click.ogg":     "click",
		"music/game/calm1.ogg": "calm",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newHarness(t *testing.T, frames int) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		events:     &recorder{},
		repo:       memory.NewJobRepository(),
		extractor:  &fakeExtractor{frames: frames},
		encoder:    &fakeEncoder{},
		transcoder: &fakeTranscoder{},
		fetcher: &fakeFetcher{bodies: map[string][]byte{
			manifestURL: []byte(manifestTemplate),
			soundsURL:   soundBundle(t),
		}},
		archiver:   archive.NewZipper(),
		dlq:        &fakeDLQ{},
		notifier:   &fakeNotifier{},
		outputRoot: filepath.Join(root, "output"),
		zipDir:     filepath.Join(root, "zips"),
		uploadDir:  filepath.Join(root, "uploads"),
	}
	require.NoError(t, os.MkdirAll(h.uploadDir, 0o755))
	h.acquirer = &fakeAcquirer{dir: h.uploadDir}
	return h
}

func (h *harness) build(t *testing.T) *GeneratePackUseCase {
	t.Helper()
	gen, err := layout.NewGenerator(layout.DefaultConfig())
	require.NoError(t, err)

	logger := zap.NewNop()
	asm := NewAssembler(h.fetcher, archive.NewExtractor(archive.ExtractorConfig{}), h.transcoder, h.encoder, gen, h.uploadDir, logger)
	h.uc = NewGeneratePackUseCase(Deps{
		Acquirer:  h.acquirer,
		Extractor: h.extractor,
		Encoder:   h.encoder,
		Assembler: asm,
		Archiver:  h.archiver,
		Archives:  localstore.NewArchives(h.zipDir, "/zips"),
		Repo:      h.repo,
		Progress:  h.events,
		Notifier:  h.notifier,
		DLQ:       h.dlq,
	}, logger, GeneratePackConfig{
		OutputRoot:            h.outputRoot,
		ZipDir:                h.zipDir,
		UploadDir:             h.uploadDir,
		ManifestTemplateURL:   manifestURL,
		SoundBundleURL:        soundsURL,
		MaxConcurrentSessions: h.maxSessions,
	})
	return h.uc
}

func uploadRequest(h *harness) *entity.GenerationRequest {
	return &entity.GenerationRequest{
		Origin:       entity.Origin{Kind: entity.OriginUpload, VideoPath: filepath.Join(h.uploadDir, "clip.mp4")},
		FrameRate:    30,
		ImageQuality: 80,
		DisplayName:  "Sunset",
	}
}

func readZip(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = data
	}
	return out
}
