package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/heenao9k/betmc-ui-generator/internal/layout"
	"go.uber.org/zap"
)

const (
	// StaticPatchFrame is the frame copied to the low detail background.
	StaticPatchFrame = 60
	iconSize         = 128
	menuTracks       = 4
)

// Assembler writes everything around the frames into a session's output
// tree: manifest, sounds, music, icon, subpack configs and UI documents.
type Assembler struct {
	fetcher    port.RemoteFetcher
	bundles    port.BundleExtractor
	transcoder port.AudioTranscoder
	encoder    port.ImageEncoder
	layout     *layout.Generator
	scratchDir string
	newUUID    func() uuid.UUID
	logger     *zap.Logger
}

func NewAssembler(
	fetcher port.RemoteFetcher,
	bundles port.BundleExtractor,
	transcoder port.AudioTranscoder,
	encoder port.ImageEncoder,
	gen *layout.Generator,
	scratchDir string,
	logger *zap.Logger,
) *Assembler {
	return &Assembler{
		fetcher:    fetcher,
		bundles:    bundles,
		transcoder: transcoder,
		encoder:    encoder,
		layout:     gen,
		scratchDir: scratchDir,
		newUUID:    uuid.New,
		logger:     logger,
	}
}

// StaticPatch copies frame StaticPatchFrame to the static background path.
// Videos with fewer frames get no patch; that is not an error.
func (a *Assembler) StaticPatch(s *entity.Session, store port.FrameStore) (bool, error) {
	const op = "copy static patch"

	src, err := store.Get(fmt.Sprintf("betmc_img_%d_frame.jpg", StaticPatchFrame))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, entity.NewStageError(entity.ErrCompression, op, err)
	}
	defer src.Close()

	if err := writeFile(s.Path(entity.StaticPatchPath), src); err != nil {
		return false, entity.NewStageError(entity.ErrCompression, op, err)
	}
	return true, nil
}

// WriteManifest fetches the manifest template and stamps it with the display
// name and two fresh UUIDs.
func (a *Assembler) WriteManifest(ctx context.Context, s *entity.Session, templateURL, displayName string) error {
	const op = "write manifest"

	body, err := a.fetcher.Fetch(ctx, templateURL)
	if err != nil {
		return entity.NewStageError(entity.ErrManifestFetch, op, err)
	}

	manifest, err := a.customizeManifest(body, displayName)
	if err != nil {
		return entity.NewStageError(entity.ErrManifestFetch, op, err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return entity.NewStageError(entity.ErrManifestFetch, op, fmt.Errorf("marshal manifest: %w", err))
	}
	if err := writeBytes(s.Path(entity.ManifestFile), data); err != nil {
		return entity.NewStageError(entity.ErrManifestFetch, op, err)
	}
	return nil
}

func (a *Assembler) customizeManifest(body []byte, displayName string) (map[string]any, error) {
	var manifest map[string]any
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest template: %w", err)
	}
	header, ok := manifest["header"].(map[string]any)
	if !ok {
		return nil, errors.New("manifest template has no header object")
	}
	modules, ok := manifest["modules"].([]any)
	if !ok || len(modules) == 0 {
		return nil, errors.New("manifest template has no modules")
	}
	module, ok := modules[0].(map[string]any)
	if !ok {
		return nil, errors.New("manifest template module is not an object")
	}

	header["name"] = displayName
	header["uuid"] = a.newUUID().String()
	module["uuid"] = a.newUUID().String()
	return manifest, nil
}

// InstallSounds downloads the sound bundle to the scratch directory and
// unpacks it under sounds/. downloaded, if set, runs between the two steps.
// The downloaded archive is always removed.
func (a *Assembler) InstallSounds(ctx context.Context, s *entity.Session, bundleURL string, downloaded func()) error {
	const op = "install sounds"

	if err := os.MkdirAll(a.scratchDir, 0o755); err != nil {
		return entity.NewStageError(entity.ErrSoundBundleFetch, op, err)
	}
	tmp := filepath.Join(a.scratchDir, s.Namespace+"_sounds.zip")
	defer os.Remove(tmp)

	f, err := os.Create(tmp)
	if err != nil {
		return entity.NewStageError(entity.ErrSoundBundleFetch, op, err)
	}
	n, err := a.fetcher.Download(ctx, bundleURL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return entity.NewStageError(entity.ErrSoundBundleFetch, op, err)
	}
	if downloaded != nil {
		downloaded()
	}

	if err := a.bundles.Extract(ctx, tmp, s.Path(entity.SoundsDir)); err != nil {
		return entity.NewStageError(entity.ErrSoundBundleFetch, op, err)
	}

	a.logger.Debug("sound bundle installed", zap.Int64("bytes", n))
	return nil
}

// InstallMusic transcodes audio once into menu1.ogg, copies it to the other
// menu slots, and transcodes it a second time into the creative track.
func (a *Assembler) InstallMusic(ctx context.Context, s *entity.Session, audio string) error {
	const op = "install music"

	menuDir := s.Path(entity.MenuMusicDir)
	first := filepath.Join(menuDir, "menu1.ogg")
	if err := a.transcoder.TranscodeOgg(ctx, audio, first); err != nil {
		return err
	}
	for i := 2; i <= menuTracks; i++ {
		dst := filepath.Join(menuDir, fmt.Sprintf("menu%d.ogg", i))
		if err := copyFile(first, dst); err != nil {
			return entity.NewStageError(entity.ErrTranscode, op, err)
		}
	}

	return a.transcoder.TranscodeOgg(ctx, audio, s.Path(entity.CreativeMusicPath))
}

// InstallIcon resizes the uploaded icon to pack_icon.png.
func (a *Assembler) InstallIcon(ctx context.Context, s *entity.Session, icon string) error {
	if err := a.encoder.Resize(ctx, icon, s.Path(entity.PackIconFile), iconSize, iconSize); err != nil {
		return entity.NewStageError(entity.ErrCompression, "install icon", err)
	}
	return nil
}

// WriteConfigs writes the low and high detail subpack configs.
func (a *Assembler) WriteConfigs(s *entity.Session, frameRate float64) error {
	docs := []struct {
		path string
		doc  layout.Object
	}{
		{entity.LowConfigPath, layout.LowDetailConfig()},
		{entity.HighConfigPath, layout.HighDetailConfig(frameRate)},
	}
	for _, d := range docs {
		if err := writeDocument(s.Path(d.path), d.doc); err != nil {
			return fmt.Errorf("write %s: %w", d.path, err)
		}
	}
	return nil
}

// WriteUI generates the timeline, tile layout and UI definitions for the
// session's frames.
func (a *Assembler) WriteUI(s *entity.Session, frameRate float64) error {
	res, err := a.layout.Generate(s.FrameCount, frameRate, s.Namespace)
	if err != nil {
		return fmt.Errorf("generate layout: %w", err)
	}

	docs := []struct {
		path string
		doc  layout.Object
	}{
		{s.TimelinePath(), res.Timeline.Document()},
		{s.Path(entity.CommonUIDir + "/" + entity.TileLayoutFile), res.Tiles.Document()},
		{s.Path(entity.UIDefsPath), res.UIDefs},
	}
	for _, d := range docs {
		if err := writeDocument(d.path, d.doc); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(d.path), err)
		}
	}
	return nil
}

func writeDocument(path string, doc layout.Object) error {
	data, err := layout.Encode(doc)
	if err != nil {
		return err
	}
	return writeBytes(path, data)
}

func writeBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFile(dst, in)
}
