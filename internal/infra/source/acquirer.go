// Package source resolves a request origin to local video and audio files.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"go.uber.org/zap"
)

type runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

var youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var tiktokURLs = []*regexp.Regexp{
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?tiktok\.com/@[\w.-]+/video/(\d+)`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?tiktok\.com/t/([A-Za-z0-9]+)`),
	regexp.MustCompile(`^(?:https?://)?vm\.tiktok\.com/([A-Za-z0-9]+)`),
	regexp.MustCompile(`^(?:https?://)?vt\.tiktok\.com/([A-Za-z0-9]+)`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?tiktok\.com/v/(\d+)`),
}

// TikTokID returns the video id or short code embedded in a TikTok URL.
func TikTokID(url string) (string, bool) {
	url = strings.TrimSpace(url)
	for _, re := range tiktokURLs {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func ValidYouTubeID(id string) bool {
	return youtubeID.MatchString(id)
}

// YouTubeFormat maps a quality choice to a yt-dlp format selector.
func YouTubeFormat(quality string) string {
	switch quality {
	case "480", "1080":
		return fmt.Sprintf("best[height>=%[1]s][height<=%[1]s]/best[height<=%[1]s]", quality)
	case "best":
		return "best[vcodec!=none]/best"
	default:
		return "best[height>=720][height<=720]/best[height<=720]"
	}
}

func youtubeURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

type Config struct {
	YTDLPPath  string
	ScratchDir string
}

type Acquirer struct {
	run    runner
	flags  port.FeatureFlags
	cfg    Config
	logger *zap.Logger
}

func NewAcquirer(run runner, flags port.FeatureFlags, logger *zap.Logger, cfg Config) *Acquirer {
	if cfg.YTDLPPath == "" {
		cfg.YTDLPPath = "yt-dlp"
	}
	return &Acquirer{run: run, flags: flags, cfg: cfg, logger: logger}
}

func (a *Acquirer) Acquire(ctx context.Context, namespace string, origin entity.Origin) (*port.Source, error) {
	op := "acquire " + string(origin.Kind)

	if !a.enabled(origin.Kind) {
		return nil, entity.NewStageError(entity.ErrAcquisition, op, entity.ErrFeatureDisabled)
	}

	var (
		src *port.Source
		err error
	)
	switch origin.Kind {
	case entity.OriginUpload:
		src, err = a.upload(origin)
	case entity.OriginYouTube:
		src, err = a.youtube(ctx, namespace, origin)
	case entity.OriginTikTok:
		src, err = a.tiktok(ctx, namespace, origin)
	default:
		err = fmt.Errorf("unknown origin %q", origin.Kind)
	}
	if err != nil {
		return nil, entity.NewStageError(entity.ErrAcquisition, op, err)
	}
	return src, nil
}

func (a *Acquirer) enabled(kind entity.OriginKind) bool {
	if a.flags == nil {
		return true
	}
	switch kind {
	case entity.OriginUpload:
		return a.flags.UploadEnabled()
	case entity.OriginYouTube:
		return a.flags.YouTubeEnabled()
	case entity.OriginTikTok:
		return a.flags.TikTokEnabled()
	}
	return false
}

func (a *Acquirer) upload(origin entity.Origin) (*port.Source, error) {
	info, err := os.Stat(origin.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("stat uploaded video: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, errors.New("uploaded video is empty")
	}
	return &port.Source{VideoPath: origin.VideoPath}, nil
}

func (a *Acquirer) youtube(ctx context.Context, namespace string, origin entity.Origin) (*port.Source, error) {
	if !ValidYouTubeID(origin.YouTubeID) {
		return nil, fmt.Errorf("invalid youtube video id %q", origin.YouTubeID)
	}

	video := a.scratch(namespace + "_youtube.mp4")
	a.logger.Info("downloading youtube video", zap.String("video_id", origin.YouTubeID), zap.String("quality", origin.Quality))
	if err := a.download(ctx, youtubeURL(origin.YouTubeID), video,
		"-f", YouTubeFormat(origin.Quality),
		"--merge-output-format", "mp4",
		"-S", "res,fps,vcodec:h264,acodec:aac,vbr,abr",
	); err != nil {
		return nil, fmt.Errorf("download youtube video: %w", err)
	}

	src := &port.Source{VideoPath: video, Remote: true}
	audio, err := a.audio(ctx, namespace, origin, func(ctx context.Context) (string, error) {
		return a.youtubeAudio(ctx, origin.YouTubeID, a.scratch(namespace+"_audio.m4a"))
	})
	if err != nil {
		os.Remove(video)
		return nil, err
	}
	src.AudioPath = audio
	return src, nil
}

func (a *Acquirer) tiktok(ctx context.Context, namespace string, origin entity.Origin) (*port.Source, error) {
	if _, ok := TikTokID(origin.TikTokURL); !ok {
		return nil, fmt.Errorf("invalid tiktok url %q", origin.TikTokURL)
	}

	video := a.scratch(namespace + "_tiktok.mp4")
	a.logger.Info("downloading tiktok video", zap.String("url", origin.TikTokURL))
	if err := a.download(ctx, origin.TikTokURL, video,
		"-f", "best[vcodec!=none]/best",
		"--merge-output-format", "mp4",
	); err != nil {
		return nil, fmt.Errorf("download tiktok video: %w", err)
	}

	src := &port.Source{VideoPath: video, Remote: true}
	audio, err := a.audio(ctx, namespace, origin, func(ctx context.Context) (string, error) {
		return a.tiktokAudio(ctx, origin.TikTokURL, a.scratch(namespace+"_tiktok_audio.mp3"))
	})
	if err != nil {
		os.Remove(video)
		return nil, err
	}
	src.AudioPath = audio
	return src, nil
}

// audio resolves the optional remote audio track. A separate source wins
// over the video's own track.
func (a *Acquirer) audio(ctx context.Context, namespace string, origin entity.Origin, own func(context.Context) (string, error)) (string, error) {
	sep := strings.TrimSpace(origin.SeparateAudio)
	switch {
	case sep != "":
		if _, ok := TikTokID(sep); ok {
			return a.tiktokAudio(ctx, sep, a.scratch(namespace+"_separate_audio.mp3"))
		}
		if !ValidYouTubeID(sep) {
			return "", fmt.Errorf("invalid separate audio source %q", sep)
		}
		return a.youtubeAudio(ctx, sep, a.scratch(namespace+"_separate_audio.m4a"))
	case origin.UseSourceAudio:
		return own(ctx)
	}
	return "", nil
}

func (a *Acquirer) youtubeAudio(ctx context.Context, id, dst string) (string, error) {
	if err := a.download(ctx, youtubeURL(id), dst, "-f", "bestaudio[ext=m4a]"); err != nil {
		return "", fmt.Errorf("download youtube audio: %w", err)
	}
	return dst, nil
}

func (a *Acquirer) tiktokAudio(ctx context.Context, url, dst string) (string, error) {
	if err := a.download(ctx, url, dst, "-x", "--audio-format", "mp3"); err != nil {
		return "", fmt.Errorf("download tiktok audio: %w", err)
	}
	return dst, nil
}

func (a *Acquirer) download(ctx context.Context, url, dst string, args ...string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	args = append(args, "--no-playlist", "--no-progress", "-o", dst, url)
	if _, err := a.run.Run(ctx, a.cfg.YTDLPPath, args...); err != nil {
		return err
	}
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("downloaded file missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("downloaded file is empty")
	}
	return nil
}

func (a *Acquirer) scratch(name string) string {
	return filepath.Join(a.cfg.ScratchDir, name)
}
