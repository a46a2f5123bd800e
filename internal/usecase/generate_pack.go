package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/framestore"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/metrics"
	"github.com/heenao9k/betmc-ui-generator/internal/progress"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Deps are the adapters the pipeline drives. Notifier, VideoStorage and DLQ
// may be nil.
type Deps struct {
	Acquirer   port.SourceAcquirer
	Extractor  port.FrameExtractor
	Encoder    port.ImageEncoder
	Assembler  *Assembler
	Archiver   port.Archiver
	Archives   port.ArchiveStorage
	Repo       port.JobRepository
	Progress   port.ProgressPublisher
	Notifier   port.ReadyNotifier
	Videos     port.VideoStorage
	DLQ        port.DLQPublisher
	FrameStore func(dir string) port.FrameStore
}

type GeneratePackConfig struct {
	OutputRoot string
	ZipDir     string
	UploadDir  string

	ManifestTemplateURL string
	SoundBundleURL      string

	// MaxConcurrentSessions caps sessions running the pipeline at once.
	// Zero means unlimited.
	MaxConcurrentSessions int
}

type GeneratePackUseCase struct {
	deps   Deps
	cfg    GeneratePackConfig
	slots  *semaphore.Weighted
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewGeneratePackUseCase(deps Deps, logger *zap.Logger, cfg GeneratePackConfig) *GeneratePackUseCase {
	if deps.FrameStore == nil {
		deps.FrameStore = func(dir string) port.FrameStore { return framestore.NewDisk(dir) }
	}
	uc := &GeneratePackUseCase{deps: deps, cfg: cfg, logger: logger}
	if cfg.MaxConcurrentSessions > 0 {
		uc.slots = semaphore.NewWeighted(int64(cfg.MaxConcurrentSessions))
	}
	return uc
}

// Start runs the session in the background. Wait blocks until every started
// session has ended.
func (uc *GeneratePackUseCase) Start(ctx context.Context, sessionID string, req *entity.GenerationRequest) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		_, _ = uc.Execute(context.WithoutCancel(ctx), sessionID, req)
	}()
}

func (uc *GeneratePackUseCase) Wait() {
	uc.wg.Wait()
}

// Execute runs one session to completion. Exactly one terminal event, the
// completion or the error, is published for sessionID.
func (uc *GeneratePackUseCase) Execute(ctx context.Context, sessionID string, req *entity.GenerationRequest) (*entity.CompletionEvent, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "GeneratePackUseCase.Execute")
	defer span.End()

	rep := progress.NewReporter(uc.deps.Progress, sessionID)
	log := uc.logger.With(zap.String("session_id", sessionID))

	req.ApplyDefaults(uc.cfg.ManifestTemplateURL, uc.cfg.SoundBundleURL)
	if err := req.Validate(); err != nil {
		log.Warn("request rejected", zap.Error(err))
		metrics.SessionsTotal.WithLabelValues("rejected").Inc()
		rep.Fail(entity.UserMessage(err))
		return nil, err
	}

	session, err := entity.NewSession(sessionID, uc.cfg.OutputRoot)
	if err != nil {
		rep.Fail(entity.UserMessage(err))
		return nil, fmt.Errorf("create session: %w", err)
	}
	log = log.With(zap.String("namespace", session.Namespace))
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("session.namespace", session.Namespace),
		attribute.String("session.origin", string(req.Origin.Kind)),
	)

	job := entity.NewJob(session, req)
	if err := uc.deps.Repo.Create(ctx, job); err != nil {
		log.Error("failed to create job record", zap.Error(err))
	}

	if err := uc.admit(ctx, rep); err != nil {
		uc.fail(ctx, job, rep, err, log)
		return nil, err
	}
	defer uc.release()

	job.MarkProcessing()
	if err := uc.deps.Repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
	}

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	start := time.Now()
	done, err := uc.run(ctx, session, req, rep, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		job.FrameCount = session.FrameCount
		uc.fail(ctx, job, rep, err, log)
		return nil, err
	}

	job.MarkCompleted(session.ArchiveName(), done.DownloadURL, session.FrameCount)
	if err := uc.deps.Repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
	}

	rep.Complete(*done)
	metrics.SessionsTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())

	log.Info("pack generated",
		zap.Int("frame_count", session.FrameCount),
		zap.String("download_url", done.DownloadURL),
		zap.Duration("elapsed", time.Since(start)),
	)

	if req.NotifyEmail != "" && uc.deps.Notifier != nil {
		if err := uc.deps.Notifier.NotifyReady(ctx, req.NotifyEmail, req.DisplayName, done.DownloadURL); err != nil {
			log.Warn("ready notification failed", zap.Error(err))
		}
	}
	return done, nil
}

func (uc *GeneratePackUseCase) admit(ctx context.Context, rep *progress.Reporter) error {
	if uc.slots == nil {
		return nil
	}
	if uc.slots.TryAcquire(1) {
		return nil
	}
	rep.Progress(1, 0, "Waiting in queue...", nil)
	metrics.QueuedSessions.Inc()
	defer metrics.QueuedSessions.Dec()
	if err := uc.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for session slot: %w", err)
	}
	return nil
}

func (uc *GeneratePackUseCase) release() {
	if uc.slots != nil {
		uc.slots.Release(1)
	}
}

func (uc *GeneratePackUseCase) fail(ctx context.Context, job *entity.Job, rep *progress.Reporter, err error, log *zap.Logger) {
	kind := "internal"
	if k := entity.KindOf(err); k != nil {
		kind = k.Error()
	}
	fields := []zap.Field{zap.Error(err), zap.String("kind", kind)}
	var se *entity.StageError
	if errors.As(err, &se) && se.Detail != "" {
		fields = append(fields, zap.String("detail", se.Detail))
	}
	log.Error("generation failed", fields...)

	job.MarkFailed(err.Error(), job.FrameCount)
	if uerr := uc.deps.Repo.Update(ctx, job); uerr != nil {
		log.Error("failed to update job to FAILED", zap.Error(uerr))
	}

	metrics.SessionsTotal.WithLabelValues("failed").Inc()
	metrics.SessionFailuresTotal.WithLabelValues(kind).Inc()
	rep.Fail(entity.UserMessage(err))
}

// run executes the stages in order. The output directory is kept when a
// stage fails.
func (uc *GeneratePackUseCase) run(
	ctx context.Context,
	s *entity.Session,
	req *entity.GenerationRequest,
	rep *progress.Reporter,
	log *zap.Logger,
) (*entity.CompletionEvent, error) {
	asm := uc.deps.Assembler

	rep.Progress(1, 5, "Starting...", nil)

	// Acquire source
	rep.Progress(2, 10, "Preparing source video...", nil)
	var src *port.Source
	err := uc.stage(ctx, "acquire", func(ctx context.Context) error {
		var err error
		src, err = uc.deps.Acquirer.Acquire(ctx, s.Namespace, req.Origin)
		return err
	})
	if err != nil {
		return nil, err
	}
	audio := src.AudioPath
	if audio == "" {
		audio = req.AudioPath
	}

	// Extract frames
	rep.Progress(3, 15, "Extracting frames from video...", nil)
	err = uc.stage(ctx, "extract", func(ctx context.Context) error {
		res, err := uc.deps.Extractor.ExtractFrames(ctx, src.VideoPath, s.FrameDir(), req.FrameRate)
		if err != nil {
			return err
		}
		s.FrameCount = res.FrameCount
		metrics.FramesExtractedTotal.Add(float64(res.FrameCount))
		if res.VideoDuration > 0 {
			metrics.SourceDurationSeconds.Observe(res.VideoDuration)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.FrameCount == 0 {
		return nil, entity.NewStageError(entity.ErrExtraction, "extract frames", entity.ErrNoFrames)
	}
	if err := os.Remove(src.VideoPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove source video", zap.Error(err))
	}

	// Compress frames
	store := uc.deps.FrameStore(s.FrameDir())
	rep.Progress(4, compressStart, fmt.Sprintf("Found %d frames, compressing...", s.FrameCount), nil)
	err = uc.stage(ctx, "compress", func(ctx context.Context) error {
		return CompressFrames(ctx, store, uc.deps.Encoder, req.ImageQuality, func(done, total, percent, eta int) {
			rep.Progress(4, percent, fmt.Sprintf("Compressing frame %d/%d", done, total), progress.ETA(eta))
		})
	})
	if err != nil {
		return nil, err
	}

	rep.Progress(5, 50, "Organizing files...", nil)
	if err := StripCompressedPrefix(store); err != nil {
		return nil, err
	}
	patched, err := asm.StaticPatch(s, store)
	if err != nil {
		return nil, err
	}
	if !patched {
		log.Debug("video too short for static patch", zap.Int("frame_count", s.FrameCount))
	}

	// Assemble assets
	rep.Progress(6, 55, "Downloading manifest.json...", nil)
	err = uc.stage(ctx, "manifest", func(ctx context.Context) error {
		return asm.WriteManifest(ctx, s, req.ManifestTemplateURL, req.DisplayName)
	})
	if err != nil {
		return nil, err
	}

	rep.Progress(7, 60, "Downloading sound files...", nil)
	err = uc.stage(ctx, "sounds", func(ctx context.Context) error {
		return asm.InstallSounds(ctx, s, req.SoundBundleURL, func() {
			rep.Progress(8, 65, "Extracting sound files...", nil)
		})
	})
	if err != nil {
		return nil, err
	}

	if audio != "" {
		rep.Progress(9, 70, "Converting audio...", nil)
		err = uc.stage(ctx, "audio", func(ctx context.Context) error {
			return asm.InstallMusic(ctx, s, audio)
		})
		if err != nil {
			return nil, err
		}
		if src.AudioPath != "" && src.Remote {
			if err := os.Remove(src.AudioPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn("failed to remove downloaded audio", zap.Error(err))
			}
		}
	}

	rep.Progress(10, 75, "Copying additional files...", nil)
	if req.IconPath != "" {
		if err := asm.InstallIcon(ctx, s, req.IconPath); err != nil {
			return nil, err
		}
	}

	rep.Progress(11, 80, "Writing config files...", nil)
	if err := asm.WriteConfigs(s, req.FrameRate); err != nil {
		return nil, err
	}

	rep.Progress(12, 85, "Generating UI files...", nil)
	if err := uc.stage(ctx, "layout", func(context.Context) error { return asm.WriteUI(s, req.FrameRate) }); err != nil {
		return nil, err
	}

	// Archive
	rep.Progress(13, 90, "Creating zip archive...", nil)
	zipPath := filepath.Join(uc.cfg.ZipDir, s.ArchiveName())
	err = uc.stage(ctx, "archive", func(ctx context.Context) error {
		if err := uc.deps.Archiver.Archive(ctx, s.OutputDir, zipPath); err != nil {
			return entity.NewStageError(entity.ErrArchive, "archive output", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(s.OutputDir); err != nil {
		log.Warn("failed to remove output dir", zap.Error(err))
	}

	var downloadURL string
	err = uc.stage(ctx, "publish", func(ctx context.Context) error {
		var err error
		downloadURL, err = uc.deps.Archives.PublishArchive(ctx, s.ArchiveName(), zipPath)
		if err != nil {
			return entity.NewStageError(entity.ErrArchive, "publish archive", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rep.Progress(14, 100, "Done!", nil)
	return &entity.CompletionEvent{
		DownloadURL: downloadURL,
		TextureName: req.DisplayName,
		Namespace:   s.Namespace,
	}, nil
}

// stage runs fn inside a span and records its duration.
func (uc *GeneratePackUseCase) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := otel.Tracer("usecase").Start(ctx, name, trace.WithAttributes(attribute.String("stage", name)))
	defer span.End()

	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// HandleMessage runs a queued generation request. Malformed messages go to
// the DLQ. Pipeline failures are reported on the progress bus and the
// message is still acknowledged: resubmitting is up to the producer. Once
// accepted, a request runs to completion even if ctx is cancelled.
func (uc *GeneratePackUseCase) HandleMessage(ctx context.Context, body []byte) error {
	ctx = context.WithoutCancel(ctx)

	var msg entity.GenerationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", body))
		uc.deadLetter(ctx, body, "unmarshal_error: "+err.Error())
		return nil
	}

	if msg.SessionID == "" {
		id, err := entity.NewToken()
		if err != nil {
			return fmt.Errorf("generate session id: %w", err)
		}
		msg.SessionID = id
	}

	req := msg.Request()
	if msg.VideoKey != "" && req.Origin.Kind == entity.OriginUpload {
		if uc.deps.Videos == nil {
			uc.deadLetter(ctx, body, "video_key given but no object storage is configured")
			return nil
		}
		dst := filepath.Join(uc.cfg.UploadDir, msg.SessionID+"_"+filepath.Base(msg.VideoKey))
		if err := os.MkdirAll(uc.cfg.UploadDir, 0o755); err != nil {
			return fmt.Errorf("create upload dir: %w", err)
		}
		if err := uc.deps.Videos.DownloadVideo(ctx, msg.VideoKey, dst); err != nil {
			uc.logger.Error("failed to stage queued video", zap.String("video_key", msg.VideoKey), zap.Error(err))
			uc.deadLetter(ctx, body, "download_video: "+err.Error())
			return nil
		}
		req.Origin.VideoPath = dst
	}

	if _, err := uc.Execute(ctx, msg.SessionID, req); errors.Is(err, entity.ErrInvalidRequest) {
		uc.deadLetter(ctx, body, "invalid_request: "+err.Error())
	}
	return nil
}

func (uc *GeneratePackUseCase) deadLetter(ctx context.Context, body []byte, reason string) {
	if uc.deps.DLQ == nil {
		return
	}
	if err := uc.deps.DLQ.PublishToDLQ(ctx, body, reason); err != nil {
		uc.logger.Error("failed to publish to dlq", zap.Error(err))
	}
}
