// Package app wires the adapters shared by the server and worker binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/archive"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/cleanup"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/config"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/email"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/ffmpeg"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/localstore"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/magick"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/memory"
	miniostorage "github.com/heenao9k/betmc-ui-generator/internal/infra/minio"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/postgres"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/rabbitmq"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/remote"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/settings"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/source"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/toolexec"
	"github.com/heenao9k/betmc-ui-generator/internal/layout"
	"github.com/heenao9k/betmc-ui-generator/internal/progress"
	"github.com/heenao9k/betmc-ui-generator/internal/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const statusPublishTimeout = 5 * time.Second

// App holds the wired pipeline and the resources it owns.
type App struct {
	Bus      *progress.Bus
	UseCase  *usecase.GeneratePackUseCase
	Settings *settings.Store
	Sweeper  *cleanup.Sweeper

	closers []func()
}

// Build connects every configured backend. Optional backends (Postgres,
// MinIO, RabbitMQ, SMTP) are skipped when their address is empty.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	st, err := settings.Open(cfg.SettingsPath, log)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	a.Settings = st

	a.Bus = progress.NewBus(log, progress.BusConfig{})
	a.Bus.SubscribeAll(progress.LogSink(log))
	a.closers = append(a.closers, a.Bus.Close)

	runner := toolexec.NewRunner(log, toolexec.Config{
		Concurrency: cfg.ToolConcurrency,
		Timeout:     cfg.ToolTimeout,
	})
	ffcfg := ffmpeg.Config{FFmpegPath: cfg.FFmpegPath, FFprobePath: cfg.FFprobePath}
	encoder := magick.NewEncoder(runner, cfg.MagickPath)

	gen, err := layout.NewGenerator(layout.DefaultConfig())
	if err != nil {
		return nil, err
	}
	assembler := usecase.NewAssembler(
		remote.NewFetcher(remote.Config{
			Timeout:          cfg.FetchTimeout,
			MaxDownloadBytes: cfg.SoundBundleMaxMB << 20,
		}),
		archive.NewExtractor(archive.ExtractorConfig{MaxBytes: cfg.SoundBundleMaxExtractedMB << 20}),
		ffmpeg.NewTranscoder(runner, log, ffcfg),
		encoder,
		gen,
		cfg.UploadDir,
		log,
	)

	deps := usecase.Deps{
		Acquirer:  source.NewAcquirer(runner, st, log, source.Config{YTDLPPath: cfg.YTDLPPath, ScratchDir: cfg.UploadDir}),
		Extractor: ffmpeg.NewExtractor(runner, log, ffcfg),
		Encoder:   encoder,
		Assembler: assembler,
		Archiver:  archive.NewZipper(),
		Progress:  a.Bus,
	}

	if deps.Repo, err = a.repository(ctx, cfg, log); err != nil {
		return nil, err
	}

	zipTarget := cleanup.Target{Name: "zips", Dir: cfg.ZipDir}
	if cfg.MinIOEndpoint != "" {
		storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:     cfg.MinIOEndpoint,
			AccessKey:    cfg.MinIOAccessKey,
			SecretKey:    cfg.MinIOSecretKey,
			UseSSL:       cfg.MinIOUseSSL,
			UploadBucket: cfg.MinIOUploadBucket,
			ZipBucket:    cfg.MinIOZipBucket,
			LinkTTL:      cfg.Retention,
		})
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBuckets(ctx); err != nil {
			return nil, fmt.Errorf("ensure minio buckets: %w", err)
		}
		deps.Archives = storage
		deps.Videos = storage
		zipTarget.OnRemove = storage.RemoveArchive
		log.Info("publishing archives to object storage", zap.String("bucket", cfg.MinIOZipBucket))
	} else {
		deps.Archives = localstore.NewArchives(cfg.ZipDir, "/zips")
	}

	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq for publisher: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })

		pub, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		a.Bus.SubscribeAll(progress.Forward(rabbitmq.NewStatusPublisher(pub), statusPublishTimeout, log))
		deps.DLQ = rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)
	}

	if cfg.SMTPHost != "" {
		deps.Notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, log)
	}

	a.UseCase = usecase.NewGeneratePackUseCase(deps, log, usecase.GeneratePackConfig{
		OutputRoot:            cfg.OutputRoot,
		ZipDir:                cfg.ZipDir,
		UploadDir:             cfg.UploadDir,
		ManifestTemplateURL:   cfg.ManifestTemplateURL,
		SoundBundleURL:        cfg.SoundBundleURL,
		MaxConcurrentSessions: cfg.MaxConcurrentSessions,
	})

	a.Sweeper = cleanup.NewSweeper(log,
		cleanup.Config{Retention: cfg.Retention, Interval: cfg.CleanupInterval},
		zipTarget,
		cleanup.Target{Name: "uploads", Dir: cfg.UploadDir},
		cleanup.Target{Name: "output", Dir: cfg.OutputRoot},
	)

	ok = true
	return a, nil
}

func (a *App) repository(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.JobRepository, error) {
	if cfg.DatabaseURL == "" {
		log.Info("no database configured, keeping job records in memory")
		return memory.NewJobRepository(), nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return postgres.NewJobRepository(pool), nil
}

// Close waits for running sessions and releases every resource, newest
// first.
func (a *App) Close() {
	if a.UseCase != nil {
		a.UseCase.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
