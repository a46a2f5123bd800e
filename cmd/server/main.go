package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/app"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/config"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/httpapi"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/tracing"
	"github.com/heenao9k/betmc-ui-generator/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting betmc server", zap.String("addr", cfg.HTTPAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName: "betmc-server",
		Endpoint:    cfg.JaegerEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	for _, dir := range []string{cfg.UploadDir, cfg.ZipDir, cfg.OutputRoot} {
		fatalOnErr(os.MkdirAll(dir, 0o755), "create "+dir)
	}

	a, err := app.Build(ctx, cfg, log)
	fatalOnErr(err, "wire pipeline")
	defer a.Close()

	api := httpapi.NewServer(a.UseCase, a.Bus, a.Settings, log, httpapi.Config{
		UploadDir:        cfg.UploadDir,
		ZipDir:           cfg.ZipDir,
		RateLimitPerHour: cfg.RateLimitPerHour,
		MaxUploadBytes:   cfg.MaxUploadMB << 20,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.Sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
	}
	log.Info("betmc server stopped, waiting for running sessions")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
