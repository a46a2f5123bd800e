package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/app"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/config"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/metrics"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/rabbitmq"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/tracing"
	"github.com/heenao9k/betmc-ui-generator/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required for the worker")
	}

	log.Info("starting betmc worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing is non-fatal if the collector is unavailable
	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName: "betmc-worker",
		Endpoint:    cfg.JaegerEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	a, err := app.Build(ctx, cfg, log)
	fatalOnErr(err, "wire pipeline")
	defer a.Close()

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)
	go a.Sweeper.Run(ctx)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQGenerationQueue,
		RoutingKey:  cfg.RabbitMQRoutingKey,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
	}, a.UseCase.HandleMessage, log)
	fatalOnErr(err, "create consumer")
	defer consumer.Close()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("betmc worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("betmc worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
