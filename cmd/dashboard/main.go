package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/forest-climate-dashboard/internal/adapter/chart"
	"github.com/couchcryptid/forest-climate-dashboard/internal/adapter/countries"
	httpadapter "github.com/couchcryptid/forest-climate-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/forest-climate-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/forest-climate-dashboard/internal/config"
	"github.com/couchcryptid/forest-climate-dashboard/internal/dataset"
	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/observability"
	"github.com/couchcryptid/forest-climate-dashboard/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	resolver := countries.NewCachedResolver(countries.NewResolver(), cfg.CountryCacheSize, metrics)
	loader := dataset.NewLoader(cfg.ClimateDataPath, cfg.ForestDataPath,
		dataset.WithDelimiter(cfg.CSVDelimiter),
		dataset.WithClock(clock),
	)

	p := pipeline.New(loader, resolver, logger, metrics, clock)
	if err := p.Prepare(); err != nil {
		var loadErr *dataset.DataLoadError
		if errors.As(err, &loadErr) {
			logger.Error("failed to load dataset", "path", loadErr.Path, "error", loadErr.Err)
		} else {
			logger.Error("failed to prepare dashboard data", "error", err)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var snapshot *snapshotRun
	if cfg.SnapshotEnabled {
		publisher := kafkaadapter.NewSnapshotPublisher(cfg, logger, metrics, clock)
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
		snapshot = startSnapshot(ctx, publisher, p.Data().Forest, logger)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, chart.NewRenderer(), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if snapshot != nil {
		snapshot.Close()
	}

	logger.Info("shutdown complete")
}

type snapshotPublisher interface {
	Publish(ctx context.Context, records []domain.ForestRecord) error
	Close() error
}

// snapshotRun is a background snapshot publish. Close waits for the publish
// to return before closing the publisher.
type snapshotRun struct {
	publisher snapshotPublisher
	logger    *slog.Logger
	done      chan struct{}
}

func startSnapshot(ctx context.Context, publisher snapshotPublisher, records []domain.ForestRecord, logger *slog.Logger) *snapshotRun {
	run := &snapshotRun{publisher: publisher, logger: logger, done: make(chan struct{})}
	go func() {
		defer close(run.done)
		if err := publisher.Publish(ctx, records); err != nil {
			logger.Error("snapshot publish failed", "error", err)
		}
	}()
	return run
}

// Close blocks until the publish finishes. Cancel the publish context first
// to cut it short.
func (r *snapshotRun) Close() {
	<-r.done
	if err := r.publisher.Close(); err != nil {
		r.logger.Error("kafka writer close error", "error", err)
	}
}
