package commands

import (
	"context"
	"fmt"

	"github.com/dunamismax/edgeresize/internal/config"
	"github.com/dunamismax/edgeresize/internal/edge"
	"github.com/dunamismax/edgeresize/internal/logging"
	"github.com/dunamismax/edgeresize/internal/pipeline"
	"github.com/dunamismax/edgeresize/internal/storage"
	"github.com/dunamismax/edgeresize/internal/telemetry"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	handler *edge.Handler

	shutdownTracing telemetry.ShutdownFunc
}

func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

func loadConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing.Telemetry(), logger)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	reader, err := storage.Open(ctx, cfg.Storage.Storage())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	processor, err := pipeline.NewProcessor(pipeline.ObjectStoreFetcher{Storage: reader}, cfg.Transform.Transformer())
	if err != nil {
		return nil, fmt.Errorf("build processor: %w", err)
	}

	logger.Info("edgeresize_ready",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("codec", pipeline.Backend()),
		zap.Int("jpeg_quality", cfg.Transform.JPEGQuality),
	)

	return &app{
		cfg:             cfg,
		logger:          logger,
		handler:         edge.NewHandler(logger, processor),
		shutdownTracing: shutdownTracing,
	}, nil
}

func (a *app) close(ctx context.Context) error {
	pipeline.Shutdown()
	err := a.shutdownTracing(ctx)
	// Sync on stderr fails with EINVAL on most platforms.
	_ = a.logger.Sync()
	return err
}
