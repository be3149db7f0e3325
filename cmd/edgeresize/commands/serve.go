package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/edgeresize/internal/api"
	"github.com/dunamismax/edgeresize/internal/config"
	"github.com/dunamismax/edgeresize/internal/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resize requests over HTTP as a CDN custom origin",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Bool("rate-limit", false, "Enable the redis token bucket")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address for rate limiting")

	mustBind("api.addr", serveCmd.Flags().Lookup("addr"))
	mustBind("rate-limit.enabled", serveCmd.Flags().Lookup("rate-limit"))
	mustBind("rate-limit.redis-addr", serveCmd.Flags().Lookup("redis-addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig((*config.Config).ValidateServe)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	logger := a.logger

	opts := api.Options{
		BucketDomain:           cfg.Origin.BucketDomain,
		RateLimitSubjectHeader: cfg.RateLimit.SubjectHeader,
	}
	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis_close_failed", zap.Error(err))
			}
		}()

		limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Window, "")
		if err != nil {
			return fmt.Errorf("build rate limiter: %w", err)
		}
		opts.RateLimiter = limiter
	}

	server := api.NewServer(logger, a.handler, opts)
	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	return serveUntilDone(ctx, httpServer, logger, cfg.API.ShutdownTimeout, a.close)
}

// serveUntilDone runs httpServer until ctx is done or the listener fails. Both paths shut
// the server down and run closeApp, so traces are flushed even when the port is taken.
func serveUntilDone(
	ctx context.Context,
	httpServer *http.Server,
	logger *zap.Logger,
	shutdownTimeout time.Duration,
	closeApp func(context.Context) error,
) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("http_shutting_down", zap.Bool("listen_failed", serveErr != nil))
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful_shutdown_failed", zap.Error(err))
	}
	return errors.Join(serveErr, closeApp(shutdownCtx))
}
