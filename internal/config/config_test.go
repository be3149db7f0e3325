package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, ":8080", cfg.API.Addr)
	require.Equal(t, 15*time.Second, cfg.API.ReadTimeout)
	require.Equal(t, "s3", cfg.Storage.Backend)
	require.Equal(t, 80, cfg.Transform.JPEGQuality)
	require.Equal(t, "none", cfg.Tracing.Exporter)
	require.False(t, cfg.RateLimit.Enabled)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("EDGERESIZE_STORAGE_BACKEND", "local")
	t.Setenv("EDGERESIZE_STORAGE_LOCAL_ROOT", "/srv/images")
	t.Setenv("EDGERESIZE_ORIGIN_BUCKET_DOMAIN", "images.s3.amazonaws.com")
	t.Setenv("EDGERESIZE_RATE_LIMIT_ENABLED", "true")
	t.Setenv("EDGERESIZE_RATE_LIMIT_WINDOW", "30s")
	t.Setenv("EDGERESIZE_TRANSFORM_JPEG_QUALITY", "65")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Storage.Backend)
	require.Equal(t, "/srv/images", cfg.Storage.Storage().LocalRoot)
	require.Equal(t, "images.s3.amazonaws.com", cfg.Origin.BucketDomain)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.Equal(t, 65, cfg.Transform.Transformer().JPEGQuality)
	require.NoError(t, cfg.ValidateServe())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
log:
  level: debug
  format: console
tracing:
  exporter: stdout
  sample-ratio: 0.25
`), 0o600))

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)
	require.Equal(t, "stdout", cfg.Tracing.Telemetry().Exporter)
	require.InDelta(t, 0.25, cfg.Tracing.Telemetry().SampleRatio, 1e-9)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			API:       APIConfig{Addr: ":8080"},
			Origin:    OriginConfig{BucketDomain: "images.s3.amazonaws.com"},
			Storage:   StorageConfig{Backend: "s3"},
			Transform: TransformConfig{JPEGQuality: 80},
			Tracing:   TracingConfig{SampleRatio: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		serve  bool
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "gcs" }},
		{name: "local without root", mutate: func(c *Config) { c.Storage.Backend = "local"; c.Storage.LocalRoot = " " }},
		{name: "minio without endpoint", mutate: func(c *Config) { c.Storage.Backend = "minio" }},
		{name: "quality too high", mutate: func(c *Config) { c.Transform.JPEGQuality = 101 }},
		{name: "sample ratio", mutate: func(c *Config) { c.Tracing.SampleRatio = 2 }},
		{name: "rate limit capacity", mutate: func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, RedisAddr: "localhost:6379", Window: time.Second}
		}},
		{name: "rate limit window", mutate: func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, RedisAddr: "localhost:6379", Capacity: 1}
		}},
		{name: "serve without bucket domain", mutate: func(c *Config) { c.Origin.BucketDomain = "" }, serve: true},
	}

	base := valid()
	require.NoError(t, base.ValidateServe())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if tt.serve {
				require.NoError(t, cfg.Validate())
				require.Error(t, cfg.ValidateServe())
				return
			}
			require.Error(t, cfg.Validate())
		})
	}
}
