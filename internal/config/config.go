package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dunamismax/edgeresize/internal/logging"
	"github.com/dunamismax/edgeresize/internal/pipeline"
	"github.com/dunamismax/edgeresize/internal/storage"
	"github.com/dunamismax/edgeresize/internal/telemetry"
	"github.com/spf13/viper"
)

const EnvPrefix = "EDGERESIZE"

type Config struct {
	Log       logging.Config  `mapstructure:"log"`
	API       APIConfig       `mapstructure:"api"`
	Origin    OriginConfig    `mapstructure:"origin"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Transform TransformConfig `mapstructure:"transform"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"rate-limit"`
}

type APIConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

// OriginConfig stands in for the CloudFront origin when requests arrive over plain HTTP.
type OriginConfig struct {
	BucketDomain string `mapstructure:"bucket-domain"`
}

type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access-key"`
	SecretKey string `mapstructure:"secret-key"`
	UseSSL    bool   `mapstructure:"use-ssl"`
	PathStyle bool   `mapstructure:"path-style"`
	LocalRoot string `mapstructure:"local-root"`
}

func (s StorageConfig) Storage() storage.Config {
	return storage.Config{
		Backend:   s.Backend,
		Region:    s.Region,
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		UseSSL:    s.UseSSL,
		PathStyle: s.PathStyle,
		LocalRoot: s.LocalRoot,
	}
}

type TransformConfig struct {
	JPEGQuality int `mapstructure:"jpeg-quality"`
}

func (t TransformConfig) Transformer() pipeline.TransformerConfig {
	return pipeline.TransformerConfig{JPEGQuality: t.JPEGQuality}
}

type TracingConfig struct {
	ServiceName string  `mapstructure:"service-name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample-ratio"`
}

func (t TracingConfig) Telemetry() telemetry.TraceConfig {
	return telemetry.TraceConfig{
		ServiceName:  t.ServiceName,
		Exporter:     t.Exporter,
		OTLPEndpoint: t.Endpoint,
		OTLPInsecure: t.Insecure,
		SampleRatio:  t.SampleRatio,
	}
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis-addr"`
	RedisPassword string        `mapstructure:"redis-password"`
	RedisDB       int           `mapstructure:"redis-db"`
	Capacity      int           `mapstructure:"capacity"`
	Window        time.Duration `mapstructure:"window"`
	SubjectHeader string        `mapstructure:"subject-header"`
}

// SetDefaults registers every key so AutomaticEnv can resolve nested keys on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatJSON)

	v.SetDefault("api.addr", ":8080")
	v.SetDefault("api.read-timeout", 15*time.Second)
	v.SetDefault("api.write-timeout", 30*time.Second)
	v.SetDefault("api.idle-timeout", 60*time.Second)
	v.SetDefault("api.shutdown-timeout", 10*time.Second)

	v.SetDefault("origin.bucket-domain", "")

	v.SetDefault("storage.backend", storage.BackendS3)
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access-key", "")
	v.SetDefault("storage.secret-key", "")
	v.SetDefault("storage.use-ssl", true)
	v.SetDefault("storage.path-style", false)
	v.SetDefault("storage.local-root", "./images")

	v.SetDefault("transform.jpeg-quality", pipeline.DefaultJPEGQuality)

	v.SetDefault("tracing.service-name", "edgeresize")
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample-ratio", 1.0)

	v.SetDefault("rate-limit.enabled", false)
	v.SetDefault("rate-limit.redis-addr", "localhost:6379")
	v.SetDefault("rate-limit.redis-password", "")
	v.SetDefault("rate-limit.redis-db", 0)
	v.SetDefault("rate-limit.capacity", 120)
	v.SetDefault("rate-limit.window", time.Minute)
	v.SetDefault("rate-limit.subject-header", "")
}

// Load reads configuration from defaults, an optional config.yaml and EDGERESIZE_* environment
// variables (EDGERESIZE_STORAGE_BACKEND, EDGERESIZE_RATE_LIMIT_ENABLED, ...).
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.edgeresize")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch backend {
	case storage.BackendS3, storage.BackendMinio:
	case storage.BackendLocal:
		if strings.TrimSpace(c.Storage.LocalRoot) == "" {
			return fmt.Errorf("storage.local-root cannot be empty for the local backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of s3, minio, local: %q", c.Storage.Backend)
	}
	if backend == storage.BackendMinio && strings.TrimSpace(c.Storage.Endpoint) == "" {
		return fmt.Errorf("storage.endpoint cannot be empty for the minio backend")
	}
	if c.Transform.JPEGQuality < 1 || c.Transform.JPEGQuality > 100 {
		return fmt.Errorf("transform.jpeg-quality must be between 1 and 100")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample-ratio must be between 0 and 1")
	}
	if c.RateLimit.Enabled {
		if strings.TrimSpace(c.RateLimit.RedisAddr) == "" {
			return fmt.Errorf("rate-limit.redis-addr cannot be empty when rate limiting is enabled")
		}
		if c.RateLimit.Capacity <= 0 {
			return fmt.Errorf("rate-limit.capacity must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate-limit.window must be positive")
		}
	}
	return nil
}

// ValidateServe adds the checks only the HTTP front needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.API.Addr) == "" {
		return fmt.Errorf("api.addr cannot be empty")
	}
	if strings.TrimSpace(c.Origin.BucketDomain) == "" {
		return fmt.Errorf("origin.bucket-domain cannot be empty")
	}
	return nil
}
