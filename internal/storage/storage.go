package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrObjectNotFound is wrapped by every backend when the bucket or key does not exist.
var ErrObjectNotFound = errors.New("object not found")

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendLocal = "local"
)

type Reader interface {
	ReadObject(ctx context.Context, bucket, key string) ([]byte, error)
}

type Config struct {
	Backend   string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
	LocalRoot string
}

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Reader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendS3, "":
		return NewS3Client(ctx, cfg)
	case BackendMinio:
		return NewMinioClient(cfg)
	case BackendLocal:
		return NewLocalDir(cfg.LocalRoot)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
