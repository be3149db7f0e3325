package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient reads from any S3-compatible endpoint, typically a local MinIO standing
// in for the production origin.
type MinioClient struct {
	minio *minio.Client
}

func NewMinioClient(cfg Config) (*MinioClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioClient{minio: mc}, nil
}

func (c *MinioClient) ReadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.minio.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(fmt.Sprintf("get object %s/%s", bucket, key), err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinioError(fmt.Sprintf("read object %s/%s", bucket, key), err)
	}
	return data, nil
}

func classifyMinioError(op string, err error) error {
	if isMinioNotFound(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrObjectNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchObject", "NoSuchBucket":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}
