package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ObjectReader is implemented by every storage backend.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// ObjectStoreFetcher adapts a storage backend to the fetch stage.
type ObjectStoreFetcher struct {
	Storage ObjectReader
}

func (f ObjectStoreFetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if f.Storage == nil {
		return nil, errors.New("storage client is required")
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	data, err := f.Storage.ReadObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}
