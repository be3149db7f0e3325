package pipeline

import (
	"context"
	"errors"

	"github.com/dunamismax/edgeresize/internal/domain"
)

// ErrUnrecognizedFormat is returned by Inspect when no registered decoder accepts the bytes.
var ErrUnrecognizedFormat = errors.New("unrecognized image format")

// Transformer is the codec behind the pipeline. Inspect reads header metadata only;
// Transform decodes, normalizes orientation, contain-fits into opts and re-encodes.
type Transformer interface {
	Inspect(ctx context.Context, input []byte) (domain.SourceMetadata, error)
	Transform(ctx context.Context, input []byte, opts domain.ImageOptions) ([]byte, error)
}

type TransformerConfig struct {
	JPEGQuality int
}

const DefaultJPEGQuality = 80

func jpegQuality(quality int) int {
	if quality <= 0 || quality > 100 {
		return DefaultJPEGQuality
	}
	return quality
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
