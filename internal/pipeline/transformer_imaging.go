package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/edgeresize/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imagingTransformer is the pure-Go codec. Formats it can only decode (gif, webp, bmp,
// tiff) are registered so Inspect names them instead of failing outright.
type imagingTransformer struct {
	quality int
}

func newImagingTransformer(cfg TransformerConfig) imagingTransformer {
	return imagingTransformer{quality: jpegQuality(cfg.JPEGQuality)}
}

func (t imagingTransformer) Inspect(ctx context.Context, input []byte) (domain.SourceMetadata, error) {
	if err := checkContext(ctx); err != nil {
		return domain.SourceMetadata{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return domain.SourceMetadata{}, ErrUnrecognizedFormat
		}
		return domain.SourceMetadata{}, fmt.Errorf("decode source header: %w", err)
	}

	return domain.SourceMetadata{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func (t imagingTransformer) Transform(ctx context.Context, input []byte, opts domain.ImageOptions) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", opts.Width, opts.Height)
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	// Fit returns a copy when src already fits, so this never enlarges.
	out := imaging.Fit(src, opts.Width, opts.Height, imaging.Lanczos)

	var buf bytes.Buffer
	switch opts.Format {
	case domain.FormatJPEG:
		if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case domain.FormatPNG:
		if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", opts.Format)
	}

	return buf.Bytes(), nil
}
