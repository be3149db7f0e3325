//go:build govips && cgo

package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/edgeresize/internal/domain"
)

type govipsTransformer struct {
	quality int
}

func (t govipsTransformer) Inspect(ctx context.Context, input []byte) (domain.SourceMetadata, error) {
	if err := checkContext(ctx); err != nil {
		return domain.SourceMetadata{}, err
	}

	imageType := vips.DetermineImageType(input)
	if imageType == vips.ImageTypeUnknown {
		return domain.SourceMetadata{}, ErrUnrecognizedFormat
	}

	format := govipsFormatName(imageType)
	if !domain.Supported(format) {
		return domain.SourceMetadata{Format: format}, nil
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return domain.SourceMetadata{}, fmt.Errorf("decode source header: %w", err)
	}
	defer img.Close()

	return domain.SourceMetadata{
		Format: format,
		Width:  img.Width(),
		Height: img.Height(),
	}, nil
}

func (t govipsTransformer) Transform(ctx context.Context, input []byte, opts domain.ImageOptions) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", opts.Width, opts.Height)
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return nil, fmt.Errorf("auto rotate: %w", err)
	}

	if err := applyGovipsFit(img, opts.Width, opts.Height); err != nil {
		return nil, err
	}

	return exportGovipsImage(img, opts.Format, t.quality)
}

func applyGovipsFit(img *vips.ImageRef, width, height int) error {
	if img.Width() <= 0 || img.Height() <= 0 {
		return fmt.Errorf("source image has invalid dimensions")
	}

	scale := math.Min(
		float64(width)/float64(img.Width()),
		float64(height)/float64(img.Height()),
	)
	if scale >= 1 {
		return nil
	}

	if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("resize image: %w", err)
	}
	return nil
}

func govipsFormatName(imageType vips.ImageType) string {
	switch imageType {
	case vips.ImageTypeJPEG:
		return string(domain.FormatJPEG)
	case vips.ImageTypePNG:
		return string(domain.FormatPNG)
	case vips.ImageTypeGIF:
		return "gif"
	case vips.ImageTypeWEBP:
		return "webp"
	case vips.ImageTypeTIFF:
		return "tiff"
	case vips.ImageTypeBMP:
		return "bmp"
	case vips.ImageTypeHEIF:
		return "heif"
	case vips.ImageTypeSVG:
		return "svg"
	default:
		return "unknown"
	}
}

func exportGovipsImage(img *vips.ImageRef, format domain.Format, quality int) ([]byte, error) {
	switch format {
	case domain.FormatJPEG:
		params := vips.NewJpegExportParams()
		params.Quality = quality
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case domain.FormatPNG:
		data, _, err := img.ExportPng(vips.NewPngExportParams())
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
