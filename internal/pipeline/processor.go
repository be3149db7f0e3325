package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dunamismax/edgeresize/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxSourcePixels bounds width*height of a source before it is fully decoded. A small file
// can declare enormous dimensions, and decoding it would exhaust memory.
const MaxSourcePixels = 16383 * 16383

type Request struct {
	Bucket string
	Key    string
	Size   domain.CanonicalSize
	Format domain.Format
}

type Result struct {
	Data        []byte
	Format      domain.Format
	Width       int
	Height      int
	Source      domain.SourceMetadata
	SourceBytes int
}

type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Processor runs fetch, inspect, resize and encode once per request. Every failure
// comes back as a domain error so callers can map it without inspecting causes.
type Processor struct {
	fetcher     Fetcher
	transformer Transformer
	tracer      trace.Tracer
}

func NewProcessor(fetcher Fetcher, cfg TransformerConfig) (*Processor, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	transformer, err := newTransformer(cfg)
	if err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}

	return &Processor{
		fetcher:     fetcher,
		transformer: transformer,
		tracer:      otel.Tracer("edgeresize/pipeline"),
	}, nil
}

func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	span.SetAttributes(
		attribute.String("image.bucket", req.Bucket),
		attribute.String("image.key", req.Key),
		attribute.String("image.format", string(req.Format)),
		attribute.Int("image.canonical_width", req.Size.Width),
		attribute.Int("image.canonical_height", req.Size.Height),
	)
	defer span.End()

	result, err := p.process(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		return Result{}, err
	}

	span.SetAttributes(
		attribute.Int("image.output_bytes", len(result.Data)),
		attribute.Int("image.source_bytes", result.SourceBytes),
	)
	return result, nil
}

func (p *Processor) process(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Bucket) == "" || strings.TrimSpace(req.Key) == "" {
		return Result{}, domain.NotFound("empty bucket or key", nil)
	}

	source, err := p.fetcher.Fetch(ctx, req.Bucket, req.Key)
	if err != nil {
		return Result{}, domain.NotFound("fetch stage", err)
	}

	meta, err := p.transformer.Inspect(ctx, source)
	if err != nil {
		if errors.Is(err, ErrUnrecognizedFormat) {
			return Result{}, &domain.FormatMismatchError{Format: "unknown"}
		}
		return Result{}, domain.NotFound("inspect stage", err)
	}
	if !domain.Supported(meta.Format) {
		return Result{}, &domain.FormatMismatchError{Format: meta.Format}
	}
	if pixels := int64(meta.Width) * int64(meta.Height); pixels > MaxSourcePixels {
		return Result{}, domain.NotFound(fmt.Sprintf("source %dx%d exceeds pixel limit", meta.Width, meta.Height), nil)
	}

	width, height := domain.FitWithin(meta, req.Size)
	opts := domain.ImageOptions{
		Format: req.Format,
		Width:  width,
		Height: height,
	}

	data, err := p.transformer.Transform(ctx, source, opts)
	if err != nil {
		return Result{}, domain.NotFound(fmt.Sprintf("transform stage %dx%d %s", width, height, req.Format), err)
	}

	return Result{
		Data:        data,
		Format:      req.Format,
		Width:       width,
		Height:      height,
		Source:      meta,
		SourceBytes: len(source),
	}, nil
}
