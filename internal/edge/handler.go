package edge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dunamismax/edgeresize/internal/domain"
	"github.com/dunamismax/edgeresize/internal/id"
	"github.com/dunamismax/edgeresize/internal/pipeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type Handler struct {
	logger    *zap.Logger
	processor Processor
	tracer    trace.Tracer
}

func NewHandler(logger *zap.Logger, processor Processor) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:    logger,
		processor: processor,
		tracer:    otel.Tracer("edgeresize/edge"),
	}
}

// Handle is the Lambda entrypoint. Request-level failures are always returned as a
// response, never as an error.
func (h *Handler) Handle(ctx context.Context, event Event) (Response, error) {
	if len(event.Records) == 0 {
		h.logger.Warn("edge_event_without_records")
		return Failure("", domain.NotFound("event has no records", nil)), nil
	}

	cf := event.Records[0].CF
	if cf.Config.RequestID != "" {
		ctx = WithRequestID(ctx, cf.Config.RequestID)
	}
	return h.Serve(ctx, cf.Request), nil
}

// Serve runs one viewer request through interpret, normalize, process and build.
func (h *Handler) Serve(ctx context.Context, req Request) (resp Response) {
	startedAt := time.Now()
	if requestIDFrom(ctx) == "" {
		ctx = WithRequestID(ctx, id.New())
	}
	ctx, span := h.tracer.Start(ctx, "edge.serve", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.target", req.URI),
		attribute.String("http.query", req.QueryString),
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			h.logger.Error("edge_request_panic", zap.String("uri", req.URI), zap.Error(err))
			resp = Failure(req.URI, err)
		}

		span.SetAttributes(attribute.Int("http.status_code", resp.Status))
		if resp.Status >= 400 {
			span.SetStatus(codes.Error, resp.Body)
		} else {
			span.SetStatus(codes.Ok, "resized")
		}
		span.End()

		h.logger.Info("edge_request_served",
			zap.String("request_id", requestIDFrom(ctx)),
			zap.String("uri", req.URI),
			zap.String("query", req.QueryString),
			zap.Int("status", resp.Status),
			zap.Duration("duration", time.Since(startedAt)),
		)
	}()

	return h.serve(ctx, span, req)
}

func (h *Handler) serve(ctx context.Context, span trace.Span, req Request) Response {
	target, err := Interpret(req)
	if err != nil {
		return h.fail(ctx, req, err)
	}

	format, _ := domain.FormatForExtension(target.Extension)
	size := domain.NearestCanonical(target.Size)
	span.SetAttributes(
		attribute.String("image.bucket", target.Bucket),
		attribute.String("image.key", target.Key),
		attribute.Int("image.requested_width", target.Size.Width),
		attribute.Int("image.requested_height", target.Size.Height),
		attribute.Int("image.canonical_width", size.Width),
		attribute.Int("image.canonical_height", size.Height),
	)

	result, err := h.processor.Process(ctx, pipeline.Request{
		Bucket: target.Bucket,
		Key:    target.Key,
		Size:   size,
		Format: format,
	})
	if err != nil {
		return h.fail(ctx, req, err)
	}

	h.logger.Debug("image_resized",
		zap.String("request_id", requestIDFrom(ctx)),
		zap.String("bucket", target.Bucket),
		zap.String("key", target.Key),
		zap.String("source_format", result.Source.Format),
		zap.Int("source_width", result.Source.Width),
		zap.Int("source_height", result.Source.Height),
		zap.Int("target_width", result.Width),
		zap.Int("target_height", result.Height),
		zap.Int("source_bytes", result.SourceBytes),
		zap.Int("output_bytes", len(result.Data)),
	)
	return Success(result)
}

func (h *Handler) fail(ctx context.Context, req Request, err error) Response {
	fields := []zap.Field{
		zap.String("request_id", requestIDFrom(ctx)),
		zap.String("uri", req.URI),
		zap.Error(err),
	}

	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		mismatch   *domain.FormatMismatchError
	)
	switch {
	case errors.As(err, &validation):
		h.logger.Info("edge_request_rejected", fields...)
	case errors.As(err, &notFound):
		h.logger.Info("edge_request_not_found", fields...)
	case errors.As(err, &mismatch):
		h.logger.Warn("edge_source_format_mismatch", append(fields, zap.String("source_format", mismatch.Format))...)
	default:
		h.logger.Error("edge_request_failed", fields...)
	}

	return Failure(req.URI, err)
}

type requestIDKey struct{}

// WithRequestID tags ctx so log lines for one invocation can be correlated.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
