package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dunamismax/edgeresize/internal/edge"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ImageServer answers one viewer request. *edge.Handler is the production implementation.
type ImageServer interface {
	Serve(ctx context.Context, req edge.Request) edge.Response
}

type Options struct {
	// BucketDomain plays the role of the CloudFront S3 origin domain, e.g.
	// "images.s3.amazonaws.com".
	BucketDomain string

	RateLimiter            RateLimiter
	RateLimitSubjectHeader string
}

// Server exposes the resize handler over plain HTTP so it can sit behind CloudFront as a
// custom origin.
type Server struct {
	logger                 *zap.Logger
	images                 ImageServer
	bucketDomain           string
	metrics                *metrics
	tracer                 trace.Tracer
	rateLimiter            RateLimiter
	rateLimitSubjectHeader string
	router                 chi.Router
}

func NewServer(logger *zap.Logger, images ImageServer, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger:                 logger,
		images:                 images,
		bucketDomain:           opts.BucketDomain,
		metrics:                newMetrics(),
		tracer:                 otel.Tracer("edgeresize/api"),
		rateLimiter:            opts.RateLimiter,
		rateLimitSubjectHeader: opts.RateLimitSubjectHeader,
		router:                 chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.metrics.withHTTPMetrics,
		s.withTracing,
		middleware.Recoverer,
	)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.metricsHandler())
	s.router.Group(func(r chi.Router) {
		r.Use(s.withRateLimit)
		r.Get("/*", s.handleImage)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id := middleware.GetReqID(ctx); id != "" {
		ctx = edge.WithRequestID(ctx, id)
		w.Header().Set("X-Request-Id", id)
	}

	resp := s.images.Serve(ctx, s.edgeRequest(r))
	s.writeEdgeResponse(w, resp)
}

// edgeRequest builds the event CloudFront would have sent for this request. The uri stays
// escaped because the interpreter decodes it.
func (s *Server) edgeRequest(r *http.Request) edge.Request {
	headers := make(map[string][]edge.Header, len(r.Header))
	for name, values := range r.Header {
		for _, value := range values {
			key := http.CanonicalHeaderKey(name)
			lower := strings.ToLower(name)
			headers[lower] = append(headers[lower], edge.Header{Key: key, Value: value})
		}
	}

	return edge.Request{
		ClientIP:    clientIP(r),
		Method:      r.Method,
		URI:         r.URL.EscapedPath(),
		QueryString: r.URL.RawQuery,
		Headers:     headers,
		Origin: edge.Origin{
			S3: &edge.OriginTarget{DomainName: s.bucketDomain},
		},
	}
}

func (s *Server) writeEdgeResponse(w http.ResponseWriter, resp edge.Response) {
	body := []byte(resp.Body)
	if resp.BodyEncoding == edge.BodyEncodingBase64 {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			s.logger.Error("edge_response_body_invalid", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	for _, h := range resp.Headers {
		w.Header().Add(h.Key, h.Value)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(resp.Status)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("edge_response_write_failed", zap.Error(err))
	}

	s.metrics.observeImage(resp.Status, len(body))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
