package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/edgeresize/internal/domain"
	"github.com/dunamismax/edgeresize/internal/edge"
	"github.com/dunamismax/edgeresize/internal/ratelimit"
	"go.uber.org/zap"
)

type RateLimiter interface {
	Allow(ctx context.Context, req ratelimit.Request) (ratelimit.Decision, error)
}

// withRateLimit fails open: a redis outage is logged and the request is served.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := s.rateLimitSubject(r)
		limitReq := s.rateLimitRequest(r, subject)

		decision, err := s.rateLimiter.Allow(r.Context(), limitReq)
		if err != nil {
			s.logger.Warn("rate_limit_check_failed", zap.String("subject", subject), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		s.metrics.rateLimitRejected.WithLabelValues(routeLabel(r.URL.Path)).Inc()
		s.logger.Info("rate_limit_rejected",
			zap.String("subject", subject),
			zap.String("bucket", limitReq.Bucket),
			zap.Int64("cost", decision.Cost),
			zap.Int("retry_after_s", retryAfter),
		)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "rate limit exceeded",
		})
	})
}

func (s *Server) rateLimitSubject(r *http.Request) string {
	if s.rateLimitSubjectHeader != "" {
		if subject := strings.TrimSpace(r.Header.Get(s.rateLimitSubjectHeader)); subject != "" {
			return subject
		}
	}
	return clientIP(r)
}

// rateLimitRequest prices the request by the render it will produce. Requests the
// interpreter rejects cost one token and carry no bucket.
func (s *Server) rateLimitRequest(r *http.Request, subject string) ratelimit.Request {
	req := ratelimit.Request{
		Subject: subject,
		Size:    domain.CanonicalSize{Width: 1, Height: 1},
	}

	target, err := edge.Interpret(s.edgeRequest(r))
	if err != nil {
		return req
	}
	req.Bucket = target.Bucket
	req.Size = domain.NearestCanonical(target.Size)
	return req
}
