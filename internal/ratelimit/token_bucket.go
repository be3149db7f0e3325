package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dunamismax/edgeresize/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces bucket keys when the caller passes none.
const DefaultKeyPrefix = "edgeresize:ratelimit"

// costUnitPixels is the output area one token pays for. A thumbnail costs one token and a
// 500x500 render costs four.
const costUnitPixels = 250 * 250

// Request identifies who is asking for which render.
type Request struct {
	Subject string
	Bucket  string
	Size    domain.CanonicalSize
}

// Decision is the outcome of charging one render to a subject's bucket.
type Decision struct {
	Allowed    bool
	Cost       int64
	Remaining  int64
	RetryAfter time.Duration
}

// RenderCost prices a render by its canonical output area, never less than one token.
func RenderCost(size domain.CanonicalSize) int64 {
	area := int64(size.Width) * int64(size.Height)
	if area <= 0 {
		return 1
	}
	return max(1, int64(math.Ceil(float64(area)/costUnitPixels)))
}

// RedisTokenBucket keeps one redis hash per origin bucket and subject, shared by every
// replica. Refill and charge run atomically in takeScript.
type RedisTokenBucket struct {
	client      redis.UniversalClient
	capacity    int64
	refillPerMS float64
	ttl         time.Duration
	keyPrefix   string
	now         func() time.Time
}

// takeScript refills by elapsed time, then charges ARGV[4] tokens if they are available.
// Returns {allowed, remaining, retry_after_ms}.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

local state = redis.call("HMGET", KEYS[1], "tokens", "updated_ms")
local tokens = tonumber(state[1]) or capacity
local updated = tonumber(state[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - updated) * rate)

local allowed = 0
local wait = 0
if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
else
  wait = math.ceil((cost - tokens) / rate)
end

redis.call("HSET", KEYS[1], "tokens", tokens, "updated_ms", now)
redis.call("PEXPIRE", KEYS[1], tonumber(ARGV[5]))

return {allowed, math.floor(tokens), wait}
`)

func NewRedisTokenBucket(client redis.UniversalClient, capacity int, window time.Duration, keyPrefix string) (*RedisTokenBucket, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = DefaultKeyPrefix
	}

	windowMS := max(1, window.Milliseconds())
	return &RedisTokenBucket{
		client:      client,
		capacity:    int64(capacity),
		refillPerMS: float64(capacity) / float64(windowMS),
		ttl:         2 * window,
		keyPrefix:   keyPrefix,
		now:         time.Now,
	}, nil
}

// Capacity is the burst size in tokens.
func (l *RedisTokenBucket) Capacity() int64 {
	return l.capacity
}

// Allow charges RenderCost(req.Size) to the subject's bucket for req.Bucket. A cost above
// capacity is clamped so the largest render is never permanently refused.
func (l *RedisTokenBucket) Allow(ctx context.Context, req Request) (Decision, error) {
	cost := min(RenderCost(req.Size), l.capacity)

	values, err := takeScript.Run(ctx, l.client,
		[]string{l.key(req)},
		l.capacity,
		l.refillPerMS,
		l.now().UTC().UnixMilli(),
		cost,
		l.ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("run token bucket script: %w", err)
	}
	if len(values) != 3 {
		return Decision{}, fmt.Errorf("invalid token bucket response: %v", values)
	}

	return Decision{
		Allowed:    values[0] == 1,
		Cost:       cost,
		Remaining:  values[1],
		RetryAfter: time.Duration(values[2]) * time.Millisecond,
	}, nil
}

func (l *RedisTokenBucket) key(req Request) string {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "anonymous"
	}
	bucket := strings.TrimSpace(req.Bucket)
	if bucket == "" {
		bucket = "-"
	}
	return l.keyPrefix + ":" + bucket + ":" + subject
}
