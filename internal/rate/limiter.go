package rate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis connectivity failures from the limiter.
var ErrRedisUnavailable = errors.New("rate limiter redis unavailable")

// Sliding-window check in one atomic step: drop hits older than the
// window, reject if the surviving count has reached the budget (reporting
// the oldest surviving hit for retry-after math), otherwise record this
// hit and re-arm the key's TTL to the window length.
const checkScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)

local count = redis.call("ZCARD", KEYS[1])
if count >= max then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  return {0, oldest[2]}
end

redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return {1}
`

var checkLua = redis.NewScript(checkScript)

// Result of one limiter check. RetryAfter is set only on rejection and is
// never below one second.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter enforces per-key sliding-window budgets backed by Redis sorted
// sets. Each key's hit timestamps live in one ZSET whose TTL tracks the
// window, so idle buckets expire instead of accumulating.
//
// Boundary semantics: a check is rejected when the key already holds max
// in-window hits, i.e. the (max+1)-th hit within any window fails.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a [Limiter] namespaced under prefix.
func New(redisClient redis.UniversalClient, prefix string) *Limiter {
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (l *Limiter) key(bucket string) string {
	return l.prefix + ":" + bucket
}

// Check prunes, tests, and (when allowed) records one hit for key, all
// atomically, so concurrent callers sharing a key can never undercount.
func (l *Limiter) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	member, err := newMember()
	if err != nil {
		return Result{}, err
	}

	now := time.Now()
	raw, err := checkLua.Run(
		ctx,
		l.redis,
		[]string{l.key(key)},
		now.UnixMilli(),
		window.Milliseconds(),
		max,
		member,
	).Result()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := raw.([]interface{})
	if !ok || len(parts) == 0 {
		return Result{}, fmt.Errorf("%w: invalid limiter script response", ErrRedisUnavailable)
	}

	code, ok := parts[0].(int64)
	if !ok {
		return Result{}, fmt.Errorf("%w: invalid limiter script status", ErrRedisUnavailable)
	}
	if code == 1 {
		return Result{Allowed: true}, nil
	}

	if len(parts) < 2 {
		return Result{}, fmt.Errorf("%w: missing limiter oldest hit", ErrRedisUnavailable)
	}
	oldestRaw, ok := parts[1].(string)
	if !ok {
		return Result{}, fmt.Errorf("%w: invalid limiter oldest hit", ErrRedisUnavailable)
	}
	oldestMilli, err := strconv.ParseFloat(oldestRaw, 64)
	if err != nil {
		return Result{}, fmt.Errorf("%w: invalid limiter oldest hit: %v", ErrRedisUnavailable, err)
	}

	retryAfter := window - time.Duration(now.UnixMilli()-int64(oldestMilli))*time.Millisecond
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return Result{RetryAfter: retryAfter}, nil
}

// newMember builds a unique ZSET member so simultaneous hits never
// collapse into one entry.
func newMember() (string, error) {
	var suffix [4]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", err
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + hex.EncodeToString(suffix[:]), nil
}
