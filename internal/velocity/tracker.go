// Package velocity tracks per-user event velocity over a trailing window.
// It backs the advisory "suspicious reset activity" signal: purely
// observational, it never blocks the operation it measures.
package velocity

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

// ErrRedisUnavailable wraps Redis connectivity failures from the tracker.
var ErrRedisUnavailable = errors.New("velocity tracker redis unavailable")

// Unlike the rate limiter, the event is always recorded: the tracker
// observes velocity, it does not enforce a budget.
const recordScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
redis.call("ZADD", KEYS[1], now, ARGV[3])
redis.call("PEXPIRE", KEYS[1], window)

return redis.call("ZCARD", KEYS[1])
`

var recordLua = redis.NewScript(recordScript)

// Tracker counts events per user within a sliding window and flags users
// whose in-window count reaches the threshold.
type Tracker struct {
	redis     redis.UniversalClient
	prefix    string
	window    time.Duration
	threshold int
}

// New creates a [Tracker] namespaced under prefix.
func New(redisClient redis.UniversalClient, prefix string, window time.Duration, threshold int) *Tracker {
	return &Tracker{
		redis:     redisClient,
		prefix:    prefix,
		window:    window,
		threshold: threshold,
	}
}

func (t *Tracker) key(userID string) string {
	return t.prefix + ":" + userID
}

// Record appends one event for userID, prunes expired entries, and returns
// whether the in-window count has reached the threshold, along with the
// count itself for logging.
func (t *Tracker) Record(ctx context.Context, userID string) (suspicious bool, count int, err error) {
	var suffix [4]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return false, 0, err
	}
	member := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + hex.EncodeToString(suffix[:])

	raw, err := recordLua.Run(
		ctx,
		t.redis,
		[]string{t.key(userID)},
		time.Now().UnixMilli(),
		t.window.Milliseconds(),
		member,
	).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	n, ok := raw.(int64)
	if !ok {
		return false, 0, fmt.Errorf("%w: invalid tracker script response", ErrRedisUnavailable)
	}

	return int(n) >= t.threshold, int(n), nil
}
