package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding window over a sorted set of request timestamps.
// KEYS[1] = key
// ARGV[1] = now_ms
// ARGV[2] = window_ms
// ARGV[3] = limit
// ARGV[4] = member (unique per request)
//
// Returns {allowed, count, retry_ms}. A denied request is not recorded.
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)

if count >= limit then
  local earliest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local earliestScore = tonumber(earliest[2]) or now
  local retry_ms = window - (now - earliestScore)
  if retry_ms < 0 then retry_ms = 0 end
  return {0, count, retry_ms}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`

// SlidingWindowLimiter allows at most limit booking requests per account
// within window. A non-positive limit disables it.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	script *redis.Script
	now    func() time.Time
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	prefix string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaSlidingWindow),
		now:    time.Now,
	}
}

// Allow records one request for account and reports whether it fits the
// window. When it does not, retryAfter is the time until the oldest recorded
// request leaves the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, account string) (allowed bool, current int64, retryAfter time.Duration, err error) {
	const op = "redis.SlidingWindowLimiter.Allow"

	if l.limit <= 0 {
		return true, 0, 0, nil
	}

	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{l.prefix + ":" + account},
		l.now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s:%w", op, err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("%s: unexpected script result %v", op, res)
	}

	return res[0] == 1, res[1], time.Duration(res[2]) * time.Millisecond, nil
}
