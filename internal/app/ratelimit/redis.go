package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// admitScript runs the prune-check-append sequence server-side so the
// admission stays atomic per client key even across processes. Scores
// are microsecond timestamps; the key expires a full window after the
// last admitted request so idle clients cost nothing.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, ARGV[5])
return 1
`)

// RedisStore keeps each client's window in a sorted set.
type RedisStore struct {
	rdb *redis.Client
	cfg Config
}

func NewRedisStore(rdb *redis.Client, cfg Config) *RedisStore {
	return &RedisStore{rdb: rdb, cfg: cfg}
}

func (s *RedisStore) Admit(ctx context.Context, clientID string, now time.Time) (bool, error) {
	nowMicros := now.UnixMicro()
	member := fmt.Sprintf("%d-%s", nowMicros, uuid.NewString())

	admitted, err := admitScript.Run(ctx, s.rdb,
		[]string{redisKeyPrefix + clientID},
		nowMicros,
		s.cfg.Window.Microseconds(),
		s.cfg.MaxRequests,
		member,
		s.cfg.Window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit admit script: %w", err)
	}
	return admitted == 1, nil
}
