package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Verifica e incrementa de forma atômica; no limite devolve negado sem incrementar.
// Retorno: {permitido, restante, ttl_ms}
const fixedWindowLuaScript = `
local key = KEYS[1]
local max = tonumber(ARGV[1])
local windowMs = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
if current >= max then
    local ttl = redis.call("PTTL", key)
    if ttl < 0 then
        redis.call("PEXPIRE", key, windowMs)
        ttl = windowMs
    end
    return {0, 0, ttl}
end

local newVal = redis.call("INCR", key)
if newVal == 1 then
    redis.call("PEXPIRE", key, windowMs)
end

local ttl = redis.call("PTTL", key)
if ttl < 0 then
    redis.call("PEXPIRE", key, windowMs)
    ttl = windowMs
end

return {1, max - newVal, ttl}
`

// RedisLimiter compartilha as janelas entre réplicas; a expiração das chaves faz o papel do Sweep
type RedisLimiter struct {
	client   redis.Scripter
	script   *redis.Script
	prefix   string
	max      int
	duration time.Duration
	now      func() time.Time
}

func NewRedisLimiter(client redis.Scripter, name string, max int, duration time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		script:   redis.NewScript(fixedWindowLuaScript),
		prefix:   fmt.Sprintf("ratelimit:%s:", name),
		max:      max,
		duration: duration,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Check(ctx context.Context, key string) (Decision, error) {
	res, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, l.max, l.duration.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: erro ao executar script no redis: %w", err)
	}

	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: resposta inesperada do redis: %v", res)
	}

	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl < 0 {
		ttl = l.duration
	}

	return Decision{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   l.now().Add(ttl),
	}, nil
}
