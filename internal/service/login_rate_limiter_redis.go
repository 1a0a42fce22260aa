package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cuenta cada clave y devuelve pares {contador, pttl}. Un intento bloqueado
// tambien suma, asi que insistir durante el bloqueo no lo acorta.
const redisLoginReserveScript = `
local out = {}
for i, key in ipairs(KEYS) do
  local current = redis.call("INCR", key)
  if current == 1 then
    redis.call("PEXPIRE", key, ARGV[1])
  end
  out[#out + 1] = current
  out[#out + 1] = redis.call("PTTL", key)
end
return out
`

type redisLoginRateLimiter struct {
	client redisEvaler
	limits LoginLimits
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewRedisLoginRateLimiter comparte los contadores de intentos entre instancias.
func NewRedisLoginRateLimiter(client *redis.Client, limits LoginLimits) LoginRateLimiter {
	if client == nil {
		return nil
	}
	return &redisLoginRateLimiter{
		client: client,
		limits: limits.withDefaults(),
		prefix: "hashchat:login:",
	}
}

func (l *redisLoginRateLimiter) Reserve(ctx context.Context, attempt LoginAttempt) time.Duration {
	if l == nil || l.client == nil {
		return 0
	}
	keys := loginKeys(attempt, l.limits)
	if len(keys) == 0 {
		return l.limits.Window
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = l.prefix + k.key
	}

	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	vals, err := l.client.Eval(ctx, redisLoginReserveScript, redisKeys, l.limits.Window.Milliseconds()).Int64Slice()
	if err != nil || len(vals) != 2*len(keys) {
		// redis caido: no bloqueamos logins
		return 0
	}

	var wait time.Duration
	for i, k := range keys {
		count, pttl := vals[2*i], vals[2*i+1]
		if count <= int64(k.max) {
			continue
		}
		d := time.Duration(pttl) * time.Millisecond
		if pttl < 0 {
			d = l.limits.Window
		}
		if d > wait {
			wait = d
		}
	}
	return wait
}
