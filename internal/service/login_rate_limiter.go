package service

import (
	"context"
	"strings"
	"sync"
	"time"
)

// LoginAttempt identifica un intento de login. ClientIP puede venir vacio.
type LoginAttempt struct {
	Email    string
	ClientIP string
}

// LoginRateLimiter cuenta intentos por email y por IP de origen.
// Reserve devuelve 0 si el intento se permite, o el tiempo que queda de bloqueo.
type LoginRateLimiter interface {
	Reserve(ctx context.Context, attempt LoginAttempt) time.Duration
}

// LoginLimits son los topes por ventana. IP cubre a todos los emails que
// llegan desde la misma direccion, por eso suele ser mayor que Email.
type LoginLimits struct {
	Window time.Duration
	Email  int
	IP     int
}

func (l LoginLimits) withDefaults() LoginLimits {
	if l.Window <= 0 {
		l.Window = time.Minute
	}
	if l.Email <= 0 {
		l.Email = 1
	}
	if l.IP <= 0 {
		l.IP = l.Email * 4
	}
	return l
}

type limitedKey struct {
	key string
	max int
}

// loginKeys arma las claves a contar para un intento; nil si no hay email.
func loginKeys(attempt LoginAttempt, limits LoginLimits) []limitedKey {
	email := strings.ToLower(strings.TrimSpace(attempt.Email))
	if email == "" {
		return nil
	}
	keys := []limitedKey{{key: "email:" + email, max: limits.Email}}
	if ip := strings.TrimSpace(attempt.ClientIP); ip != "" {
		keys = append(keys, limitedKey{key: "ip:" + ip, max: limits.IP})
	}
	return keys
}

type loginRateLimiter struct {
	mu     sync.Mutex
	limits LoginLimits
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewLoginRateLimiter crea un rate limiter de ventana deslizante en memoria.
func NewLoginRateLimiter(limits LoginLimits) LoginRateLimiter {
	return &loginRateLimiter{
		limits: limits.withDefaults(),
		hits:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *loginRateLimiter) Reserve(_ context.Context, attempt LoginAttempt) time.Duration {
	keys := loginKeys(attempt, l.limits)
	if len(keys) == 0 {
		return l.limits.Window
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.limits.Window)
	var wait time.Duration
	for _, k := range keys {
		kept := l.prune(k.key, cutoff)
		if len(kept) >= k.max {
			// el bloqueo dura hasta que el intento mas viejo sale de la ventana
			if d := kept[len(kept)-k.max].Add(l.limits.Window).Sub(now); d > wait {
				wait = d
			}
		}
	}
	if wait > 0 {
		return wait
	}
	for _, k := range keys {
		l.hits[k.key] = append(l.hits[k.key], now)
	}
	return 0
}

func (l *loginRateLimiter) prune(key string, cutoff time.Time) []time.Time {
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.hits, key)
		return nil
	}
	l.hits[key] = kept
	return kept
}
