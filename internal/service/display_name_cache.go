package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DisplayNameCache guarda user id -> username para no pegarle al repo en cada mensaje.
type DisplayNameCache interface {
	Get(ctx context.Context, userID string) (string, bool, error)
	Set(ctx context.Context, userID, name string) error
}

type redisDisplayNameCache struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

func NewRedisDisplayNameCache(client *redis.Client, ttl time.Duration) DisplayNameCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisDisplayNameCache{
		client: client,
		ttl:    ttl,
		prefix: "hashchat:dir:name:",
	}
}

func (c *redisDisplayNameCache) Get(ctx context.Context, userID string) (string, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	name, err := c.client.Get(ctx, c.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (c *redisDisplayNameCache) Set(ctx context.Context, userID, name string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" || name == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return c.client.Set(ctx, c.prefix+userID, name, c.ttl).Err()
}
