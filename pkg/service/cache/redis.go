package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "flowdeck:ctx:"
	defaultRedisTTL = 10 * time.Minute
)

// RedisCache is a redis-backed ContextCache for deployments with more
// than one serving instance.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ContextCache = &RedisCache{}

// NewRedisCache creates a redis-backed cache. ttl <= 0 uses the default.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func eventKey(id types.EventID) string {
	return "event:" + string(id)
}

func processKey(id types.ProcessID) string {
	return "process:" + string(id)
}

func (c *RedisCache) getJSON(ctx context.Context, key string, out any) (bool, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to get cache entry", goerr.V("key", key))
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, goerr.Wrap(err, "failed to decode cache entry", goerr.V("key", key))
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return goerr.Wrap(err, "failed to encode cache entry", goerr.V("key", key))
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to set cache entry", goerr.V("key", key))
	}
	return nil
}

func (c *RedisCache) GetEvent(ctx context.Context, id types.EventID) (*model.Event, error) {
	var e model.Event
	found, err := c.getJSON(ctx, eventKey(id), &e)
	if err != nil || !found {
		return nil, err
	}
	return &e, nil
}

func (c *RedisCache) SetEvent(ctx context.Context, e *model.Event) error {
	return c.setJSON(ctx, eventKey(e.ID), e)
}

func (c *RedisCache) GetProcess(ctx context.Context, id types.ProcessID) (*model.ProcessContext, error) {
	var p model.ProcessContext
	found, err := c.getJSON(ctx, processKey(id), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (c *RedisCache) SetProcess(ctx context.Context, p *model.ProcessContext) error {
	return c.setJSON(ctx, processKey(p.ID), p)
}

func (c *RedisCache) Invalidate(ctx context.Context, eventID types.EventID, processID types.ProcessID) error {
	keys := []string{redisKeyPrefix + eventKey(eventID)}
	if processID != "" {
		keys = append(keys, redisKeyPrefix+processKey(processID))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return goerr.Wrap(err, "failed to invalidate cache", goerr.V("eventID", eventID))
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
