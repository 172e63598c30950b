package config

import (
	"time"

	cachesvc "github.com/flowdeck-dev/flowdeck/pkg/service/cache"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Cache holds CLI flags for the context cache backend
type Cache struct {
	backend       string
	ttl           time.Duration
	redisAddr     string
	redisPassword string
	redisDB       int
}

// Flags returns CLI flags for cache configuration
func (c *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cache-backend",
			Usage:       "Context cache backend (memory, redis or none)",
			Value:       "memory",
			Sources:     cli.EnvVars("FLOWDECK_CACHE_BACKEND"),
			Destination: &c.backend,
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "Context cache entry TTL",
			Sources:     cli.EnvVars("FLOWDECK_CACHE_TTL"),
			Destination: &c.ttl,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address (required when using redis cache)",
			Sources:     cli.EnvVars("FLOWDECK_REDIS_ADDR"),
			Destination: &c.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Sources:     cli.EnvVars("FLOWDECK_REDIS_PASSWORD"),
			Destination: &c.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Sources:     cli.EnvVars("FLOWDECK_REDIS_DB"),
			Destination: &c.redisDB,
		},
	}
}

// Configure builds the cache backend. Returns nil for backend "none";
// context loads then always hit the repository.
func (c *Cache) Configure() (cachesvc.ContextCache, error) {
	switch c.backend {
	case "none":
		return nil, nil

	case "memory", "":
		return cachesvc.NewMemoryCache(c.ttl), nil

	case "redis":
		if c.redisAddr == "" {
			return nil, goerr.New("redis-addr is required when using redis cache")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     c.redisAddr,
			Password: c.redisPassword,
			DB:       c.redisDB,
		})
		logging.Default().Info("Using redis context cache", "addr", c.redisAddr)
		return cachesvc.NewRedisCache(client, c.ttl), nil

	default:
		return nil, goerr.New("invalid cache backend", goerr.V("backend", c.backend))
	}
}
