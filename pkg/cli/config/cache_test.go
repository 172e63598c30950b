package config_test

import (
	"context"
	"testing"

	"github.com/flowdeck-dev/flowdeck/pkg/cli/config"
	cachesvc "github.com/flowdeck-dev/flowdeck/pkg/service/cache"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

func configureCache(t *testing.T, args ...string) (cachesvc.ContextCache, error) {
	t.Helper()
	var cacheCfg config.Cache
	var c cachesvc.ContextCache
	var cfgErr error

	cmd := &cli.Command{
		Name:  "test",
		Flags: cacheCfg.Flags(),
		Action: func(ctx context.Context, cl *cli.Command) error {
			c, cfgErr = cacheCfg.Configure()
			return nil
		},
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...))).Required()
	return c, cfgErr
}

func TestCacheConfigure(t *testing.T) {
	t.Run("default backend is memory", func(t *testing.T) {
		c, err := configureCache(t)
		gt.NoError(t, err).Required()
		gt.Value(t, c).NotNil()
		gt.NoError(t, c.Close())
	})

	t.Run("none disables caching", func(t *testing.T) {
		c, err := configureCache(t, "--cache-backend", "none")
		gt.NoError(t, err).Required()
		gt.Value(t, c).Nil()
	})

	t.Run("redis requires an address", func(t *testing.T) {
		_, err := configureCache(t, "--cache-backend", "redis")
		gt.Value(t, err).NotNil()
	})

	t.Run("redis flags parse including db number", func(t *testing.T) {
		c, err := configureCache(t,
			"--cache-backend", "redis",
			"--redis-addr", "localhost:6379",
			"--redis-db", "3",
		)
		gt.NoError(t, err).Required()
		gt.Value(t, c).NotNil()
		gt.NoError(t, c.Close())
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		_, err := configureCache(t, "--cache-backend", "memcached")
		gt.Value(t, err).NotNil()
	})
}
