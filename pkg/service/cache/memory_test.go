package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/service/cache"
	"github.com/m-mizutani/gt"
)

func TestMemoryCacheHitAndMiss(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute)
	ctx := context.Background()

	// A miss is nil, not an error
	got, err := c.GetEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Nil()

	gt.NoError(t, c.SetEvent(ctx, &model.Event{ID: "ev-1", Title: "Standup"})).Required()

	got, err = c.GetEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, got).NotNil()
	gt.Value(t, got.Title).Equal("Standup")
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute)
	ctx := context.Background()

	now := time.Now()
	c.SetNowFuncForTest(func() time.Time { return now })

	gt.NoError(t, c.SetProcess(ctx, &model.ProcessContext{ID: "proc-1", Title: "Checklist"})).Required()

	got, err := c.GetProcess(ctx, "proc-1")
	gt.NoError(t, err).Required()
	gt.Value(t, got).NotNil()

	// Advance past the TTL and the entry is gone
	now = now.Add(2 * time.Minute)
	got, err = c.GetProcess(ctx, "proc-1")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Nil()
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute)
	ctx := context.Background()

	gt.NoError(t, c.SetEvent(ctx, &model.Event{ID: "ev-1", Title: "Standup", ProcessID: "proc-1"})).Required()
	gt.NoError(t, c.SetProcess(ctx, &model.ProcessContext{ID: "proc-1", Title: "Checklist"})).Required()

	gt.NoError(t, c.Invalidate(ctx, "ev-1", "proc-1")).Required()

	e, err := c.GetEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, e).Nil()

	p, err := c.GetProcess(ctx, "proc-1")
	gt.NoError(t, err).Required()
	gt.Value(t, p).Nil()
}

func TestMemoryCacheCloneIsolation(t *testing.T) {
	c := cache.NewMemoryCache(time.Minute)
	ctx := context.Background()

	gt.NoError(t, c.SetEvent(ctx, &model.Event{
		ID:    "ev-1",
		Title: "original",
		Steps: []model.Step{{ID: "s1", Content: "step"}},
	})).Required()

	got, err := c.GetEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	got.Title = "mutated"
	got.Steps[0].Content = "mutated step"

	fresh, err := c.GetEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, fresh.Title).Equal("original")
	gt.Value(t, fresh.Steps[0].Content).Equal("step")
}
