package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/repository/memory"
	"github.com/flowdeck-dev/flowdeck/pkg/service/cache"
	"github.com/flowdeck-dev/flowdeck/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestContextLoaderCacheAside(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.Event().Create(ctx, &model.Event{ID: "ev-1", Title: "before"})
	gt.NoError(t, err).Required()

	c := cache.NewMemoryCache(time.Minute)
	loader := usecase.NewContextLoader(repo, c)

	event, err := loader.LoadEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, event.Title).Equal("before")

	// A repository write without invalidation is invisible; the cache
	// still serves the old read
	_, err = repo.Event().UpdateStatus(ctx, "ev-1", "COMPLETED")
	gt.NoError(t, err).Required()

	event, err = loader.LoadEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, event.Status.String()).Equal("SCHEDULED")

	// Invalidate-then-reload is the refresh path
	loader.Invalidate(ctx, "ev-1", "")
	event, err = loader.LoadEvent(ctx, "ev-1")
	gt.NoError(t, err).Required()
	gt.Value(t, event.Status.String()).Equal("COMPLETED")
}

func TestContextLoaderWithoutCache(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.Process().Create(ctx, &model.ProcessContext{ID: "proc-1", Title: "Checklist"})
	gt.NoError(t, err).Required()

	loader := usecase.NewContextLoader(repo, nil)

	process, err := loader.LoadProcess(ctx, "proc-1")
	gt.NoError(t, err).Required()
	gt.Value(t, process.Title).Equal("Checklist")

	_, err = loader.LoadProcess(ctx, "missing")
	gt.Value(t, err).NotNil()

	_, err = loader.LoadEvent(ctx, "")
	gt.Value(t, err).NotNil()
}
