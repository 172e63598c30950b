package usecase

import (
	"context"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/interfaces"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/service/cache"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ContextLoader resolves event and process context through a read-through
// cache. Cache failures degrade to direct repository reads; they never
// fail a load on their own.
type ContextLoader struct {
	repo  interfaces.Repository
	cache cache.ContextCache
}

// NewContextLoader creates a loader over the repository. cache may be nil.
func NewContextLoader(repo interfaces.Repository, c cache.ContextCache) *ContextLoader {
	return &ContextLoader{
		repo:  repo,
		cache: c,
	}
}

// LoadEvent resolves an event, preferring the cache
func (l *ContextLoader) LoadEvent(ctx context.Context, id types.EventID) (*model.Event, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	if l.cache != nil {
		cached, err := l.cache.GetEvent(ctx, id)
		if err != nil {
			logging.From(ctx).Warn("event cache read failed, falling back to repository",
				"eventID", id,
				"error", err.Error(),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	event, err := l.repo.Event().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load event", goerr.V("eventID", id))
	}

	if l.cache != nil {
		if err := l.cache.SetEvent(ctx, event); err != nil {
			logging.From(ctx).Warn("event cache write failed",
				"eventID", id,
				"error", err.Error(),
			)
		}
	}
	return event, nil
}

// LoadProcess resolves a process context, preferring the cache
func (l *ContextLoader) LoadProcess(ctx context.Context, id types.ProcessID) (*model.ProcessContext, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	if l.cache != nil {
		cached, err := l.cache.GetProcess(ctx, id)
		if err != nil {
			logging.From(ctx).Warn("process cache read failed, falling back to repository",
				"processID", id,
				"error", err.Error(),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	process, err := l.repo.Process().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load process", goerr.V("processID", id))
	}

	if l.cache != nil {
		if err := l.cache.SetProcess(ctx, process); err != nil {
			logging.From(ctx).Warn("process cache write failed",
				"processID", id,
				"error", err.Error(),
			)
		}
	}
	return process, nil
}

// Invalidate drops cached entries after a mutation so the next load sees
// fresh data. Invalidation failures are logged, not propagated; the TTL
// bounds staleness.
func (l *ContextLoader) Invalidate(ctx context.Context, eventID types.EventID, processID types.ProcessID) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Invalidate(ctx, eventID, processID); err != nil {
		logging.From(ctx).Warn("cache invalidation failed",
			"eventID", eventID,
			"processID", processID,
			"error", err.Error(),
		)
	}
}
