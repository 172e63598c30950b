package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type eventRepository struct {
	mu     sync.RWMutex
	events map[types.EventID]*model.Event
}

func newEventRepository() *eventRepository {
	return &eventRepository{
		events: make(map[types.EventID]*model.Event),
	}
}

func (r *eventRepository) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	if err := e.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[e.ID]; exists {
		return nil, goerr.New("event already exists", goerr.V("id", e.ID))
	}

	now := time.Now().UTC()
	created := e.Clone()
	created.Status = created.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.events[e.ID] = created
	return created.Clone(), nil
}

func (r *eventRepository) Get(ctx context.Context, id types.EventID) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
	}

	return e.Clone(), nil
}

func (r *eventRepository) List(ctx context.Context) ([]*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*model.Event, 0, len(r.events))
	for _, e := range r.events {
		events = append(events, e.Clone())
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	return events, nil
}

func (r *eventRepository) UpdateSteps(ctx context.Context, id types.EventID, steps []model.Step) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
	}

	e.Steps = model.CloneSteps(steps)
	e.UpdatedAt = time.Now().UTC()
	return e.Clone(), nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id types.EventID, status types.EventStatus) (*model.Event, error) {
	if !status.IsValid() {
		return nil, goerr.New("invalid event status", goerr.V("status", status))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
	}

	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	return e.Clone(), nil
}
