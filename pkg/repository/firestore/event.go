package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type eventRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEventRepository(client *firestore.Client) *eventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_events"
	}
	return "events"
}

func (r *eventRepository) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	if err := e.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid event")
	}

	now := time.Now().UTC()
	created := e.Clone()
	created.Status = created.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.client.Collection(r.collection()).Doc(string(created.ID)).Set(ctx, created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create event", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *eventRepository) Get(ctx context.Context, id types.EventID) (*model.Event, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "event not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get event", goerr.V("id", id))
	}

	var e model.Event
	if err := docSnap.DataTo(&e); err != nil {
		return nil, goerr.Wrap(err, "failed to decode event", goerr.V("id", id))
	}

	return &e, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*model.Event, error) {
	iter := r.client.Collection(r.collection()).OrderBy("StartTime", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var events []*model.Event
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate events")
		}

		var e model.Event
		if err := docSnap.DataTo(&e); err != nil {
			return nil, goerr.Wrap(err, "failed to decode event", goerr.V("doc_id", docSnap.Ref.ID))
		}

		events = append(events, &e)
	}

	return events, nil
}

func (r *eventRepository) UpdateSteps(ctx context.Context, id types.EventID, steps []model.Step) (*model.Event, error) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	e.Steps = model.CloneSteps(steps)
	e.UpdatedAt = time.Now().UTC()

	_, err = r.client.Collection(r.collection()).Doc(string(id)).Set(ctx, e)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update event steps", goerr.V("id", id))
	}

	return e, nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id types.EventID, newStatus types.EventStatus) (*model.Event, error) {
	if !newStatus.IsValid() {
		return nil, goerr.New("invalid event status", goerr.V("status", newStatus))
	}

	e, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	e.Status = newStatus
	e.UpdatedAt = time.Now().UTC()

	_, err = r.client.Collection(r.collection()).Doc(string(id)).Set(ctx, e)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update event status", goerr.V("id", id))
	}

	return e, nil
}
