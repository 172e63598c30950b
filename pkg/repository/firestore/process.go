package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type processRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProcessRepository(client *firestore.Client) *processRepository {
	return &processRepository{client: client}
}

func (r *processRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_processes"
	}
	return "processes"
}

func (r *processRepository) Create(ctx context.Context, p *model.ProcessContext) (*model.ProcessContext, error) {
	if err := p.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid process")
	}

	created := p.Clone()
	_, err := r.client.Collection(r.collection()).Doc(string(created.ID)).Set(ctx, created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create process", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *processRepository) Get(ctx context.Context, id types.ProcessID) (*model.ProcessContext, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get process", goerr.V("id", id))
	}

	var p model.ProcessContext
	if err := docSnap.DataTo(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode process", goerr.V("id", id))
	}

	return &p, nil
}

func (r *processRepository) UpdateSteps(ctx context.Context, id types.ProcessID, steps []model.Step) (*model.ProcessContext, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Steps = model.CloneSteps(steps)

	_, err = r.client.Collection(r.collection()).Doc(string(id)).Set(ctx, p)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update process steps", goerr.V("id", id))
	}

	return p, nil
}
