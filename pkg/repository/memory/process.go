package memory

import (
	"context"
	"sync"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type processRepository struct {
	mu        sync.RWMutex
	processes map[types.ProcessID]*model.ProcessContext
}

func newProcessRepository() *processRepository {
	return &processRepository{
		processes: make(map[types.ProcessID]*model.ProcessContext),
	}
}

func (r *processRepository) Create(ctx context.Context, p *model.ProcessContext) (*model.ProcessContext, error) {
	if err := p.ID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid process")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processes[p.ID]; exists {
		return nil, goerr.New("process already exists", goerr.V("id", p.ID))
	}

	created := p.Clone()
	r.processes[p.ID] = created
	return created.Clone(), nil
}

func (r *processRepository) Get(ctx context.Context, id types.ProcessID) (*model.ProcessContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.processes[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}

	return p.Clone(), nil
}

func (r *processRepository) UpdateSteps(ctx context.Context, id types.ProcessID, steps []model.Step) (*model.ProcessContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.processes[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}

	p.Steps = model.CloneSteps(steps)
	return p.Clone(), nil
}
