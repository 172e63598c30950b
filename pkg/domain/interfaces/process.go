package interfaces

import (
	"context"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// ProcessRepository defines the interface for process template access.
// This is the only path that yields step bodies for assistant priming.
type ProcessRepository interface {
	// Create creates a new process template
	Create(ctx context.Context, p *model.ProcessContext) (*model.ProcessContext, error)

	// Get retrieves a process context (title and ordered steps) by ID
	Get(ctx context.Context, id types.ProcessID) (*model.ProcessContext, error)

	// UpdateSteps replaces the process's step list as one batch update
	UpdateSteps(ctx context.Context, id types.ProcessID, steps []model.Step) (*model.ProcessContext, error)
}
