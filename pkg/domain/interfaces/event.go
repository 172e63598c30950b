package interfaces

import (
	"context"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// EventRepository defines the interface for Event data access
type EventRepository interface {
	// Create creates a new event
	Create(ctx context.Context, e *model.Event) (*model.Event, error)

	// Get retrieves an event by ID
	Get(ctx context.Context, id types.EventID) (*model.Event, error)

	// List retrieves all events
	List(ctx context.Context) ([]*model.Event, error)

	// UpdateSteps replaces the event's step list as one batch update
	UpdateSteps(ctx context.Context, id types.EventID, steps []model.Step) (*model.Event, error)

	// UpdateStatus updates the event's status
	UpdateStatus(ctx context.Context, id types.EventID, status types.EventStatus) (*model.Event, error)
}
