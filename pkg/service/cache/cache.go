package cache

import (
	"context"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// ContextCache caches resolved event and process context, keyed by ID.
// The operation executor's Invalidate call is the only writer-triggered
// refresh path; readers go through the context loader.
type ContextCache interface {
	// GetEvent returns the cached event, or nil on a miss (not an error)
	GetEvent(ctx context.Context, id types.EventID) (*model.Event, error)

	// SetEvent stores the event
	SetEvent(ctx context.Context, e *model.Event) error

	// GetProcess returns the cached process, or nil on a miss (not an error)
	GetProcess(ctx context.Context, id types.ProcessID) (*model.ProcessContext, error)

	// SetProcess stores the process context
	SetProcess(ctx context.Context, p *model.ProcessContext) error

	// Invalidate drops the cached event and, if non-empty, the process
	Invalidate(ctx context.Context, eventID types.EventID, processID types.ProcessID) error

	// Close releases any resources held by the cache
	Close() error
}
