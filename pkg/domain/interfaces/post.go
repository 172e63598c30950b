package interfaces

import (
	"context"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// PostRepository defines the interface for feed post access
type PostRepository interface {
	// Create creates a new feed post
	Create(ctx context.Context, p *model.Post) (*model.Post, error)

	// ListByEvent retrieves posts for an event in creation order
	ListByEvent(ctx context.Context, eventID types.EventID) ([]*model.Post, error)
}
