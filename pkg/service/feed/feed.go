package feed

import (
	"context"
	"fmt"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/interfaces"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Service posts human-readable feed notes for events. Feed notes are
// best-effort companions to primary mutations; callers log failures and
// move on.
type Service interface {
	// PostStatusChange records a "Status updated: A → B" note for the event
	PostStatusChange(ctx context.Context, eventID types.EventID, from, to types.EventStatus) error
}

type service struct {
	posts    interfaces.PostRepository
	notifier Notifier
}

// Option is a functional option for service configuration
type Option func(*service)

// WithNotifier mirrors feed notes to an external channel (e.g. Slack)
func WithNotifier(n Notifier) Option {
	return func(s *service) {
		s.notifier = n
	}
}

// New creates a feed service backed by the post repository
func New(posts interfaces.PostRepository, opts ...Option) Service {
	s := &service{posts: posts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) PostStatusChange(ctx context.Context, eventID types.EventID, from, to types.EventStatus) error {
	body := fmt.Sprintf("Status updated: %s → %s", from.Normalize(), to)

	if _, err := s.posts.Create(ctx, &model.Post{
		EventID: eventID,
		Body:    body,
	}); err != nil {
		return goerr.Wrap(err, "failed to create status change post",
			goerr.V("eventID", eventID),
		)
	}

	// External mirror is best-effort even relative to the post itself
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, body); err != nil {
			logging.From(ctx).Warn("failed to mirror feed note",
				"eventID", eventID,
				"error", err.Error(),
			)
		}
	}

	return nil
}
