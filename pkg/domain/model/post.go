package model

import (
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// Post is a feed entry attached to an event, e.g. a status-change note
type Post struct {
	ID        types.PostID
	EventID   types.EventID
	Body      string
	CreatedAt time.Time
}
