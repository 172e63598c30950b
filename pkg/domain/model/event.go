package model

import (
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// Event represents a calendar/feed event that a live session is tied to
type Event struct {
	ID          types.EventID
	Title       string
	Description string
	Status      types.EventStatus
	ProcessID   types.ProcessID // empty if the event has no associated process
	StartTime   time.Time
	EndTime     time.Time
	Steps       []Step
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasProcess reports whether the event is associated with a process template
func (e *Event) HasProcess() bool {
	return e.ProcessID != ""
}

// Clone returns a deep copy of the event
func (e *Event) Clone() *Event {
	copied := *e
	copied.Steps = CloneSteps(e.Steps)
	return &copied
}
