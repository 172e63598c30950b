package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// EventID identifies an event record
type EventID string

// ProcessID identifies a process template
type ProcessID string

// StepID identifies a step within an event or process
type StepID string

// SessionID identifies a live session. A session is bound to the event
// it was opened for, so the event ID doubles as the session ID.
type SessionID string

// TurnID identifies a transcript turn
type TurnID string

// PostID identifies a feed post
type PostID string

// NewTurnID generates a new time-ordered turn ID
func NewTurnID() TurnID {
	return TurnID(uuid.Must(uuid.NewV7()).String())
}

// NewPostID generates a new time-ordered post ID
func NewPostID() PostID {
	return PostID(uuid.Must(uuid.NewV7()).String())
}

// NewStepID generates a new time-ordered step ID
func NewStepID() StepID {
	return StepID(uuid.Must(uuid.NewV7()).String())
}

// Validate checks if the event ID is non-empty
func (id EventID) Validate() error {
	if id == "" {
		return goerr.New("event ID is required")
	}
	return nil
}

// Validate checks if the process ID is non-empty
func (id ProcessID) Validate() error {
	if id == "" {
		return goerr.New("process ID is required")
	}
	return nil
}

func (id EventID) String() string   { return string(id) }
func (id ProcessID) String() string { return string(id) }
func (id StepID) String() string    { return string(id) }
func (id SessionID) String() string { return string(id) }
func (id TurnID) String() string    { return string(id) }
func (id PostID) String() string    { return string(id) }
