package types

import "fmt"

// EventStatus represents the status of an event
type EventStatus string

const (
	EventStatusScheduled  EventStatus = "SCHEDULED"
	EventStatusInProgress EventStatus = "IN_PROGRESS"
	EventStatusCompleted  EventStatus = "COMPLETED"
	EventStatusCancelled  EventStatus = "CANCELLED"
)

// AllEventStatuses returns all valid event statuses
func AllEventStatuses() []EventStatus {
	return []EventStatus{
		EventStatusScheduled,
		EventStatusInProgress,
		EventStatusCompleted,
		EventStatusCancelled,
	}
}

// IsValid checks if the event status is valid
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusScheduled,
		EventStatusInProgress,
		EventStatusCompleted,
		EventStatusCancelled:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as EventStatusScheduled for backward compatibility.
func (s EventStatus) Normalize() EventStatus {
	if s == "" {
		return EventStatusScheduled
	}
	return s
}

// String returns the string representation of the event status
func (s EventStatus) String() string {
	return string(s)
}

// ParseEventStatus parses a string into an EventStatus
func ParseEventStatus(s string) (EventStatus, error) {
	status := EventStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid event status: %s", s)
	}
	return status, nil
}
