package types

// SuggestionPriority represents the display priority of a suggested operation
type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "high"
	PriorityMedium SuggestionPriority = "medium"
	PriorityLow    SuggestionPriority = "low"
)

// IsValid checks if the priority is valid
func (p SuggestionPriority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Normalize returns the priority, treating empty or unknown values as PriorityLow.
func (p SuggestionPriority) Normalize() SuggestionPriority {
	if !p.IsValid() {
		return PriorityLow
	}
	return p
}

// Rank returns the sort rank of the priority; lower sorts first.
func (p SuggestionPriority) Rank() int {
	switch p.Normalize() {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// String returns the string representation of the priority
func (p SuggestionPriority) String() string {
	return string(p)
}
