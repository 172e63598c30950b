package model

import (
	"sort"
	"sync"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// SuggestedOperation is an actionable suggestion surfaced to the user
// for one-click execution.
type SuggestedOperation struct {
	Operation   types.OperationType
	StepID      types.StepID
	SubStepID   types.StepID
	Priority    types.SuggestionPriority
	Description string
	Rationale   string
}

// SuggestionTracker holds the current suggestion batch. Each new batch
// replaces the previous one wholesale, and executing any one operation
// clears the whole batch.
type SuggestionTracker struct {
	mu         sync.RWMutex
	operations []SuggestedOperation
}

// NewSuggestionTracker creates an empty tracker
func NewSuggestionTracker() *SuggestionTracker {
	return &SuggestionTracker{}
}

// Set replaces the current batch. Priorities are normalized so unknown
// or missing values default to low.
func (t *SuggestionTracker) Set(ops []SuggestedOperation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.operations = make([]SuggestedOperation, len(ops))
	for i, op := range ops {
		op.Priority = op.Priority.Normalize()
		t.operations[i] = op
	}
}

// Clear drops the whole batch
func (t *SuggestionTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = nil
}

// List returns the batch in arrival order
func (t *SuggestionTracker) List() []SuggestedOperation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make([]SuggestedOperation, len(t.operations))
	copy(snapshot, t.operations)
	return snapshot
}

// ByPriority returns the batch ordered high before medium before low.
// Ordering is a read-time projection; stored order is arrival order.
func (t *SuggestionTracker) ByPriority() []SuggestedOperation {
	ops := t.List()
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Priority.Rank() < ops[j].Priority.Rank()
	})
	return ops
}
