package model

import (
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// SubStep is an ordered child item of a Step
type SubStep struct {
	ID          types.StepID
	Content     string
	Completed   bool
	CompletedAt *time.Time
}

// Step is an ordered checklist item owned by an event or process
type Step struct {
	ID          types.StepID
	Content     string
	Completed   bool
	CompletedAt *time.Time
	SubSteps    []SubStep
}

// Complete marks the step done at the given time. Completion cascades to
// all sub-steps, which share the step's completion timestamp.
func (s *Step) Complete(now time.Time) {
	s.Completed = true
	s.CompletedAt = &now
	for i := range s.SubSteps {
		s.SubSteps[i].Completed = true
		s.SubSteps[i].CompletedAt = &now
	}
}

// Uncomplete clears the step's own completion state. Sub-steps keep
// their individual states until toggled explicitly.
func (s *Step) Uncomplete() {
	s.Completed = false
	s.CompletedAt = nil
}

// CompleteSubStep toggles a single sub-step and recomputes the step's
// completion as "all sub-steps completed".
func (s *Step) CompleteSubStep(id types.StepID, completed bool, now time.Time) bool {
	found := false
	for i := range s.SubSteps {
		if s.SubSteps[i].ID != id {
			continue
		}
		found = true
		s.SubSteps[i].Completed = completed
		if completed {
			s.SubSteps[i].CompletedAt = &now
		} else {
			s.SubSteps[i].CompletedAt = nil
		}
	}
	if found {
		s.recompute(now)
	}
	return found
}

// recompute derives the step's completion from its sub-steps. A step
// without sub-steps keeps its own state.
func (s *Step) recompute(now time.Time) {
	if len(s.SubSteps) == 0 {
		return
	}
	for _, sub := range s.SubSteps {
		if !sub.Completed {
			s.Completed = false
			s.CompletedAt = nil
			return
		}
	}
	if !s.Completed {
		s.Completed = true
		s.CompletedAt = &now
	}
}

// Clone returns a deep copy of the step
func (s Step) Clone() Step {
	copied := s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		copied.CompletedAt = &t
	}
	copied.SubSteps = make([]SubStep, len(s.SubSteps))
	for i, sub := range s.SubSteps {
		copied.SubSteps[i] = sub
		if sub.CompletedAt != nil {
			t := *sub.CompletedAt
			copied.SubSteps[i].CompletedAt = &t
		}
	}
	return copied
}

// CloneSteps returns a deep copy of a step slice
func CloneSteps(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	copied := make([]Step, len(steps))
	for i, s := range steps {
		copied[i] = s.Clone()
	}
	return copied
}
