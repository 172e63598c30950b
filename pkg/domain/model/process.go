package model

import (
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

// ProcessContext is the process template view primed into the assistant:
// the template title and its ordered steps. Steps here are sourced only
// through the process fetch path, never copied from event data.
type ProcessContext struct {
	ID    types.ProcessID
	Title string
	Steps []Step
}

// Progress returns the number of completed steps and the total
func (p *ProcessContext) Progress() (completed, total int) {
	for _, s := range p.Steps {
		if s.Completed {
			completed++
		}
	}
	return completed, len(p.Steps)
}

// ProgressPercent returns the completion ratio as a whole percentage.
// An empty process counts as 0%.
func (p *ProcessContext) ProgressPercent() int {
	completed, total := p.Progress()
	if total == 0 {
		return 0
	}
	return completed * 100 / total
}

// NextPendingStep returns the first incomplete step in order, or nil
func (p *ProcessContext) NextPendingStep() *Step {
	for i := range p.Steps {
		if !p.Steps[i].Completed {
			return &p.Steps[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the process context
func (p *ProcessContext) Clone() *ProcessContext {
	copied := *p
	copied.Steps = CloneSteps(p.Steps)
	return &copied
}
