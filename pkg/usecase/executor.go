package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/interfaces"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/service/feed"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Executor applies suggested operations and status changes for a live
// session. Execution outcomes are reported through the session's
// transcript; callers do not see mutation errors, the session does.
type Executor struct {
	repo   interfaces.Repository
	loader *ContextLoader
	feed   feed.Service
}

// NewExecutor creates an executor. feedSvc may be nil to disable feed notes.
func NewExecutor(repo interfaces.Repository, loader *ContextLoader, feedSvc feed.Service) *Executor {
	return &Executor{
		repo:   repo,
		loader: loader,
		feed:   feedSvc,
	}
}

// Execute runs one suggested operation against the session's working
// process. On success the whole suggestion batch is cleared, the cache
// invalidated, and the session context reloaded; on failure the batch is
// retained so the user can retry, and the error surfaces only as a
// system turn.
func (e *Executor) Execute(ctx context.Context, s *Session, op model.SuggestedOperation) error {
	if s.Closed() {
		return goerr.Wrap(ErrSessionClosed, "cannot execute operation", goerr.V("sessionID", s.ID()))
	}

	process := s.Process()
	if process == nil {
		return goerr.Wrap(ErrNoProcess, "cannot execute operation",
			goerr.V("sessionID", s.ID()),
			goerr.V("operation", op.Operation),
		)
	}

	s.appendSystemTurn(fmt.Sprintf("Executing: %s...", op.Description))

	if err := e.applyOperation(ctx, process, op); err != nil {
		logging.From(ctx).Error("operation execution failed",
			"sessionID", s.ID(),
			"operation", op.Operation,
			"stepID", op.StepID,
			"error", err.Error(),
		)
		s.appendSystemTurn(fmt.Sprintf("Could not apply %q: the change was not saved. The suggestions are still available.", op.Description))
		return nil
	}

	// Executing any one operation invalidates the whole batch
	s.suggestions.Clear()
	e.loader.Invalidate(ctx, s.EventID(), process.ID)

	if err := s.ReloadContext(ctx); err != nil {
		logging.From(ctx).Warn("context reload after execution failed",
			"sessionID", s.ID(),
			"error", err.Error(),
		)
	}

	s.appendSystemTurn(fmt.Sprintf("Done: %s", op.Description))
	return nil
}

// applyOperation mutates the process step list and saves it as one batch
func (e *Executor) applyOperation(ctx context.Context, process *model.ProcessContext, op model.SuggestedOperation) error {
	steps := model.CloneSteps(process.Steps)
	now := time.Now().UTC()

	switch op.Operation {
	case types.OperationCompleteStep:
		step := findStep(steps, op.StepID)
		if step == nil {
			return goerr.New("step not found", goerr.V("stepID", op.StepID))
		}
		if op.SubStepID != "" {
			if !step.CompleteSubStep(op.SubStepID, true, now) {
				return goerr.New("substep not found",
					goerr.V("stepID", op.StepID),
					goerr.V("subStepID", op.SubStepID),
				)
			}
		} else {
			step.Complete(now)
		}

	case types.OperationAddStep:
		steps = append(steps, model.Step{
			ID:      types.NewStepID(),
			Content: op.Description,
		})

	case types.OperationAddSubStep:
		step := findStep(steps, op.StepID)
		if step == nil {
			return goerr.New("step not found", goerr.V("stepID", op.StepID))
		}
		step.SubSteps = append(step.SubSteps, model.SubStep{
			ID:      types.NewStepID(),
			Content: op.Description,
		})

	case types.OperationUpdateStep:
		step := findStep(steps, op.StepID)
		if step == nil {
			return goerr.New("step not found", goerr.V("stepID", op.StepID))
		}
		step.Content = op.Description

	default:
		return goerr.New("unknown operation type", goerr.V("operation", op.Operation))
	}

	if _, err := e.repo.Process().UpdateSteps(ctx, process.ID, steps); err != nil {
		return goerr.Wrap(err, "failed to save process steps", goerr.V("processID", process.ID))
	}
	return nil
}

func findStep(steps []model.Step, id types.StepID) *model.Step {
	for i := range steps {
		if steps[i].ID == id {
			return &steps[i]
		}
	}
	return nil
}

// ChangeStatus updates the event status. The status update is the
// primary mutation; the feed note announcing it is best-effort and its
// failure is only logged. A failed update surfaces only as a system
// turn, like Execute.
func (e *Executor) ChangeStatus(ctx context.Context, s *Session, newStatus types.EventStatus) error {
	if s.Closed() {
		return goerr.Wrap(ErrSessionClosed, "cannot change status", goerr.V("sessionID", s.ID()))
	}
	if !newStatus.IsValid() {
		return goerr.New("invalid event status", goerr.V("status", newStatus))
	}

	event := s.Event()
	if event == nil {
		return goerr.New("event context not loaded", goerr.V("sessionID", s.ID()))
	}
	from := event.Status.Normalize()

	s.appendSystemTurn(fmt.Sprintf("Changing event status to %s...", newStatus))

	if _, err := e.repo.Event().UpdateStatus(ctx, s.EventID(), newStatus); err != nil {
		logging.From(ctx).Error("status update failed",
			"sessionID", s.ID(),
			"eventID", s.EventID(),
			"status", newStatus,
			"error", err.Error(),
		)
		s.appendSystemTurn(fmt.Sprintf("Could not change the event status to %s: the change was not saved.", newStatus))
		return nil
	}

	e.loader.Invalidate(ctx, s.EventID(), event.ProcessID)

	if err := s.ReloadContext(ctx); err != nil {
		logging.From(ctx).Warn("context reload after status change failed",
			"sessionID", s.ID(),
			"error", err.Error(),
		)
	}

	s.appendSystemTurn(fmt.Sprintf("Event status changed to %s.", newStatus))

	if e.feed != nil {
		if err := e.feed.PostStatusChange(ctx, s.EventID(), from, newStatus); err != nil {
			logging.From(ctx).Warn("failed to post status change feed note",
				"eventID", s.EventID(),
				"error", err.Error(),
			)
		}
	}

	return nil
}
