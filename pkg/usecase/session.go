package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/service/assistant"
	"github.com/flowdeck-dev/flowdeck/pkg/service/media"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/async"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const defaultWelcomeText = "Hello! I'm your session copilot. I'm pulling up the event details now."

// Pacing controls the delays between the orchestrator's opening turns so
// they read as a conversation rather than a dump. Zero values mean no
// delay, which is what tests use.
type Pacing struct {
	WelcomeDelay time.Duration
	ContextDelay time.Duration
}

// messageLatch is a forward-only one-shot. Once fired it stays fired
// until the context it announced changes meaningfully.
type messageLatch struct {
	sent bool
}

func (l *messageLatch) fire() bool {
	if l.sent {
		return false
	}
	l.sent = true
	return true
}

// Session is one live session: the transcript, the suggestion batch, the
// assistant adapter, and the context-load orchestration for a single
// event. Closing the session cancels its context; nothing mutates
// session state after close.
type Session struct {
	id      types.SessionID
	eventID types.EventID

	loader      *ContextLoader
	adapter     *assistant.Adapter
	mediaCtl    media.Controller
	transcript  *model.Transcript
	suggestions *model.SuggestionTracker

	ctx    context.Context
	cancel context.CancelFunc

	pacing      Pacing
	welcomeText string

	mu         sync.Mutex
	event      *model.Event
	process    *model.ProcessContext
	welcome    messageLatch
	eventMsg   messageLatch
	processMsg messageLatch

	startOnce sync.Once
	ready     chan struct{}
}

func newSession(ctx context.Context, id types.SessionID, eventID types.EventID, loader *ContextLoader, adapter *assistant.Adapter, mediaCtl media.Controller, pacing Pacing, welcomeText string) *Session {
	if welcomeText == "" {
		welcomeText = defaultWelcomeText
	}
	if mediaCtl == nil {
		mediaCtl = media.NewNullController()
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Session{
		id:          id,
		eventID:     eventID,
		loader:      loader,
		adapter:     adapter,
		mediaCtl:    mediaCtl,
		transcript:  model.NewTranscript(),
		suggestions: model.NewSuggestionTracker(),
		ctx:         sctx,
		cancel:      cancel,
		pacing:      pacing,
		welcomeText: welcomeText,
		ready:       make(chan struct{}),
	}
}

// ID returns the session ID
func (s *Session) ID() types.SessionID { return s.id }

// EventID returns the event this session is bound to
func (s *Session) EventID() types.EventID { return s.eventID }

// Media returns the session's media controller
func (s *Session) Media() media.Controller { return s.mediaCtl }

// Ready is closed when the opening sequence has finished
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Closed reports whether the session has been closed
func (s *Session) Closed() bool {
	return s.ctx.Err() != nil
}

// Close cancels the session context. In-flight generations stop and no
// further state updates are applied.
func (s *Session) Close() {
	s.cancel()
}

// Transcript returns a snapshot of the transcript in append order
func (s *Session) Transcript() []model.Turn {
	return s.transcript.Turns()
}

// Suggestions returns the current batch, highest priority first
func (s *Session) Suggestions() []model.SuggestedOperation {
	return s.suggestions.ByPriority()
}

// Event returns a copy of the loaded event, or nil before the first load
func (s *Session) Event() *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return nil
	}
	return s.event.Clone()
}

// Process returns a copy of the loaded process, or nil if the event has
// none or it has not loaded yet
func (s *Session) Process() *model.ProcessContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.process == nil {
		return nil
	}
	return s.process.Clone()
}

// Start launches the opening sequence: welcome turn, event load and
// announcement, then process load and announcement when the event has a
// working process. The whole sequence runs in one goroutine so the turns
// always land in that order.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		async.Dispatch(s.ctx, func(context.Context) error {
			defer close(s.ready)
			s.runStartSequence(s.ctx)
			return nil
		})
	})
}

func (s *Session) runStartSequence(ctx context.Context) {
	logger := logging.From(ctx)

	if s.fireWelcome() {
		if !s.pause(ctx, s.pacing.WelcomeDelay) {
			return
		}
		s.appendSystemTurn(s.welcomeText)
	}

	event, err := s.loader.LoadEvent(ctx, s.eventID)
	if err != nil {
		// Stale context stays usable; the transcript is not disrupted
		logger.Error("failed to load event context",
			"sessionID", s.id,
			"eventID", s.eventID,
			"error", err.Error(),
		)
		return
	}
	s.applyEvent(ctx, event)

	if !event.HasProcess() {
		// Nothing to fetch; the session is immediately process-ready
		return
	}

	process, err := s.loader.LoadProcess(ctx, event.ProcessID)
	if err != nil {
		logger.Error("failed to load process context",
			"sessionID", s.id,
			"processID", event.ProcessID,
			"error", err.Error(),
		)
		return
	}
	s.applyProcess(ctx, process)
}

// applyEvent installs the event into session state and the adapter, and
// announces it once
func (s *Session) applyEvent(ctx context.Context, event *model.Event) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.event = event.Clone()
	announce := s.eventMsg.fire()
	s.mu.Unlock()

	s.adapter.SetEventContext(event)

	if announce {
		if !s.pause(ctx, s.pacing.ContextDelay) {
			return
		}
		s.appendSystemTurn(fmt.Sprintf("Now assisting with: %s (%s)", event.Title, event.Status.Normalize()))
	}
}

// applyProcess installs the process into session state and the adapter.
// The announcement latch resets when the process identity changes, so a
// swapped process is announced again.
func (s *Session) applyProcess(ctx context.Context, process *model.ProcessContext) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.process != nil && s.process.ID != process.ID {
		s.processMsg = messageLatch{}
	}
	s.process = process.Clone()
	announce := s.processMsg.fire()
	s.mu.Unlock()

	s.adapter.SetProcessContext(process)

	if announce {
		if !s.pause(ctx, s.pacing.ContextDelay) {
			return
		}
		done, total := process.Progress()
		msg := fmt.Sprintf("Working process loaded: %s. Progress: %d%% (%d/%d steps complete).",
			process.Title, process.ProgressPercent(), done, total)
		if next := process.NextPendingStep(); next != nil {
			msg += fmt.Sprintf(" Next up: %s", next.Content)
		}
		s.appendSystemTurn(msg)
	}
}

func (s *Session) fireWelcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.welcome.fire()
}

// pause sleeps for the pacing delay, returning false if the session was
// closed while waiting
func (s *Session) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Session) appendSystemTurn(text string) {
	if s.ctx.Err() != nil {
		return
	}
	s.transcript.Append(model.NewSystemTurn(text))
}

// ReloadContext refetches event and process after a mutation. The caller
// invalidates the cache first so the reads see fresh data.
func (s *Session) ReloadContext(ctx context.Context) error {
	if s.Closed() {
		return ErrSessionClosed
	}

	event, err := s.loader.LoadEvent(ctx, s.eventID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.event = event.Clone()
	s.mu.Unlock()
	s.adapter.SetEventContext(event)

	if !event.HasProcess() {
		return nil
	}

	process, err := s.loader.LoadProcess(ctx, event.ProcessID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.process != nil && s.process.ID != process.ID {
		s.processMsg = messageLatch{}
	}
	s.process = process.Clone()
	s.mu.Unlock()
	s.adapter.SetProcessContext(process)

	return nil
}

// SendUserMessage appends the user's turn, starts an assistant
// generation, and returns the event stream. The session applies every
// event to its own state as it flows; the returned channel is a tee for
// the caller (e.g. the SSE handler) and may be abandoned by cancelling
// ctx without affecting transcript consistency.
//
// A message sent while a reply is still streaming is rejected with
// ErrMessageInFlight.
func (s *Session) SendUserMessage(ctx context.Context, speaker types.Speaker, text string) (<-chan assistant.Event, error) {
	if s.Closed() {
		return nil, goerr.Wrap(ErrSessionClosed, "cannot send message", goerr.V("sessionID", s.id))
	}

	// Generation and transcript writes run on the session context so a
	// dropped HTTP request does not strand a half-open streaming turn.
	events, err := s.adapter.GenerateStream(s.ctx, speaker, text)
	if err != nil {
		if errors.Is(err, assistant.ErrGenerationInFlight) {
			return nil, goerr.Wrap(ErrMessageInFlight, "message rejected", goerr.V("sessionID", s.id))
		}
		return nil, err
	}

	s.transcript.Append(model.NewTurn(speaker, text))

	if _, err := s.transcript.StartStreaming(types.SpeakerAssistant); err != nil {
		return nil, err
	}

	out := make(chan assistant.Event, 8)
	async.Dispatch(ctx, func(context.Context) error {
		defer close(out)
		s.consumeStream(ctx, events, out)
		return nil
	})
	return out, nil
}

// consumeStream applies adapter events to session state and forwards
// them to the caller. Applying continues even after the caller stops
// listening; the transcript must always end with a finalized turn.
func (s *Session) consumeStream(callerCtx context.Context, events <-chan assistant.Event, out chan<- assistant.Event) {
	forward := func(ev assistant.Event) {
		select {
		case out <- ev:
		case <-callerCtx.Done():
		case <-s.ctx.Done():
		}
	}

	for ev := range events {
		switch ev.Kind {
		case assistant.EventChunk:
			s.transcript.AppendChunk(ev.Chunk)

		case assistant.EventSuggestions:
			s.suggestions.Set(ev.Suggestions)

		case assistant.EventDone:
			s.transcript.FinalizeStreaming(ev.Text)

		case assistant.EventError:
			// Freeze whatever arrived, then say so in the transcript
			partial := s.transcript.StreamingText()
			s.transcript.FinalizeStreaming(partial)
			s.appendSystemTurn("The assistant was interrupted; the reply above may be incomplete.")
			logging.From(s.ctx).Error("assistant generation failed",
				"sessionID", s.id,
				"error", ev.Err.Error(),
			)
		}
		forward(ev)
	}

	// A stream that ends without a terminal event still closes the turn
	if s.transcript.HasStreaming() {
		s.transcript.FinalizeStreaming(s.transcript.StreamingText())
	}
}
