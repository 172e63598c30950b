package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// ErrGenerationInFlight is returned when a generation is requested while
// another one is still streaming. Requests are rejected, not queued.
var ErrGenerationInFlight = goerr.New("assistant generation already in flight")

// Adapter wraps an LLM client as the live session copilot. It keeps its
// own exchange history and rebuilds the system prompt from the current
// event and process context on every generation, so context updates take
// effect on the next turn without resetting the conversation.
type Adapter struct {
	llmClient gollem.LLMClient
	language  string

	mu      sync.Mutex
	event   *model.Event
	process *model.ProcessContext
	history []exchange

	inFlight atomic.Bool
}

// Option is a functional option for adapter configuration
type Option func(*Adapter)

// WithLanguage sets the response language instruction
func WithLanguage(language string) Option {
	return func(a *Adapter) {
		a.language = language
	}
}

// New creates an assistant adapter over the given LLM client
func New(llmClient gollem.LLMClient, opts ...Option) *Adapter {
	a := &Adapter{
		llmClient: llmClient,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetEventContext primes the adapter with event details. Steps are
// deliberately dropped; step bodies reach the prompt only through the
// process context.
func (a *Adapter) SetEventContext(event *model.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event == nil {
		a.event = nil
		return
	}
	e := event.Clone()
	e.Steps = nil
	a.event = e
}

// SetProcessContext primes the adapter with the working process outline
func (a *Adapter) SetProcessContext(process *model.ProcessContext) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if process == nil {
		a.process = nil
		return
	}
	a.process = process.Clone()
}

// HasEventContext reports whether event details have been primed
func (a *Adapter) HasEventContext() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.event != nil
}

// HasProcessContext reports whether a process outline has been primed
func (a *Adapter) HasProcessContext() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.process != nil
}

// InFlight reports whether a generation is currently streaming
func (a *Adapter) InFlight() bool {
	return a.inFlight.Load()
}

// GenerateStream starts a generation for the given user message and
// returns a lazy event channel. Events arrive in order: zero or more
// chunk events, at most one suggestions event, then exactly one done or
// error event. The channel closes after the terminal event. Consumers
// cancel ctx to abandon the stream.
//
// Only one generation may be in flight; concurrent calls get
// ErrGenerationInFlight.
func (a *Adapter) GenerateStream(ctx context.Context, speaker types.Speaker, text string) (<-chan Event, error) {
	if a.llmClient == nil {
		return nil, goerr.New("no LLM client configured, assistant replies are disabled")
	}
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, goerr.Wrap(ErrGenerationInFlight, "rejecting concurrent generation",
			goerr.V("speaker", speaker),
		)
	}

	a.mu.Lock()
	data := systemPromptData{
		Event:    a.event,
		Process:  a.process,
		History:  append([]exchange{}, a.history...),
		Language: a.language,
	}
	process := a.process
	a.mu.Unlock()

	systemPrompt, err := buildSystemPrompt(data)
	if err != nil {
		a.inFlight.Store(false)
		return nil, err
	}

	session, err := a.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		a.inFlight.Store(false)
		return nil, goerr.Wrap(err, "failed to create assistant session")
	}

	input := string(speaker) + ": " + text
	stream, err := session.GenerateStream(ctx, gollem.Text(input))
	if err != nil {
		a.inFlight.Store(false)
		return nil, goerr.Wrap(err, "failed to start assistant generation")
	}

	out := make(chan Event, 4)
	go a.pump(ctx, out, stream, process, speaker, text)
	return out, nil
}

func (a *Adapter) pump(ctx context.Context, out chan<- Event, stream <-chan *gollem.Response, process *model.ProcessContext, speaker types.Speaker, userText string) {
	defer close(out)
	defer a.inFlight.Store(false)

	emit := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var sb strings.Builder
	for resp := range stream {
		if resp == nil {
			continue
		}
		if resp.Error != nil {
			// A mid-stream failure terminates the generation. The partial
			// text is reported but never committed to the prompt history.
			emit(Event{Kind: EventError, Text: sb.String(), Err: goerr.Wrap(resp.Error, "generation failed mid-stream")})
			return
		}
		for _, t := range resp.Texts {
			if t == "" {
				continue
			}
			sb.WriteString(t)
			if !emit(Event{Kind: EventChunk, Chunk: t}) {
				return
			}
		}
	}

	full := sb.String()
	if err := ctx.Err(); err != nil {
		// Best-effort delivery; the context is already dead, so a
		// blocked consumer must not pin this goroutine
		select {
		case out <- Event{Kind: EventError, Text: full, Err: goerr.Wrap(err, "generation interrupted")}:
		default:
		}
		return
	}

	a.mu.Lock()
	a.history = append(a.history,
		exchange{Role: string(speaker), Text: userText},
		exchange{Role: string(types.SpeakerAssistant), Text: full},
	)
	a.mu.Unlock()

	if process != nil && full != "" {
		suggestions, err := a.extractOperations(ctx, process, full)
		if err != nil {
			logging.From(ctx).Warn("failed to extract operation suggestions",
				"error", err.Error(),
			)
		} else if len(suggestions) > 0 {
			if !emit(Event{Kind: EventSuggestions, Suggestions: suggestions}) {
				return
			}
		}
	}

	emit(Event{Kind: EventDone, Text: full})
}

// rawOperation is the JSON shape returned by the extraction session
type rawOperation struct {
	Operation   string `json:"operation"`
	StepID      string `json:"step_id"`
	SubStepID   string `json:"substep_id"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Rationale   string `json:"rationale"`
}

func operationSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "SuggestedOperations",
		Description: "Working process operations implied by an assistant reply",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"operations": {
				Type:        gollem.TypeArray,
				Description: "Operations the reply supports. Empty array when no process change is called for.",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"operation": {
							Type:        gollem.TypeString,
							Description: "One of: complete_step, add_step, add_substep, update_step",
							Required:    true,
						},
						"step_id": {
							Type:        gollem.TypeString,
							Description: "Target step ID from the process outline. Empty for add_step.",
						},
						"substep_id": {
							Type:        gollem.TypeString,
							Description: "Target substep ID when the operation targets a substep",
						},
						"priority": {
							Type:        gollem.TypeString,
							Description: "high, medium or low",
						},
						"description": {
							Type:        gollem.TypeString,
							Description: "Short imperative description of the operation",
							Required:    true,
						},
						"rationale": {
							Type:        gollem.TypeString,
							Description: "One sentence on what in the conversation supports this",
						},
					},
				},
			},
		},
	}
}

// extractOperations runs a second, schema-constrained session over the
// finished reply to pull out structured operation suggestions.
func (a *Adapter) extractOperations(ctx context.Context, process *model.ProcessContext, reply string) ([]model.SuggestedOperation, error) {
	session, err := a.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(operationSchema()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create extraction session")
	}

	prompt, err := buildExtractPrompt(extractPromptData{
		Process: process,
		Reply:   reply,
	})
	if err != nil {
		return nil, err
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate operation extraction")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("operation extraction returned empty result")
	}

	var parsed struct {
		Operations []rawOperation `json:"operations"`
	}
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse operation extraction JSON",
			goerr.V("response", resp.Texts[0]),
		)
	}

	logger := logging.From(ctx)
	suggestions := make([]model.SuggestedOperation, 0, len(parsed.Operations))
	for _, raw := range parsed.Operations {
		op, err := types.ParseOperationType(raw.Operation)
		if err != nil {
			logger.Debug("dropping suggestion with unknown operation",
				"operation", raw.Operation,
			)
			continue
		}
		stepID := types.StepID(raw.StepID)
		if op != types.OperationAddStep && !stepExists(process, stepID) {
			logger.Debug("dropping suggestion targeting unknown step",
				"operation", raw.Operation,
				"stepID", raw.StepID,
			)
			continue
		}

		suggestions = append(suggestions, model.SuggestedOperation{
			Operation:   op,
			StepID:      stepID,
			SubStepID:   types.StepID(raw.SubStepID),
			Priority:    types.SuggestionPriority(raw.Priority).Normalize(),
			Description: raw.Description,
			Rationale:   raw.Rationale,
		})
	}

	return suggestions, nil
}

func stepExists(process *model.ProcessContext, id types.StepID) bool {
	if id == "" {
		return false
	}
	for i := range process.Steps {
		if process.Steps[i].ID == id {
			return true
		}
	}
	return false
}
