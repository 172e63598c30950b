package model

import (
	"sync"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrStreamingInFlight is returned when a second streaming turn is
// opened while one is still streaming.
var ErrStreamingInFlight = goerr.New("a streaming turn is already open")

// Transcript is the ordered, append-only log of turns for one session.
// At most one turn is streaming at any time; that turn's text is the
// only mutable text in the log, and it freezes once finalized.
type Transcript struct {
	mu        sync.RWMutex
	turns     []Turn
	streaming int // index of the open streaming turn, -1 if none
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{streaming: -1}
}

// Append adds a completed turn to the end of the log
func (t *Transcript) Append(turn Turn) Turn {
	t.mu.Lock()
	defer t.mu.Unlock()

	turn.IsStreaming = false
	t.turns = append(t.turns, turn)
	return turn
}

// StartStreaming opens a new streaming turn with empty text. It fails if
// a streaming turn is already open; single-flight is the caller's
// responsibility, this is the last line of defense.
func (t *Transcript) StartStreaming(speaker types.Speaker) (Turn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streaming >= 0 {
		return Turn{}, goerr.Wrap(ErrStreamingInFlight, "cannot start streaming turn",
			goerr.V("speaker", speaker),
		)
	}

	turn := Turn{
		ID:          types.NewTurnID(),
		Time:        time.Now().UTC(),
		Speaker:     speaker,
		IsAI:        speaker == types.SpeakerAssistant,
		IsStreaming: true,
	}
	t.turns = append(t.turns, turn)
	t.streaming = len(t.turns) - 1
	return turn, nil
}

// AppendChunk concatenates a fragment onto the open streaming turn.
// No-op if no streaming turn is open.
func (t *Transcript) AppendChunk(chunk string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streaming < 0 {
		return
	}
	t.turns[t.streaming].Text += chunk
}

// FinalizeStreaming sets the streaming turn's text to the authoritative
// final value and closes it. The finalized turn never changes again.
// No-op (returning the zero turn and false) if no streaming turn is open.
func (t *Transcript) FinalizeStreaming(fullText string) (Turn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streaming < 0 {
		return Turn{}, false
	}
	t.turns[t.streaming].Text = fullText
	t.turns[t.streaming].IsStreaming = false
	finalized := t.turns[t.streaming]
	t.streaming = -1
	return finalized, true
}

// StreamingText returns the accumulated text of the open streaming turn,
// or "" if none is open.
func (t *Transcript) StreamingText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.streaming < 0 {
		return ""
	}
	return t.turns[t.streaming].Text
}

// HasStreaming reports whether a streaming turn is open
func (t *Transcript) HasStreaming() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.streaming >= 0
}

// Turns returns a snapshot of the log in append order
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make([]Turn, len(t.turns))
	copy(snapshot, t.turns)
	return snapshot
}

// Len returns the number of turns in the log
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}
