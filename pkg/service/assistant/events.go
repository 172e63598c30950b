package assistant

import (
	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
)

// EventKind discriminates stream events
type EventKind string

const (
	// EventChunk carries one incremental text fragment
	EventChunk EventKind = "chunk"
	// EventSuggestions carries the extracted operation batch; emitted at
	// most once per generation
	EventSuggestions EventKind = "suggestions"
	// EventDone carries the authoritative full text; always the last
	// event on a successful generation
	EventDone EventKind = "done"
	// EventError terminates a failed generation; the consumer must still
	// close out its streaming turn with whatever partial text exists
	EventError EventKind = "error"
)

// Event is one element of the lazy generation stream. Consumers range
// over the channel and stop iterating to cancel.
type Event struct {
	Kind        EventKind
	Chunk       string
	Text        string
	Suggestions []model.SuggestedOperation
	Err         error
}
